package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is a serialisable image of an object graph, keyed by object ID.
// Reference lists contain object IDs; an empty string stands for a nil slot.
type Snapshot struct {
	ID        string                   `json:"id"`
	Root      string                   `json:"root"`
	Objects   map[string]*ObjectRecord `json:"objects"`
	CreatedAt time.Time                `json:"created_at"`
	Metadata  map[string]string        `json:"metadata,omitempty"`
}

// ObjectRecord captures the field values of a single object.
type ObjectRecord struct {
	Class      string                     `json:"class"`
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	References map[string][]string        `json:"references,omitempty"`
}

// NewSnapshot creates an empty snapshot with the given ID.
func NewSnapshot(id string) *Snapshot {
	return &Snapshot{
		ID:        id,
		Objects:   make(map[string]*ObjectRecord),
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Objects = make(map[string]*ObjectRecord, len(s.Objects))
	for id, rec := range s.Objects {
		cp.Objects[id] = rec.clone()
	}
	if s.Metadata != nil {
		cp.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func (r *ObjectRecord) clone() *ObjectRecord {
	if r == nil {
		return nil
	}
	cp := &ObjectRecord{Class: r.Class}
	if r.Properties != nil {
		cp.Properties = make(map[string]json.RawMessage, len(r.Properties))
		for k, v := range r.Properties {
			cp.Properties[k] = append(json.RawMessage(nil), v...)
		}
	}
	if r.References != nil {
		cp.References = make(map[string][]string, len(r.References))
		for k, v := range r.References {
			cp.References[k] = append([]string(nil), v...)
		}
	}
	return cp
}
