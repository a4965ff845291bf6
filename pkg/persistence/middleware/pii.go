package middleware

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Masked replaces redacted property values.
const Masked = "***"

var maskedValue = json.RawMessage(`"` + Masked + `"`)

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks, on Save, the values of properties
// and metadata entries whose names match one of the patterns. Loaded snapshots carry
// the masked values.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	// 1. Deep Clone to avoid side effects on the caller's snapshot.
	cloned := snap.Clone()

	// 2. Mask PII
	for _, rec := range cloned.Objects {
		for name := range rec.Properties {
			if m.matches(name) {
				rec.Properties[name] = maskedValue
			}
		}
	}
	for k := range cloned.Metadata {
		if m.matches(k) {
			cloned.Metadata[k] = Masked
		}
	}

	return m.next.Save(ctx, id, cloned)
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
