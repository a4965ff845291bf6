package schema

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML class table. Unknown keys are rejected so that typos in flag or
// field attributes do not go unnoticed.
func Parse(data []byte) ([]ClassSpec, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse class table: %w", err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode class table: %w", err)
	}
	return doc.Classes, nil
}

// Load reads and parses a class table file.
func Load(path string) ([]ClassSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	specs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Marshal encodes class specs back into the YAML table format.
func Marshal(specs []ClassSpec) ([]byte, error) {
	return yaml.Marshal(Document{Classes: specs})
}
