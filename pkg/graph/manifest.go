package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// dependency collections a manifest may declare, in the order they are
// searched when rewriting a range.
var dependencyCollections = []string{
	"dependencies",
	"devDependencies",
	"optionalDependencies",
}

// Manifest is an in-memory package.json. Unknown fields survive a
// load/mutate/save round trip; keys are serialized in sorted order.
type Manifest struct {
	path   string
	fields map[string]json.RawMessage
}

// LoadManifest reads and parses the package.json at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	return &Manifest{path: path, fields: fields}, nil
}

// Path returns the file the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.path
}

func (m *Manifest) stringField(key string) string {
	raw, ok := m.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Name returns the declared package name.
func (m *Manifest) Name() string {
	return m.stringField("name")
}

// Version returns the declared version, or "" when the field is absent.
func (m *Manifest) Version() string {
	return m.stringField("version")
}

// Private reports whether the manifest is marked private.
func (m *Manifest) Private() bool {
	raw, ok := m.fields["private"]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// Scripts returns the lifecycle scripts map, possibly empty.
func (m *Manifest) Scripts() map[string]string {
	raw, ok := m.fields["scripts"]
	if !ok {
		return nil
	}
	scripts := make(map[string]string)
	if err := json.Unmarshal(raw, &scripts); err != nil {
		return nil
	}
	return scripts
}

// SetVersion replaces the version field.
func (m *Manifest) SetVersion(version string) {
	raw, _ := json.Marshal(version)
	m.fields["version"] = raw
}

// Dependencies returns the named dependency collection, or nil if absent.
func (m *Manifest) Dependencies(collection string) map[string]string {
	raw, ok := m.fields[collection]
	if !ok {
		return nil
	}
	deps := make(map[string]string)
	if err := json.Unmarshal(raw, &deps); err != nil {
		return nil
	}
	return deps
}

// SetDependencyRange rewrites the declared range for name in every
// collection that lists it. It reports whether any entry changed.
func (m *Manifest) SetDependencyRange(name, newRange string) bool {
	changed := false
	for _, collection := range dependencyCollections {
		deps := m.Dependencies(collection)
		if deps == nil {
			continue
		}
		if _, ok := deps[name]; !ok {
			continue
		}
		deps[name] = newRange
		raw, _ := json.Marshal(deps)
		m.fields[collection] = raw
		changed = true
	}
	return changed
}

// Save serializes the manifest back to its file with a trailing newline.
func (m *Manifest) Save() error {
	data, err := json.MarshalIndent(m.fields, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize manifest %s: %w", m.path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write manifest %s: %w", m.path, err)
	}
	return nil
}
