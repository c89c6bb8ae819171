package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Manifest is the subset of a package.json that the classifier reads.
type Manifest struct {
	Name            string
	Version         string
	Dependencies    map[string]string
	DevDependencies map[string]string
}

// ParseManifest decodes a package.json document. Dependency entries whose
// value is not a string (workspaces tooling sometimes writes objects) are
// ignored rather than failing the whole document.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw struct {
		Name            any                        `json:"name"`
		Version         any                        `json:"version"`
		Dependencies    map[string]json.RawMessage `json:"dependencies"`
		DevDependencies map[string]json.RawMessage `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode package.json: %w", err)
	}

	name, _ := raw.Name.(string)
	version, _ := raw.Version.(string)
	return &Manifest{
		Name:            name,
		Version:         version,
		Dependencies:    stringValues(raw.Dependencies),
		DevDependencies: stringValues(raw.DevDependencies),
	}, nil
}

func stringValues(in map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
		}
	}
	return out
}

// Dependency looks a package up in the runtime dependencies only.
func (m *Manifest) Dependency(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.Dependencies[name]
	return v, ok
}

// Merged returns runtime and dev dependencies in one map. A package listed
// in both keeps its devDependencies constraint.
func (m *Manifest) Merged() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	maps.Copy(out, m.Dependencies)
	maps.Copy(out, m.DevDependencies)
	return out
}

// Has reports whether name appears in either dependency map.
func (m *Manifest) Has(name string) bool {
	if m == nil {
		return false
	}
	_, inDeps := m.Dependencies[name]
	_, inDev := m.DevDependencies[name]
	return inDeps || inDev
}

// DependencyCount is the number of runtime dependencies.
func (m *Manifest) DependencyCount() int {
	if m == nil {
		return 0
	}
	return len(m.Dependencies)
}

// Summary returns the name, version and sorted dependency names.
func (m *Manifest) Summary() *ManifestSummary {
	if m == nil {
		return nil
	}
	return &ManifestSummary{
		Name:            m.Name,
		Version:         m.Version,
		Dependencies:    sortedKeys(m.Dependencies),
		DevDependencies: sortedKeys(m.DevDependencies),
	}
}

// ManifestSummary is the manifest digest included in analysis responses.
type ManifestSummary struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Dependencies    []string `json:"dependencies"`
	DevDependencies []string `json:"devDependencies"`
}

func sortedKeys(m map[string]string) []string {
	keys := slices.Sorted(maps.Keys(m))
	if keys == nil {
		return []string{}
	}
	return keys
}
