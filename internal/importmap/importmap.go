// Package importmap parses import maps and resolves module specifiers
// against them. Resolution is a capability probe: a miss is reported as a
// boolean, never an error, so callers can skip optional modules.
package importmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Map is a parsed import map plus the directory it was loaded from.
// Relative mapping targets are resolved against Dir.
type Map struct {
	Imports map[string]string `json:"imports"`
	Dir     string            `json:"-"`
}

// Empty returns a map with no entries. Resolve always misses.
func Empty() *Map {
	return &Map{Imports: map[string]string{}}
}

// Parse decodes import map JSON. Unknown fields (scopes, integrity) are
// ignored; only the imports block participates in resolution.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("importmap: invalid JSON: %w", err)
	}
	if m.Imports == nil {
		m.Imports = map[string]string{}
	}
	for key, target := range m.Imports {
		if key == "" || target == "" {
			return nil, fmt.Errorf("importmap: empty specifier or target in mapping %q: %q", key, target)
		}
		if strings.HasSuffix(key, "/") && !strings.HasSuffix(target, "/") {
			return nil, fmt.Errorf("importmap: prefix mapping %q must point to a directory, got %q", key, target)
		}
	}
	return &m, nil
}

// Load reads and parses the import map at path and records its directory
// for relative target resolution.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importmap: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// Resolve maps a specifier through the import map. Exact matches win over
// trailing-slash prefix matches; among prefixes the longest wins. The second
// return value reports whether the map covers the specifier at all.
func (m *Map) Resolve(specifier string) (string, bool) {
	if m == nil || specifier == "" {
		return "", false
	}

	if target, ok := m.Imports[specifier]; ok {
		return m.absolute(target), true
	}

	var bestKey, bestTarget string
	for key, target := range m.Imports {
		if !strings.HasSuffix(key, "/") {
			continue
		}
		if strings.HasPrefix(specifier, key) && len(key) > len(bestKey) {
			bestKey = key
			bestTarget = target
		}
	}
	if bestKey == "" {
		return "", false
	}
	return m.absolute(bestTarget + specifier[len(bestKey):]), true
}

// IsRemote reports whether a resolved target is an http(s) URL rather than a
// local file.
func IsRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func (m *Map) absolute(target string) string {
	if IsRemote(target) || filepath.IsAbs(target) {
		return target
	}
	if m.Dir == "" {
		return target
	}
	return filepath.Join(m.Dir, target)
}
