package bundler

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
)

// Metadata is the subset of the engine's json metafile the bundler cares
// about: the output graph, keyed by output path.
type Metadata struct {
	Outputs map[string]struct {
		Imports []struct {
			Path string `json:"path"`
			Kind string `json:"kind"`
		} `json:"imports"`
		EntryPoint string `json:"entryPoint"`
	} `json:"outputs"`
}

// ParseMetadata decodes the raw metafile produced by a completed build.
func ParseMetadata(metafile string) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return nil, fmt.Errorf("bundler: parse metafile: %w", err)
	}
	return &meta, nil
}

// Dependencies walks the output graph from the given rooted output path and
// returns every output it transitively imports, the starting path included,
// as rooted paths. Unknown paths yield just themselves.
func (m *Metadata) Dependencies(rooted string) []string {
	seen := make(map[string]bool)
	var result []string

	var recurse func(key string)
	recurse = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		result = append(result, "/"+key)

		if output, ok := m.Outputs[key]; ok {
			for _, imp := range output.Imports {
				recurse(imp.Path)
			}
		}
	}

	recurse(path.Clean("/" + rooted)[1:])
	sort.Strings(result[1:])
	return result
}
