package bundler

import (
	fresh_runtime "github.com/iceghost/fresh/internal/runtime"
)

// entrypoints assembles the entry point map for one build. The fixed runtime
// entries come first, then one entry per island and per plugin entry point.
// The signals entry is included only when the import map resolves the
// optional reactive-state package; a miss is skipped, not an error.
func (b *Bundler) entrypoints() map[string]string {
	entries := map[string]string{
		"main":         fresh_runtime.MainModule,
		"deserializer": fresh_runtime.DeserializerModule,
	}
	if b.dev {
		entries["main"] = fresh_runtime.MainDevModule
	}

	if _, ok := b.imports.Resolve(fresh_runtime.SignalsSpecifier); ok {
		entries["signals"] = fresh_runtime.SignalsModule
	}

	for _, island := range b.islands {
		entries["island-"+island.ID] = island.URL
	}

	for _, plugin := range b.plugins {
		for name, url := range plugin.Entrypoints {
			entries["plugin-"+plugin.Name+"-"+name] = url
		}
	}

	return entries
}
