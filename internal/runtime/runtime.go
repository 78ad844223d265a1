// Package runtime carries the embedded client runtime modules that every
// bundle starts from. The sources are compiled into the binary and handed to
// the bundling engine through a virtual module namespace, so a fresh app
// needs no runtime files on disk.
package runtime

import (
	_ "embed"
	"strings"
)

// Scheme prefixes every virtual runtime module specifier.
const Scheme = "fresh-runtime:"

const (
	MainModule         = Scheme + "main"
	MainDevModule      = Scheme + "main_dev"
	DeserializerModule = Scheme + "deserializer"
	SignalsModule      = Scheme + "signals"
	BuildIDModule      = Scheme + "build-id"
)

// SignalsSpecifier is the optional reactive-state package. The signals entry
// point is emitted only when the active import map resolves it.
const SignalsSpecifier = "@preact/signals"

var (
	//go:embed main.ts
	mainSource string

	//go:embed main_dev.ts
	mainDevSource string

	//go:embed deserializer.ts
	deserializerSource string

	//go:embed signals.ts
	signalsSource string

	//go:embed build-id.ts
	buildIDSource string
)

var sources = map[string]string{
	MainModule:         mainSource,
	MainDevModule:      mainDevSource,
	DeserializerModule: deserializerSource,
	SignalsModule:      signalsSource,
	BuildIDModule:      buildIDSource,
}

// Source returns the embedded TypeScript for a virtual module specifier.
func Source(specifier string) (string, bool) {
	src, ok := sources[specifier]
	return src, ok
}

// IsModule reports whether a specifier names a virtual runtime module.
func IsModule(specifier string) bool {
	return strings.HasPrefix(specifier, Scheme)
}
