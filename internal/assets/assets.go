// Package assets serves the in-memory bundle over HTTP. The first request
// triggers the build; everything after is served from the bundler's cache.
package assets

import (
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iceghost/fresh/internal/bundler"
)

// BuildIDPath is polled by the dev runtime to detect server restarts.
const BuildIDPath = "/_fresh/build-id"

var contentTypes = map[string]string{
	".js":  "application/javascript; charset=utf-8",
	".map": "application/json; charset=utf-8",
	".css": "text/css; charset=utf-8",
}

// ContentType returns the response content type for a bundle output path.
func ContentType(p string) string {
	if ct, ok := contentTypes[path.Ext(p)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Handler serves bundle outputs by their rooted paths. Unknown paths get a
// 404, a failed build a 503 so clients retry once the underlying problem is
// fixed.
func Handler(b *bundler.Bundler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == BuildIDPath {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte(b.BuildID()))
			return
		}

		contents, ok, err := b.File(r.Context(), r.URL.Path)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("bundle build failed")
			http.Error(w, "bundle build failed", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", ContentType(r.URL.Path))
		if hasBuildID(r) {
			// Build-id stamped URLs are immutable by construction.
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		preload(w, b, r.URL.Path)
		w.Write(contents)
	})
}

func hasBuildID(r *http.Request) bool {
	return r.URL.Query().Get("__frsh_build") != ""
}

// preload emits modulepreload links for the transitive imports of an entry so
// the browser starts fetching shared chunks before it parses the module.
func preload(w http.ResponseWriter, b *bundler.Bundler, rooted string) {
	if !strings.HasSuffix(rooted, ".js") {
		return
	}
	meta, err := bundler.ParseMetadata(b.Metafile())
	if err != nil {
		return
	}
	for _, dep := range meta.Dependencies(rooted) {
		if dep == rooted {
			continue
		}
		w.Header().Add("Link", "<"+dep+">; rel=\"modulepreload\"")
	}
}
