// Package fresh bundles island components for the browser with esbuild and
// serves the result from memory. Construct an App once per process; the
// bundle is built lazily on first use and cached for the process lifetime.
package fresh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iceghost/fresh/internal/assets"
	"github.com/iceghost/fresh/internal/bundler"
	"github.com/iceghost/fresh/internal/engine"
	"github.com/iceghost/fresh/internal/importmap"
	"github.com/iceghost/fresh/internal/runtime"
)

// Island is one client-hydrated component.
type Island = bundler.Island

// Plugin contributes extra entry points to the bundle.
type Plugin = bundler.Plugin

// JSXConfig selects the JSX transform and its import source.
type JSXConfig = bundler.JSXConfig

const (
	// JSXTransform is the classic createElement transform.
	JSXTransform = bundler.JSXTransform
	// JSXAutomatic is the automatic JSX runtime.
	JSXAutomatic = bundler.JSXAutomatic
)

// Config describes an App. The zero value is usable: no islands, no plugins,
// no import map, dev mode from the FRESH_DEV environment variable.
type Config struct {
	Islands []Island
	Plugins []Plugin

	// ImportMapPath points at a deno-style import map json file. Empty means
	// no import map.
	ImportMapPath string

	JSX JSXConfig

	// Dev forces dev mode on. When false, FRESH_DEV=1 still enables it.
	Dev bool

	// BuildID stamps the bundle. Empty means a random id per process; pass a
	// content hash for stable ids across deploys.
	BuildID string

	// WorkingDir anchors relative island and plugin urls. Empty means the
	// process working directory.
	WorkingDir string
}

// App is a built-on-demand client bundle.
type App struct {
	bundler *bundler.Bundler
}

// New validates the configuration and returns an App. No build happens here;
// the first Handler request, File or EnsureBuilt call triggers it.
func New(cfg Config) (*App, error) {
	imports := importmap.Empty()
	if cfg.ImportMapPath != "" {
		loaded, err := importmap.Load(cfg.ImportMapPath)
		if err != nil {
			return nil, fmt.Errorf("fresh: load import map: %w", err)
		}
		imports = loaded
	}

	b, err := bundler.New(bundler.Config{
		Islands:    cfg.Islands,
		Plugins:    cfg.Plugins,
		ImportMap:  imports,
		JSX:        cfg.JSX,
		Dev:        cfg.Dev || runtime.IsDev(),
		BuildID:    cfg.BuildID,
		WorkingDir: cfg.WorkingDir,
	}, engine.NewEsbuild())
	if err != nil {
		return nil, err
	}

	return &App{bundler: b}, nil
}

// Handler serves the bundle outputs by rooted path, plus the build-id probe
// the dev runtime polls.
func (a *App) Handler() http.Handler {
	return assets.Handler(a.bundler)
}

// EnsureBuilt builds the bundle if it has not been built yet. Call it at
// startup to front-load the build instead of paying for it on the first
// request.
func (a *App) EnsureBuilt(ctx context.Context) error {
	return a.bundler.EnsureBuilt(ctx)
}

// File returns the compiled contents for a rooted output path such as
// /island-Counter.js, building first if needed. The boolean reports whether
// the path exists in the bundle.
func (a *App) File(ctx context.Context, path string) ([]byte, bool, error) {
	return a.bundler.File(ctx, path)
}

// Paths lists the output paths of the completed build.
func (a *App) Paths() []string {
	return a.bundler.Paths()
}

// BuildID returns the identifier stamped into this bundle.
func (a *App) BuildID() string {
	return a.bundler.BuildID()
}

// Metafile returns the engine's dependency metadata for the completed build.
func (a *App) Metafile() string {
	return a.bundler.Metafile()
}
