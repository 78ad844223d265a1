// Package bundler orchestrates the client bundle: it assembles entry points
// from islands and plugins, hands them to the bundling engine once, and keeps
// the output files in memory keyed by rooted output path.
package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iceghost/fresh/internal/importmap"
)

// Island is one client-hydrated component. Each island becomes its own entry
// point named island-<ID>.
type Island struct {
	ID  string
	URL string
}

// Plugin contributes extra entry points, named plugin-<Name>-<entry>.
type Plugin struct {
	Name        string
	Entrypoints map[string]string
}

// JSXMode selects how the engine lowers JSX.
type JSXMode int

const (
	// JSXTransform is the classic createElement transform ("react").
	JSXTransform JSXMode = iota
	// JSXAutomatic is the automatic runtime ("react-jsx").
	JSXAutomatic
)

// JSXConfig carries the JSX mode and the optional import source override used
// by the automatic runtime.
type JSXConfig struct {
	Mode         JSXMode
	ImportSource string
}

// Job is everything the engine needs for one build.
type Job struct {
	Entrypoints map[string]string
	WorkingDir  string
	ImportMap   *importmap.Map
	JSX         JSXConfig
	Dev         bool
	BuildID     string
}

// OutputFile is a single compiled file, with the absolute path the engine
// wrote it under (virtually; nothing touches disk).
type OutputFile struct {
	Path     string
	Contents []byte
}

// Result is the engine's output for one build.
type Result struct {
	Files    []OutputFile
	Metafile string
}

// Engine runs one bundling pass. Implementations own module resolution,
// transformation and code generation; the bundler only orchestrates.
type Engine interface {
	Bundle(ctx context.Context, job Job) (*Result, error)
}

// Config holds the immutable inputs of a Bundler.
type Config struct {
	Islands    []Island
	Plugins    []Plugin
	ImportMap  *importmap.Map
	JSX        JSXConfig
	Dev        bool
	BuildID    string
	WorkingDir string
}

type state int

const (
	stateUnbuilt state = iota
	stateBuilding
	stateReady
)

// inflight is one build attempt. Waiters block on done and read err after.
type inflight struct {
	done chan struct{}
	err  error
}

// Bundler builds at most once per instance and serves the cached outputs.
// Safe for concurrent use.
type Bundler struct {
	islands    []Island
	plugins    []Plugin
	imports    *importmap.Map
	jsx        JSXConfig
	dev        bool
	buildID    string
	workingDir string
	engine     Engine

	mu       sync.Mutex
	state    state
	building *inflight
	files    map[string][]byte
	metafile string
}

// New validates the configuration and returns an unbuilt Bundler. Duplicate
// island ids are a configuration error, not a last-write-wins merge.
func New(cfg Config, engine Engine) (*Bundler, error) {
	if engine == nil {
		return nil, fmt.Errorf("bundler: engine is required")
	}

	seen := make(map[string]struct{}, len(cfg.Islands))
	for _, island := range cfg.Islands {
		if island.ID == "" {
			return nil, fmt.Errorf("bundler: island with url %q has no id", island.URL)
		}
		if island.URL == "" {
			return nil, fmt.Errorf("bundler: island %q has no source url", island.ID)
		}
		if _, dup := seen[island.ID]; dup {
			return nil, fmt.Errorf("bundler: duplicate island id %q", island.ID)
		}
		seen[island.ID] = struct{}{}
	}

	for _, plugin := range cfg.Plugins {
		if plugin.Name == "" {
			return nil, fmt.Errorf("bundler: plugin with no name")
		}
	}

	imports := cfg.ImportMap
	if imports == nil {
		imports = importmap.Empty()
	}

	buildID := cfg.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}

	workingDir := cfg.WorkingDir
	if workingDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("bundler: resolve working directory: %w", err)
		}
		workingDir = cwd
	}

	return &Bundler{
		islands:    cfg.Islands,
		plugins:    cfg.Plugins,
		imports:    imports,
		jsx:        cfg.JSX,
		dev:        cfg.Dev,
		buildID:    buildID,
		workingDir: workingDir,
		engine:     engine,
	}, nil
}

// BuildID returns the identifier baked into this bundle.
func (b *Bundler) BuildID() string {
	return b.buildID
}

// EnsureBuilt runs the build if it has not run yet. Concurrent callers share
// a single physical build; everyone waiting on an attempt gets its error.
// A failed attempt resets the slot so a later call retries; a completed build
// is permanent.
func (b *Bundler) EnsureBuilt(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case stateReady:
		b.mu.Unlock()
		return nil
	case stateBuilding:
		attempt := b.building
		b.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	attempt := &inflight{done: make(chan struct{})}
	b.state = stateBuilding
	b.building = attempt
	b.mu.Unlock()

	start := time.Now()
	files, metafile, err := b.build(ctx)

	b.mu.Lock()
	b.building = nil
	if err != nil {
		b.state = stateUnbuilt
	} else {
		b.state = stateReady
		b.files = files
		b.metafile = metafile
		log.Debug().
			Int("files", len(files)).
			Dur("elapsed", time.Since(start)).
			Str("build_id", b.buildID).
			Msg("bundle ready")
	}
	b.mu.Unlock()

	attempt.err = err
	close(attempt.done)
	return err
}

// File returns the compiled contents for a rooted output path such as
// /island-Counter.js. A missing path is not an error: the boolean is the
// explicit not-found signal. The error reports build failures only.
func (b *Bundler) File(ctx context.Context, path string) ([]byte, bool, error) {
	if err := b.EnsureBuilt(ctx); err != nil {
		return nil, false, err
	}

	b.mu.Lock()
	contents, ok := b.files[path]
	b.mu.Unlock()
	return contents, ok, nil
}

// Paths lists the cached output paths. Empty until the build has completed.
func (b *Bundler) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := make([]string, 0, len(b.files))
	for path := range b.files {
		paths = append(paths, path)
	}
	return paths
}

// Metafile returns the engine's dependency metadata for the completed build,
// or "" if no build has completed.
func (b *Bundler) Metafile() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metafile
}

func (b *Bundler) build(ctx context.Context) (map[string][]byte, string, error) {
	job := Job{
		Entrypoints: b.entrypoints(),
		WorkingDir:  b.workingDir,
		ImportMap:   b.imports,
		JSX:         b.jsx,
		Dev:         b.dev,
		BuildID:     b.buildID,
	}

	log.Debug().
		Int("entrypoints", len(job.Entrypoints)).
		Bool("dev", job.Dev).
		Str("build_id", job.BuildID).
		Msg("starting bundle")

	result, err := b.engine.Bundle(ctx, job)
	if err != nil {
		return nil, "", fmt.Errorf("bundler: build failed: %w", err)
	}

	files := make(map[string][]byte, len(result.Files))
	for _, file := range result.Files {
		files[outputKey(b.workingDir, file.Path)] = file.Contents
	}
	return files, result.Metafile, nil
}

// outputKey rewrites an absolute engine output path to a forward-slash-rooted
// key relative to the build working directory, independent of host OS path
// conventions: /abs/work/island-Counter.js -> /island-Counter.js.
func outputKey(workingDir, path string) string {
	rel, err := filepath.Rel(workingDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return "/" + filepath.ToSlash(rel)
}
