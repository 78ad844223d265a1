// Package engine wraps esbuild as the bundling engine. All module
// resolution, transformation and code generation happens inside esbuild;
// this package pins the build configuration and adapts inputs and outputs.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/iceghost/fresh/internal/bundler"
)

// browserTargets is the evergreen baseline every bundle is compiled for.
var browserTargets = []api.Engine{
	{Name: api.EngineChrome, Version: "99"},
	{Name: api.EngineEdge, Version: "99"},
	{Name: api.EngineFirefox, Version: "99"},
	{Name: api.EngineSafari, Version: "15"},
}

// warmupGate spins up esbuild's internal service once per process. esbuild
// shares that service across builds, so all Esbuild values use one gate.
var warmupGate = NewGate(warmup)

func warmup(ctx context.Context) error {
	result := api.Transform("export {}", api.TransformOptions{
		Loader: api.LoaderTS,
	})
	if len(result.Errors) > 0 {
		return fmt.Errorf("engine: warm-up transform failed: %s", formatMessages(result.Errors))
	}
	log.Debug().Msg("esbuild engine initialized")
	return nil
}

// Esbuild implements bundler.Engine on top of the esbuild API.
type Esbuild struct {
	gate *Gate
}

// NewEsbuild returns an engine backed by the process-wide warm-up gate.
func NewEsbuild() *Esbuild {
	return NewEsbuildWithGate(warmupGate)
}

// NewEsbuildWithGate returns an engine that initializes through the supplied
// gate. Callers that want initialization scoped narrower than the process
// inject their own.
func NewEsbuildWithGate(gate *Gate) *Esbuild {
	return &Esbuild{gate: gate}
}

// Bundle runs one esbuild pass over the job's entry points and captures the
// outputs in memory. The configuration is fixed apart from the dev/JSX knobs
// carried by the job.
func (e *Esbuild) Bundle(ctx context.Context, job bundler.Job) (*bundler.Result, error) {
	if err := e.gate.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("engine: initialize: %w", err)
	}

	names := make([]string, 0, len(job.Entrypoints))
	for name := range job.Entrypoints {
		names = append(names, name)
	}
	sort.Strings(names)

	entryPoints := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  job.Entrypoints[name],
			OutputPath: name,
		})
	}

	sourcemap := api.SourceMapNone
	if job.Dev {
		sourcemap = api.SourceMapLinked
	}

	jsx := api.JSXTransform
	if job.JSX.Mode == bundler.JSXAutomatic {
		jsx = api.JSXAutomatic
	}

	result := api.Build(api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		Bundle:              true,
		Splitting:           true,
		TreeShaking:         api.TreeShakingTrue,
		Format:              api.FormatESModule,
		Outdir:              ".",
		AbsWorkingDir:       job.WorkingDir,
		Write:               false,
		Metafile:            true,
		Platform:            api.PlatformNeutral,
		Engines:             browserTargets,

		// Dev keeps identifier names readable in devtools; syntax and
		// whitespace are minified in both modes.
		MinifySyntax:      true,
		MinifyWhitespace:  true,
		MinifyIdentifiers: !job.Dev,

		Sourcemap:       sourcemap,
		JSX:             jsx,
		JSXImportSource: job.JSX.ImportSource,
		LogLevel:        api.LogLevelSilent,

		Plugins: []api.Plugin{
			buildIDPlugin(job.BuildID),
			runtimeModulesPlugin(job.WorkingDir),
			importMapPlugin(job.ImportMap, job.WorkingDir),
			remoteModulesPlugin(ctx),
		},
	})

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("engine: build failed: %s", formatMessages(result.Errors))
	}

	files := make([]bundler.OutputFile, 0, len(result.OutputFiles))
	for _, file := range result.OutputFiles {
		files = append(files, bundler.OutputFile{
			Path:     file.Path,
			Contents: file.Contents,
		})
	}

	return &bundler.Result{
		Files:    files,
		Metafile: result.Metafile,
	}, nil
}

func formatMessages(messages []api.Message) string {
	formatted := api.FormatMessages(messages, api.FormatMessagesOptions{
		Kind: api.ErrorMessage,
	})
	return strings.TrimSpace(strings.Join(formatted, "\n"))
}
