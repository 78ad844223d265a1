package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/iceghost/fresh/internal/importmap"
	fresh_runtime "github.com/iceghost/fresh/internal/runtime"
)

const (
	runtimeNamespace = "fresh-runtime"
	remoteNamespace  = "fresh-remote"
)

// buildIDPlugin intercepts exactly the runtime build-id module and replaces
// it with a literal export of the supplied id. Registered ahead of the
// generic runtime loader so the interception wins; nothing else is touched.
func buildIDPlugin(buildID string) api.Plugin {
	return api.Plugin{
		Name: "fresh-build-id",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{
				Filter:    `^fresh-runtime:build-id$`,
				Namespace: runtimeNamespace,
			}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				contents := fmt.Sprintf("export const BUILD_ID = %q;", buildID)
				return api.OnLoadResult{
					Contents: &contents,
					Loader:   api.LoaderTS,
				}, nil
			})
		},
	}
}

// runtimeModulesPlugin serves the embedded client runtime sources under the
// fresh-runtime: scheme.
func runtimeModulesPlugin(workingDir string) api.Plugin {
	return api.Plugin{
		Name: "fresh-runtime",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{
				Filter: `^fresh-runtime:`,
			}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return api.OnResolveResult{
					Path:      args.Path,
					Namespace: runtimeNamespace,
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{
				Filter:    `.*`,
				Namespace: runtimeNamespace,
			}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				source, ok := fresh_runtime.Source(args.Path)
				if !ok {
					return api.OnLoadResult{}, fmt.Errorf("unknown runtime module %q", args.Path)
				}
				return api.OnLoadResult{
					Contents:   &source,
					Loader:     api.LoaderTS,
					ResolveDir: workingDir,
				}, nil
			})
		},
	}
}

// importMapPlugin resolves bare specifiers through the supplied import map.
// Specifiers the map does not cover fall through to esbuild's own resolver.
func importMapPlugin(imports *importmap.Map, workingDir string) api.Plugin {
	return api.Plugin{
		Name: "fresh-import-map",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{
				Filter: `.*`,
			}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if !isBareSpecifier(args.Path) {
					return api.OnResolveResult{}, nil
				}
				target, ok := imports.Resolve(args.Path)
				if !ok {
					return api.OnResolveResult{}, nil
				}
				if importmap.IsRemote(target) {
					return api.OnResolveResult{
						Path:      target,
						Namespace: remoteNamespace,
					}, nil
				}
				if !filepath.IsAbs(target) {
					target = filepath.Join(workingDir, target)
				}
				return api.OnResolveResult{Path: target}, nil
			})
		},
	}
}

func isBareSpecifier(specifier string) bool {
	if specifier == "" {
		return false
	}
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		return false
	}
	if fresh_runtime.IsModule(specifier) {
		return false
	}
	if strings.Contains(specifier, "://") {
		return false
	}
	return true
}

// remoteModulesPlugin fetches http(s) modules the import map points at, and
// resolves their relative imports against the importing URL.
func remoteModulesPlugin(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: "fresh-remote-modules",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{
				Filter: `^https?://`,
			}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				u, err := url.Parse(args.Path)
				if err != nil {
					return api.OnResolveResult{}, err
				}
				return api.OnResolveResult{
					Path:      u.String(),
					Namespace: remoteNamespace,
				}, nil
			})

			build.OnResolve(api.OnResolveOptions{
				Filter:    `.*`,
				Namespace: remoteNamespace,
			}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				base, err := url.Parse(args.Importer)
				if err != nil {
					return api.OnResolveResult{}, err
				}
				resolved, err := base.Parse(args.Path)
				if err != nil {
					return api.OnResolveResult{}, err
				}
				return api.OnResolveResult{
					Path:      resolved.String(),
					Namespace: remoteNamespace,
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{
				Filter:    `.*`,
				Namespace: remoteNamespace,
			}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				log.Debug().Str("url", args.Path).Msg("fetching remote module")

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.Path, nil)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				defer resp.Body.Close()

				body, err := io.ReadAll(resp.Body)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				if resp.StatusCode != http.StatusOK {
					return api.OnLoadResult{}, fmt.Errorf("fetch %s: status %d", args.Path, resp.StatusCode)
				}

				contents := string(body)
				return api.OnLoadResult{
					Contents: &contents,
					Loader:   remoteLoader(args.Path),
				}, nil
			})
		},
	}
}

func remoteLoader(rawURL string) api.Loader {
	u, err := url.Parse(rawURL)
	if err != nil {
		return api.LoaderJS
	}
	switch path.Ext(u.Path) {
	case ".ts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderJS
	}
}
