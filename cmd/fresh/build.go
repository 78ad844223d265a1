package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iceghost/fresh"
	"github.com/iceghost/fresh/internal/cli"
)

var flagOutDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Bundle once and write the outputs to disk",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&flagOutDir, "out", "dist",
		"output directory for the compiled bundle")
}

// discoverIslands maps every *.ts/*.tsx file directly under dir to an island
// whose id is the file name without extension.
func discoverIslands(dir string) ([]fresh.Island, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read islands directory: %w", err)
	}

	var islands []fresh.Island
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".ts" && ext != ".tsx" {
			continue
		}
		islands = append(islands, fresh.Island{
			ID:  strings.TrimSuffix(name, ext),
			URL: "./" + filepath.ToSlash(filepath.Join(dir, name)),
		})
	}
	sort.Slice(islands, func(i, j int) bool { return islands[i].ID < islands[j].ID })
	return islands, nil
}

func newApp() (*fresh.App, error) {
	islands, err := discoverIslands(flagIslandsDir)
	if err != nil {
		return nil, err
	}

	jsx := fresh.JSXConfig{Mode: fresh.JSXTransform}
	if flagJSXSource != "" {
		jsx = fresh.JSXConfig{Mode: fresh.JSXAutomatic, ImportSource: flagJSXSource}
	}

	return fresh.New(fresh.Config{
		Islands:       islands,
		ImportMapPath: flagImportMap,
		JSX:           jsx,
		Dev:           flagDev,
		BuildID:       flagBuildID,
	})
}

func runBuild(cmd *cobra.Command, args []string) error {
	cli.PrintHeader("fresh build")

	app, err := newApp()
	if err != nil {
		cli.PrintError("configuration: %v", err)
		return err
	}

	spinner := cli.NewSpinner("bundling")
	spinner.Start()
	err = app.EnsureBuilt(cmd.Context())
	spinner.Stop()
	if err != nil {
		cli.PrintError("bundle failed: %v", err)
		return err
	}

	paths := app.Paths()
	sort.Strings(paths)

	cli.PrintStep(cli.EmojiPackage, "writing %d files to %s", len(paths), flagOutDir)
	for _, rooted := range paths {
		contents, ok, err := app.File(cmd.Context(), rooted)
		if err != nil || !ok {
			return fmt.Errorf("read bundle output %s: %w", rooted, err)
		}

		target := filepath.Join(flagOutDir, filepath.FromSlash(strings.TrimPrefix(rooted, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, contents, 0o644); err != nil {
			return err
		}
		cli.PrintFile(target)
	}

	cli.PrintDone("bundle %s ready", app.BuildID())
	return nil
}
