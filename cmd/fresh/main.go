// Command fresh bundles island components ahead of time or serves them from
// a dev server.
package main

import (
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagIslandsDir string
	flagImportMap  string
	flagDev        bool
	flagBuildID    string
	flagJSXSource  string
)

var rootCmd = &cobra.Command{
	Use:          "fresh",
	Short:        "Bundle island components with esbuild",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if flagDev {
			level = zerolog.DebugLevel
		}
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagIslandsDir, "islands", "islands",
		"directory scanned for island entry points (*.ts, *.tsx)")
	rootCmd.PersistentFlags().StringVar(&flagImportMap, "import-map", "",
		"path to a deno-style import map json file")
	rootCmd.PersistentFlags().BoolVar(&flagDev, "dev", false,
		"dev mode: readable output, sourcemaps, live-reload runtime")
	rootCmd.PersistentFlags().StringVar(&flagBuildID, "build-id", "",
		"bundle identifier (default: random per invocation)")
	rootCmd.PersistentFlags().StringVar(&flagJSXSource, "jsx-import-source", "",
		"import source for the automatic JSX runtime")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
