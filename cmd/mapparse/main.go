// mapparse parses Quake-family .map files and reports on their brush geometry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/internal/config"
	"github.com/Faultbox/brushmap/internal/loader"
	"github.com/Faultbox/brushmap/internal/logger"
)

// app is the state shared by all subcommands once flags are parsed.
type app struct {
	flags  *config.Flags
	cfg    *config.Config
	log    *zap.Logger
	loader *loader.Loader
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mapparse",
		Short: "Parse Quake .map files into brush polygons",
		Long: `mapparse reads Quake-family level editor files (Valve 220 and standard
formats), rebuilds the polygon of every brush face from its planes and
reports what it found. Sources may be plain files or entries inside a PAK
archive, written as pak0.pak:maps/e1m1.map.`,
		Version:       "0.3.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	a.flags = config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newInfoCmd(a),
		newDumpCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := cfg.Logging.LoggerOptions()
	opts.Console = cmd.ErrOrStderr()
	if err := logger.InitWithOptions(opts); err != nil {
		return err
	}
	a.log = logger.Named("mapparse")
	a.loader = loader.New(cfg, logger.Named("loader"))
	a.log.Debug("config loaded",
		zap.Float64("epsilon", cfg.Geometry.Epsilon),
		zap.Int("digits", cfg.Geometry.SignificantDigits),
		zap.Int("workers", cfg.Parser.Workers),
		zap.String("encoding", cfg.Parser.Encoding))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
