package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/internal/loader"
	"github.com/Faultbox/brushmap/internal/logger"
	"github.com/Faultbox/brushmap/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-parse map files whenever they are saved",
		Long: `watch parses each file once, then again every time it changes on disk,
printing a one-line summary per parse. Archive entries cannot be watched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, source := range args {
				if _, _, ok := loader.SplitSource(source); ok {
					return fmt.Errorf("cannot watch archive entry %s", source)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fw, err := watcher.New(debounce, logger.Named("watcher"))
			if err != nil {
				return err
			}
			defer fw.Close()

			parse := func(source string) {
				res, err := a.loader.Load(ctx, source)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s  %v\n", time.Now().Format("15:04:05"), err)
					return
				}
				s := res.Stats
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %d entities, %d brushes, %d polygons, %d degenerate (%v)\n",
					time.Now().Format("15:04:05"), source, s.Entities, s.Brushes, s.Polygons, s.Degenerate,
					res.Elapsed.Round(time.Microsecond))
			}

			for _, source := range args {
				parse(source)
			}
			if err := fw.Watch(args, parse); err != nil {
				return err
			}

			a.log.Info("watching for changes", zap.Strings("files", args))
			if err := fw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before re-parsing")
	return cmd
}
