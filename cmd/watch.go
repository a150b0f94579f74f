package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/lambsat/formatter"
	"github.com/gnolang/lambsat/internal"
	tt "github.com/gnolang/lambsat/internal/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-simplify .lam files whenever they are written",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		engine, err := newEngine()
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		w, err := internal.NewWatcher(engine, args, logger, printWatchResult)
		if err != nil {
			logger.Fatal("Failed to create watcher", zap.Error(err))
		}
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		fmt.Printf("Watching %v for changes to %s files\n", args, internal.SourceExt)

		<-ctx.Done()
		if err := w.Stop(); err != nil {
			logger.Error("Error stopping watcher", zap.Error(err))
		}
	},
}

func printWatchResult(res *tt.Result, err error) {
	if err != nil {
		fmt.Print(formatter.FormatError("watch", err))
		return
	}
	fmt.Print(formatter.FormatResult(res))
}
