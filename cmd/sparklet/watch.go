package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/sparklet/pkg/adapters/lifecycle"
	"github.com/aretw0/sparklet/pkg/core"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made by other processes",
	Long: `Watch prints an event whenever another process changes the store,
followed by the refreshed note counts. Only the fs adapter supports it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend := openBackend(ctx)
		watchable, ok := backend.(core.Watchable)
		if !ok {
			closeBackend(backend)
			fatal("Cannot watch", errors.New("adapter does not support watching"))
		}

		events, err := watchable.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Failed to start watcher", err)
		}

		m := core.NewManager(backend, core.WithLogger(slog.Default()))
		defer closeManager(m)
		if _, err := m.Init(ctx); err != nil {
			fatal("Failed to load notes", err)
		}

		source := lifecycle.NewSource(events, m)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}

		fmt.Println("Watching for changes (Ctrl+C to stop)")
		for e := range source.Events() {
			if changed, ok := e.(lifecycle.NotesChanged); ok && changed.Err != nil {
				slog.Warn("reload failed", "change", changed.Change.String(), "error", changed.Err)
				continue
			}
			fmt.Println(e.String())
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Glob of store files to watch (default: the store file)")
	rootCmd.AddCommand(watchCmd)
}
