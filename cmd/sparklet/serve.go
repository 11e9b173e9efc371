package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/sparklet"
	"github.com/aretw0/sparklet/pkg/adapters/bridge"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store to other processes over HTTP",
	Long: `Serve exposes the configured store through the bridge protocol so that
a process started with --adapter bridge can use it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.Adapter == sparklet.AdapterBridge {
			fatal("Cannot serve", errors.New("the bridge adapter cannot be served"))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend := openBackend(ctx)
		defer closeBackend(backend)

		if err := bridge.NewServer(backend, slog.Default()).Run(ctx, serveAddr); err != nil {
			fatal("Bridge server failed", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7878", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
