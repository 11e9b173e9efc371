package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aretw0/sparklet"
	"github.com/aretw0/sparklet/pkg/core"
)

var (
	cfgFile  string
	adapter  string
	dataPath string
	verbose  bool
	logFile  string

	// cfg is the merged configuration: file < environment < flags.
	cfg sparklet.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sparklet",
	Short: "A sticky-note store with a trash bin",
	Long: `Sparklet keeps short color-coded notes in a pluggable store.
Deleted notes go to the trash, where they can be restored or purged.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sparklet.LoadEnv(".env"); err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = defaultConfigPath()
		}
		loaded, err := sparklet.LoadConfig(path)
		if err != nil {
			return err
		}
		if err := loaded.ApplyEnv(); err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("adapter") {
			loaded.Adapter = adapter
		}
		if flags.Changed("path") {
			loaded.Path = dataPath
		}
		if flags.Changed("log-file") {
			loaded.LogFile = logFile
		}
		if loaded.Path == "" && isLocalAdapter(loaded.Adapter) {
			loaded.Path = filepath.Dir(path)
		}
		cfg = loaded

		slog.SetDefault(newLogger(verbose, cfg.LogFile))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: sparklet.yaml in the project root)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", sparklet.AdapterFS, "Storage adapter: fs, sqlite, memory, redis, bridge")
	rootCmd.PersistentFlags().StringVar(&dataPath, "path", "", "Data directory (fs, sqlite) or URL (redis, bridge)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotating file")
}

// defaultConfigPath is sparklet.yaml in the enclosing project root, or in
// the working directory when there is none.
func defaultConfigPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return sparklet.ConfigFileName
	}
	if root, err := sparklet.FindRoot(wd); err == nil {
		return filepath.Join(root, sparklet.ConfigFileName)
	}
	return filepath.Join(wd, sparklet.ConfigFileName)
}

func newLogger(verbose bool, file string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.Handler(slog.NewTextHandler(os.Stderr, opts))
	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		handler = slog.NewMultiHandler(handler, slog.NewJSONHandler(rotating, opts))
	}
	return slog.New(handler)
}

func storeOptions() []sparklet.Option {
	return append(cfg.Options(), sparklet.WithLogger(slog.Default()))
}

func openManager(ctx context.Context) *core.Manager {
	m, err := sparklet.New(ctx, cfg.Path, storeOptions()...)
	if err != nil {
		fatal("Failed to open store", err)
	}
	return m
}

func openBackend(ctx context.Context) core.Backend {
	b, err := sparklet.Open(ctx, cfg.Path, storeOptions()...)
	if err != nil {
		fatal("Failed to open store", err)
	}
	return b
}

func closeBackend(b core.Backend) {
	if c, ok := b.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
}

func isLocalAdapter(name string) bool {
	return name == "" || name == sparklet.AdapterFS || name == sparklet.AdapterSQLite
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatal("Failed to encode JSON", err)
	}
}

func describe(n core.Note) string {
	state := ""
	if n.IsDeleted {
		state = " (trash)"
	}
	return fmt.Sprintf("%s  %s  %s%s", n.ID, n.Color, n.Title, state)
}
