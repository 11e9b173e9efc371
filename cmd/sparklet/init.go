package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/sparklet"
	"github.com/aretw0/sparklet/pkg/core"
)

var noWelcome bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a Sparklet store",
	Long: `Init writes a sparklet.yaml for the current settings if none exists,
creates the store and adds a welcome note when the store is empty.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		root := cfg.Path
		if !isLocalAdapter(cfg.Adapter) {
			wd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			root = wd
		}
		if err := writeConfigIfMissing(filepath.Join(root, sparklet.ConfigFileName)); err != nil {
			fatal("Failed to write config", err)
		}

		m := openManager(ctx)
		defer closeManager(m)

		notes, err := m.Init(ctx)
		if err != nil {
			fatal("Failed to initialize store", err)
		}
		if len(notes) == 0 && !noWelcome {
			if _, err := m.CreateNote(ctx, core.WelcomeTitle, ""); err != nil {
				fatal("Failed to create welcome note", err)
			}
		}

		fmt.Printf("Store initialized (%s adapter)\n", adapterName())
	},
}

func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	out := cfg
	// The data directory is the config directory unless it differs.
	if isLocalAdapter(out.Adapter) && filepath.Clean(out.Path) == filepath.Dir(path) {
		out.Path = ""
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func adapterName() string {
	if cfg.Adapter == "" {
		return sparklet.AdapterFS
	}
	return cfg.Adapter
}

func init() {
	initCmd.Flags().BoolVar(&noWelcome, "no-welcome", false, "Do not create a welcome note")
	rootCmd.AddCommand(initCmd)
}
