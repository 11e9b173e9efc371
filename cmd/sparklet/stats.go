package main

import (
	"context"
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

var statsState bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show note counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		m := openManager(ctx)
		defer closeManager(m)

		s, err := m.Stats(ctx)
		if err != nil {
			fatal("Failed to read notes", err)
		}

		if statsState {
			state := map[string]any{"stats": s}
			for _, c := range []any{m, m.Backend()} {
				comp, ok := c.(introspection.Component)
				if !ok {
					continue
				}
				if in, ok := c.(introspection.Introspectable); ok {
					state[comp.ComponentType()] = in.State()
				}
			}
			printJSON(state)
			return
		}

		fmt.Printf("active: %d\ntrash:  %d\ntotal:  %d\n", s.Active, s.Trash, s.Total)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsState, "state", false, "Dump component state as JSON")
	rootCmd.AddCommand(statsCmd)
}
