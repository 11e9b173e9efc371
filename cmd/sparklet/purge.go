package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge [id]",
	Short: "Permanently delete a note",
	Long:  `Purge removes a note from the store for good. It cannot be restored.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		out := cmd.OutOrStdout()
		ctx := context.Background()
		m := openManager(ctx)
		defer closeManager(m)

		n, ok, err := m.GetNoteByID(ctx, id)
		if err != nil {
			fatal("Failed to read note", err)
		}
		if !ok {
			fmt.Fprintf(out, "Note %s does not exist, nothing to purge\n", id)
			return
		}

		if !purgeYes {
			fmt.Fprintf(out, "Permanently delete %q (%s)? [y/N] ", n.Title, id)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Fprintln(out, "Aborted")
				return
			}
		}

		if _, err := m.PermanentlyDeleteNote(ctx, id); err != nil {
			fatal("Failed to purge note", err)
		}
		fmt.Fprintf(out, "Note purged: %s\n", id)
	},
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(purgeCmd)
}
