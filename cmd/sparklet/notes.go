package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/sparklet/pkg/core"
)

var (
	listTrash bool
	listAll   bool
	listJSON  bool
	showJSON  bool

	newTitle   string
	newColor   string
	newContent string

	editTitle   string
	editContent string
	editColor   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		m := openManager(ctx)
		defer closeManager(m)

		var notes []core.Note
		var err error
		switch {
		case listAll:
			notes, err = m.GetAllNotes(ctx)
		case listTrash:
			notes, err = m.GetTrashNotes(ctx)
		default:
			notes, err = m.GetNotes(ctx)
		}
		if err != nil {
			fatal("Failed to list notes", err)
		}

		if listJSON {
			printJSON(notes)
			return
		}
		for _, n := range notes {
			fmt.Println(describe(n))
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a single note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		m := openManager(ctx)
		defer closeManager(m)

		n, ok, err := m.GetNoteByID(ctx, args[0])
		if err != nil {
			fatal("Failed to read note", err)
		}
		if !ok {
			fatal("Failed to read note", fmt.Errorf("note %s not found", args[0]))
		}

		if showJSON {
			printJSON(n)
			return
		}
		fmt.Println(describe(n))
		fmt.Printf("created %s, updated %s\n", n.CreatedAt, n.UpdatedAt)
		if n.DeletedAt != nil {
			fmt.Printf("deleted %s\n", n.DeletedAt)
		}
		if n.Content != "" {
			fmt.Println()
			fmt.Println(n.Content)
		}
	},
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		m := openManager(ctx)
		defer closeManager(m)

		n, err := m.CreateNote(ctx, newTitle, newColor)
		if err != nil {
			fatal("Failed to create note", err)
		}
		if newContent != "" {
			n, _, err = m.UpdateNote(ctx, n.ID, core.NotePatch{Content: &newContent})
			if err != nil {
				fatal("Failed to save content", err)
			}
		}
		fmt.Printf("Note created: %s\n", n.ID)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a note",
	Long: `Edit changes the title, content or color of a note. Only the flags
given are applied. An explicitly empty --title is replaced by the first
characters of the content.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		m := openManager(ctx)
		defer closeManager(m)

		flags := cmd.Flags()
		var patch core.NotePatch
		if flags.Changed("content") {
			patch.Content = &editContent
		}
		if flags.Changed("color") {
			patch.Color = &editColor
		}
		if flags.Changed("title") {
			content := editContent
			if patch.Content == nil {
				current, ok, err := m.GetNoteByID(ctx, args[0])
				if err != nil {
					fatal("Failed to read note", err)
				}
				if ok {
					content = current.Content
				}
			}
			title := core.DeriveTitle(editTitle, content)
			patch.Title = &title
		}
		if patch.Empty() {
			fatal("Nothing to edit", errors.New("pass --title, --content or --color"))
		}

		n, ok, err := m.UpdateNote(ctx, args[0], patch)
		if err != nil {
			fatal("Failed to update note", err)
		}
		if !ok {
			fatal("Failed to update note", fmt.Errorf("note %s not found", args[0]))
		}
		fmt.Printf("Note updated: %s\n", n.ID)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Move a note to the trash",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTransition(args[0], "moved to trash", (*core.Manager).DeleteNote)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Restore a note from the trash",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTransition(args[0], "restored", (*core.Manager).RestoreNote)
	},
}

func runTransition(id, done string, fn func(*core.Manager, context.Context, string) (bool, error)) {
	ctx := context.Background()
	m := openManager(ctx)
	defer closeManager(m)

	ok, err := fn(m, ctx, id)
	if err != nil {
		fatal("Failed to update note", err)
	}
	if !ok {
		fatal("Failed to update note", fmt.Errorf("note %s not found", id))
	}
	fmt.Printf("Note %s: %s\n", done, id)
}

func closeManager(m *core.Manager) {
	if err := m.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}

func init() {
	listCmd.Flags().BoolVar(&listTrash, "trash", false, "List notes in the trash")
	listCmd.Flags().BoolVar(&listAll, "all", false, "List active and trashed notes")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.MarkFlagsMutuallyExclusive("trash", "all")

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")

	newCmd.Flags().StringVar(&newTitle, "title", "", "Note title")
	newCmd.Flags().StringVar(&newColor, "color", "", "Note color, e.g. #4285f4")
	newCmd.Flags().StringVar(&newContent, "content", "", "Note content")

	editCmd.Flags().StringVar(&editTitle, "title", "", "New title (empty derives one from content)")
	editCmd.Flags().StringVar(&editContent, "content", "", "New content")
	editCmd.Flags().StringVar(&editColor, "color", "", "New color")

	rootCmd.AddCommand(listCmd, showCmd, newCmd, editCmd, deleteCmd, restoreCmd)
}

