package sparklet_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/sparklet"
	"github.com/aretw0/sparklet/pkg/core"
)

// Example_basic creates a note, moves it to the trash and restores it.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "sparklet-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	notes, err := sparklet.New(ctx, tmpDir)
	if err != nil {
		log.Fatal(err)
	}

	n, err := notes.CreateNote(ctx, "Groceries", "")
	if err != nil {
		log.Fatal(err)
	}

	if _, err := notes.DeleteNote(ctx, n.ID); err != nil {
		log.Fatal(err)
	}
	trash, _ := notes.GetTrashNotes(ctx)
	fmt.Printf("in trash: %d\n", len(trash))

	if _, err := notes.RestoreNote(ctx, n.ID); err != nil {
		log.Fatal(err)
	}
	active, _ := notes.GetNotes(ctx)
	fmt.Printf("active: %s (%s)\n", active[0].Title, active[0].Color)
	// Output:
	// in trash: 1
	// active: Groceries (#4285f4)
}

// Example_edit shows how an empty title is derived from the content.
func Example_edit() {
	ctx := context.Background()
	notes, err := sparklet.New(ctx, "", sparklet.WithAdapter(sparklet.AdapterMemory))
	if err != nil {
		log.Fatal(err)
	}

	n, _ := notes.CreateNote(ctx, "", "")
	content := "Pick up the dry cleaning before six"
	title := sparklet.DeriveTitle("", content)

	updated, _, err := notes.UpdateNote(ctx, n.ID, core.NotePatch{Title: &title, Content: &content})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(updated.Title)
	// Output:
	// Pick up the dry clea
}
