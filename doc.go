// Package sparklet is the composition root for the Sparklet note store.
//
// It wires the storage manager in pkg/core to a persistence adapter chosen
// by name: a JSON file (default), SQLite, Redis, process memory, or a
// remote bridge server.
//
// Notes are soft-deleted into a trash and can be restored or purged. The
// manager keeps the whole collection in memory and writes it through to
// the backend after every mutation.
//
// Usage:
//
//	notes, err := sparklet.New(ctx, "./data", sparklet.WithLogger(logger))
//	n, err := notes.CreateNote(ctx, "", "")
//	_, err = notes.DeleteNote(ctx, n.ID)
//	trash, err := notes.GetTrashNotes(ctx)
package sparklet
