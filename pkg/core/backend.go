package core

import "context"

// NotesKey is the single storage key holding the whole notes collection.
const NotesKey = "sparkletNotes"

// Backend defines the contract for persisting values by key.
// Adhering to this interface allows the core to be independent of the
// underlying storage mechanism (JSON file, SQLite, Redis, a bridged process).
type Backend interface {
	// Read returns the value stored under key. found is false when the key
	// was never written or the store is empty.
	Read(ctx context.Context, key string) (value []byte, found bool, err error)

	// Write durably stores value under key, replacing any prior value.
	Write(ctx context.Context, key string, value []byte) error
}

// Initializer is implemented by backends that need setup before first use
// (create directories, schema, ping).
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Clearer is implemented by backends that can drop every key they hold.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Watchable is implemented by backends that can report changes made
// outside this process.
type Watchable interface {
	// Watch emits an Event for every external change matching pattern.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the store.
type Event struct {
	Type      EventType
	ID        string // store name or key that changed
	Timestamp int64  // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
