package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewNoteID returns an id of the form note_<unix-ms>_<8 hex chars>.
// The random suffix comes from a v4 UUID, so ids minted in the same
// millisecond still differ with overwhelming probability.
func NewNoteID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "note_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix
}
