package core

import (
	"bytes"
	"encoding/json"
)

// salvageNote decodes a stored element that does not fit Note cleanly.
// Fields are read one by one and anything unreadable is left empty.
// Only values that are not JSON objects are rejected.
func salvageNote(raw json.RawMessage) (Note, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Note{}, false
	}

	n := Note{
		ID:        looseString(fields["id"]),
		Title:     looseString(fields["title"]),
		Content:   looseString(fields["content"]),
		Color:     looseString(fields["color"]),
		CreatedAt: looseTimestamp(fields["createdAt"]),
		UpdatedAt: looseTimestamp(fields["updatedAt"]),
	}
	if v, ok := fields["isDeleted"]; ok {
		_ = json.Unmarshal(v, &n.IsDeleted)
	}
	if d := looseTimestamp(fields["deletedAt"]); !d.IsZero() {
		n.DeletedAt = &d
	}
	return n, true
}

// looseString reads a string, or keeps the literal text of a number or
// boolean. Anything else yields "".
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var scalar any
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return ""
	}
	switch scalar.(type) {
	case float64, bool:
		return string(raw)
	}
	return ""
}

func looseTimestamp(raw json.RawMessage) Timestamp {
	var t Timestamp
	if len(raw) == 0 || json.Unmarshal(raw, &t) != nil {
		return Timestamp{}
	}
	return t
}

// repair restores the invariants a hydrated note must hold and reports
// whether anything changed.
func (n *Note) repair(now Timestamp, newID func() string) bool {
	changed := false
	if n.ID == "" {
		n.ID = newID()
		changed = true
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.UpdatedAt
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		changed = true
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
		changed = true
	}
	switch {
	case n.IsDeleted && n.DeletedAt == nil:
		d := n.UpdatedAt
		n.DeletedAt = &d
		changed = true
	case !n.IsDeleted && n.DeletedAt != nil:
		n.DeletedAt = nil
		changed = true
	}
	return changed
}
