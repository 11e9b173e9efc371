package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultTitle is used when a note is created without a title.
	DefaultTitle = "新笔记"
	// WelcomeTitle is the title of the note created on an empty first run.
	WelcomeTitle = "我的第一个笔记"
	// DefaultColor is the color tag of a note created without one.
	DefaultColor = "#4285f4"

	// derivedTitleLength is how many runes of content become a title.
	derivedTitleLength = 20
)

// TimestampLayout is the ISO-8601 layout used for persisted timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant with millisecond precision that encodes as an
// ISO-8601 string.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC milliseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// fallbackLayouts are tried after RFC 3339 when decoding stored timestamps.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.DateTime,
	time.DateOnly,
}

// UnmarshalJSON implements json.Unmarshaler. RFC 3339 strings, zone-less
// date-times (read as UTC) and epoch milliseconds are accepted. Null and the
// empty string decode to the zero Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		var ms json.Number
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("timestamp must be a string or number: %w", err)
		}
		n, err := ms.Int64()
		if err != nil {
			return fmt.Errorf("invalid epoch timestamp %s: %w", ms, err)
		}
		*t = NewTimestamp(time.UnixMilli(n))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		*t = NewTimestamp(parsed)
		return nil
	}
	for _, layout := range fallbackLayouts {
		if p, perr := time.Parse(layout, s); perr == nil {
			*t = NewTimestamp(p)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q: %w", s, err)
}

// Note is the central entity of the domain.
// Field names match the persisted layout.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Color     string     `json:"color"`
	CreatedAt Timestamp  `json:"createdAt"`
	UpdatedAt Timestamp  `json:"updatedAt"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *Timestamp `json:"deletedAt"`
}

// clone returns a copy that shares no pointers with n.
func (n Note) clone() Note {
	if n.DeletedAt != nil {
		d := *n.DeletedAt
		n.DeletedAt = &d
	}
	return n
}

// NotePatch carries the mutable fields of an update. Nil fields are left
// untouched.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Color   *string `json:"color,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Color == nil
}

func (p NotePatch) apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
}

// DeriveTitle returns title trimmed, or the first runes of content when the
// title is blank, or DefaultTitle when both are empty.
func DeriveTitle(title, content string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if content == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(content) <= derivedTitleLength {
		return content
	}
	return string([]rune(content)[:derivedTitleLength])
}
