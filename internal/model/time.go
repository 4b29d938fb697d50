package model

import (
	"fmt"
	"strings"
	"time"
)

// timeLayouts are the timestamp formats the server is known to emit.
// The API serializes java.time.LocalDateTime without a zone offset, so
// plain RFC 3339 parsing is not enough.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Time wraps time.Time with lenient JSON decoding for the server's
// timestamp formats. Zoneless values are interpreted as UTC.
type Time struct {
	time.Time
}

// NewTime wraps a time.Time.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// UnmarshalJSON parses a JSON timestamp, accepting null and the empty
// string as the zero time.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timeLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON renders the timestamp as RFC 3339, or null when zero.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}
