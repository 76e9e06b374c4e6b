package item

import (
	"fmt"
	"time"
)

// Time wraps time.Time with the item-stream date/time encoding (§4.4): on
// write, full-precision microseconds plus numeric UTC offset; on read,
// also the two legacy forms produced by earlier revisions of the archiver.
type Time struct {
	time.Time
}

// writeLayout is always used on write, per the Open Questions resolution in
// §9 ("Specify... the timestamp as the full-precision form on write").
const writeLayout = "2006-01-02T15:04:05.000000-07:00"

// readLayouts are tried in order when parsing: the write layout first, then
// the two legacy forms that must still be accepted (§4.4, §9).
var readLayouts = []string{
	writeLayout,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// NewTime wraps t, normalizing it to UTC as save_file does when capturing
// mtime (§4.3).
func NewTime(t time.Time) Time {
	return Time{t.UTC()}
}

// ParseTime parses s using the current format or either legacy form.
func ParseTime(s string) (Time, error) {
	var firstErr error
	for _, layout := range readLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Time{t}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Time{}, fmt.Errorf("item: unrecognized mtime %q: %w", s, firstErr)
}

// String renders t in the write layout.
func (t Time) String() string {
	return t.UTC().Format(writeLayout)
}

// MarshalJSON renders the timestamp as a JSON string in the write layout.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses a JSON string timestamp, accepting legacy forms.
func (t *Time) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("item: expected JSON string for time, got %q", data)
	}
	parsed, err := ParseTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
