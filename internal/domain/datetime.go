package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// parseLayouts lists the text forms accepted from drivers and clients.
var parseLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

// DateTime is a timezone-less timestamp as stored in the scores table.
//
// It renders as "YYYY-MM-DD HH:MM:SS" with a fractional part only when the
// sub-second component is non-zero, using 3, 6 or 9 digits (the shortest
// exact precision).
type DateTime struct {
	time.Time
}

// String formats t in the naive date-time form.
func (t DateTime) String() string {
	var b strings.Builder
	b.WriteString(t.Time.Format(dateTimeLayout))
	ns := t.Time.Nanosecond()
	switch {
	case ns == 0:
	case ns%1_000_000 == 0:
		fmt.Fprintf(&b, ".%03d", ns/1_000_000)
	case ns%1_000 == 0:
		fmt.Fprintf(&b, ".%06d", ns/1_000)
	default:
		fmt.Fprintf(&b, ".%09d", ns)
	}
	return b.String()
}

// MarshalJSON encodes t as a JSON string.
func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts any layout in parseLayouts.
func (t *DateTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("datetime: %w", err)
	}
	parsed, err := parseDateTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Scan implements sql.Scanner for time.Time, string and []byte values.
func (t *DateTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v
	case string:
		parsed, err := parseDateTime(v)
		if err != nil {
			return err
		}
		t.Time = parsed
	case []byte:
		parsed, err := parseDateTime(string(v))
		if err != nil {
			return err
		}
		t.Time = parsed
	default:
		return fmt.Errorf("datetime: cannot scan %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (t DateTime) Value() (driver.Value, error) {
	return t.Time, nil
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("datetime: unrecognized format %q", s)
}
