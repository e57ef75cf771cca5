package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a ledger calendar date held as UTC midnight. It accepts 2025-03-01
// or an RFC 3339 timestamp; a timestamp keeps the calendar date of its own
// offset, so 2025-03-31T23:30:00-05:00 is March 31st. It marshals as RFC 3339.
type Date struct {
	time.Time
}

// NewDate wraps t, normalised to UTC.
func NewDate(t time.Time) Date { return Date{Time: t.UTC()} }

// ParseDate parses the formats accepted by Date.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		y, m, d := t.Date()
		return NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return NewDate(t), nil
}

// MustDate is ParseDate for literals in tests and seed data.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}
