package models

import (
	"fmt"
	"time"
)

// TimestampLayout is the layout of every timestamp the backend sends.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	dateLayout    = "02 Jan 2006"
	createdLayout = "02 Jan 2006 at 15:04"

	InvalidDate = "Invalid date format"
	Unknown     = "Unknown"
	NotBought   = "Not bought"
)

// ParseTimestamp parses a backend timestamp. RFC 3339 values without the
// fixed millisecond part are accepted as well.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

// FormatDate renders a timestamp as "02 Jan 2006".
func FormatDate(s string) string {
	t, err := ParseTimestamp(s)
	if err != nil {
		return InvalidDate
	}
	return t.Format(dateLayout)
}

// FormatCreated renders a timestamp as "02 Jan 2006 at 15:04".
func FormatCreated(s string) string {
	t, err := ParseTimestamp(s)
	if err != nil {
		return Unknown
	}
	return t.Format(createdLayout)
}

// FormatMoney renders an amount as dollars with two decimals.
func FormatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
