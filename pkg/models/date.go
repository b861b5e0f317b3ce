package models

import (
	"strconv"
	"time"
)

// UnknownDateLabel is the sentinel used when an event has neither a date nor a year
const UnknownDateLabel = "unknown"

// EventDateFormat is the wire format for event dates
const EventDateFormat = "2006-01-02"

// EventDateLabel renders an event's date annotation: the full date when known,
// the year when only the year is known, otherwise "unknown".
func EventDateLabel(date *time.Time, year *int) string {
	if date != nil {
		return date.Format(EventDateFormat)
	}
	if year != nil {
		return strconv.Itoa(*year)
	}
	return UnknownDateLabel
}

// ParseEventDate parses a "2006-01-02" date string. Nil in, nil out.
func ParseEventDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(EventDateFormat, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
