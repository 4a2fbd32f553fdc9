package service

import (
	"errors"
	"strings"
	"time"
)

var errBadDueDate = errors.New("unrecognised due date format")

const dueDateMessage = "The date field must be a date (YYYY-MM-DD) or an RFC3339 date-time."

var dueDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// parseDueDate accepts a date or a date-time and returns it in UTC. A bare
// date is midnight UTC; a date-time without offset is read as UTC.
func parseDueDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errBadDueDate
	}
	for _, layout := range dueDateLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errBadDueDate
}
