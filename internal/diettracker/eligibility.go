package diettracker

import (
	"fmt"
	"time"
)

// DayStatus classifies a calendar date relative to "today".
type DayStatus string

const (
	DayPast    DayStatus = "past"
	DayCurrent DayStatus = "current"
	DayFuture  DayStatus = "future"
)

// DayNotEditableError is returned when a mutation targets a day that is
// not "current". Handlers map it to 403 by type, never by message text.
type DayNotEditableError struct {
	Operation string // verb for the message, e.g. "complete"
	Status    DayStatus
}

func (e *DayNotEditableError) Error() string {
	if e.Status == DayPast {
		return fmt.Sprintf("Cannot %s meals for past days. You can only edit today's meals.", e.Operation)
	}
	return fmt.Sprintf("Cannot %s meals for future days. You cannot edit future days yet.", e.Operation)
}

// DateOnly strips the time-of-day, keeping only the calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClassifyDay compares midnight-normalized dates. "Today" is derived from
// now in server-local time; callers must not assume client timezones.
func ClassifyDay(date, now time.Time) DayStatus {
	d := DateOnly(date)
	today := DateOnly(now)

	switch {
	case d.Before(today):
		return DayPast
	case d.After(today):
		return DayFuture
	default:
		return DayCurrent
	}
}

// ValidateDayEdit rejects edits to any day except the current one.
// The operation verb is embedded in the error message.
func ValidateDayEdit(date, now time.Time, operation string) error {
	status := ClassifyDay(date, now)
	if status != DayCurrent {
		return &DayNotEditableError{Operation: operation, Status: status}
	}
	return nil
}
