package diettracker

import (
	"errors"
	"testing"
	"time"
)

func TestClassifyDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want DayStatus
	}{
		{"yesterday", time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), DayPast},
		{"today midnight", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), DayCurrent},
		{"today with time component", time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC), DayCurrent},
		{"tomorrow", time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), DayFuture},
		{"last month", time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC), DayPast},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyDay(tc.date, now); got != tc.want {
				t.Errorf("ClassifyDay = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidateDayEdit(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	if err := ValidateDayEdit(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC), now, "complete"); err != nil {
		t.Fatalf("current day should be editable: %v", err)
	}

	err := ValidateDayEdit(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), now, "complete")
	var dayErr *DayNotEditableError
	if !errors.As(err, &dayErr) {
		t.Fatalf("err = %v, want DayNotEditableError", err)
	}
	if dayErr.Status != DayPast {
		t.Errorf("status = %s, want past", dayErr.Status)
	}
	if dayErr.Error() != "Cannot complete meals for past days. You can only edit today's meals." {
		t.Errorf("unexpected message: %q", dayErr.Error())
	}

	err = ValidateDayEdit(time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), now, "change")
	if !errors.As(err, &dayErr) {
		t.Fatalf("err = %v, want DayNotEditableError", err)
	}
	if dayErr.Status != DayFuture {
		t.Errorf("status = %s, want future", dayErr.Status)
	}
	if dayErr.Error() != "Cannot change meals for future days. You cannot edit future days yet." {
		t.Errorf("unexpected message: %q", dayErr.Error())
	}
}

func TestDateOnly(t *testing.T) {
	got := DateOnly(time.Date(2025, 6, 10, 23, 59, 58, 123, time.UTC))
	want := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOnly = %v, want %v", got, want)
	}
}
