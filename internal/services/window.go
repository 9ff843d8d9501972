package services

import (
	"strings"
	"time"

	"github.com/ukydev/logistics-dashboard/internal/apperr"
)

const dateLayout = "2006-01-02"

// Window is a closed interval [Start, End] over record creation times.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ParseWindow parses ISO 8601 bounds. Each bound may be a date or an RFC 3339
// timestamp; a date-only end covers its whole day.
func ParseWindow(start, end string) (Window, error) {
	if err := required(map[string]string{"start": start, "end": end}); err != nil {
		return Window{}, err
	}
	s, _, err := parseBound(start)
	if err != nil {
		return Window{}, apperr.Validation("Invalid start date", apperr.Details{"start": start})
	}
	e, dateOnly, err := parseBound(end)
	if err != nil {
		return Window{}, apperr.Validation("Invalid end date", apperr.Details{"end": end})
	}
	if dateOnly {
		e = endOfDay(e)
	}
	if s.After(e) {
		return Window{}, apperr.Validation("Start date is after end date", apperr.Details{"start": start, "end": end})
	}
	return Window{Start: s, End: e}, nil
}

// DayWindow returns the window covering one calendar date (UTC).
func DayWindow(date string) (Window, error) {
	d, err := parseDate(date)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: d, End: endOfDay(d)}, nil
}

func parseBound(v string) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	return t, false, err
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date, expected YYYY-MM-DD", apperr.Details{"date": v})
	}
	return t, nil
}

func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Millisecond)
}
