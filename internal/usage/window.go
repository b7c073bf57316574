package usage

import (
	"fmt"
	"time"
)

// Windows builds TimeWindows from local wall-clock day boundaries. Usage is a
// human, local-day concept, so results depend on the configured location.
type Windows struct {
	now func() time.Time
	loc *time.Location
}

// NewWindows creates a window builder. A nil now uses time.Now and a nil
// loc uses time.Local.
func NewWindows(now func() time.Time, loc *time.Location) Windows {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return Windows{now: now, loc: loc}
}

// Location returns the location day boundaries are computed in.
func (w Windows) Location() *time.Location {
	if w.loc == nil {
		return time.Local
	}
	return w.loc
}

func (w Windows) current() time.Time {
	if w.now == nil {
		return time.Now().In(w.Location())
	}
	return w.now().In(w.Location())
}

// Today runs from local midnight to now.
func (w Windows) Today() TimeWindow {
	now := w.current()
	return window(startOfDay(now, 0), now)
}

// Yesterday is the full previous calendar day, midnight to 23:59:59.999.
func (w Windows) Yesterday() TimeWindow {
	day := startOfDay(w.current(), -1)
	return window(day, endOfDay(day))
}

// PastDays runs from local midnight n calendar days ago to now. n must be at
// least 1; use Today for the current day alone.
func (w Windows) PastDays(n int) (TimeWindow, error) {
	if n < 1 {
		return TimeWindow{}, fmt.Errorf("%w: got %d", ErrInvalidDays, n)
	}
	now := w.current()
	return window(startOfDay(now, -n), now), nil
}

// ForDate is the full calendar day containing d, in the builder's location.
func (w Windows) ForDate(d time.Time) TimeWindow {
	day := startOfDay(d.In(w.Location()), 0)
	return window(day, endOfDay(day))
}

func window(start, end time.Time) TimeWindow {
	return TimeWindow{start: start.UnixMilli(), end: end.UnixMilli()}
}

// startOfDay returns local midnight offset days from t's calendar day.
func startOfDay(t time.Time, offset int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, t.Location())
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), day.Location())
}
