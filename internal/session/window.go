package session

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const clockLayout = "15:04"

// Window is a daily trading session between two wall-clock times.
type Window struct {
	start time.Duration
	end   time.Duration
	loc   *time.Location
}

// Parse builds a Window from "HH:mm" strings. An empty location means UTC.
// When start equals end the window is open all day; when start is after end
// it wraps past midnight.
func Parse(start, end, location string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("session start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("session end: %w", err)
	}
	loc := time.UTC
	if location != "" {
		if loc, err = time.LoadLocation(location); err != nil {
			return Window{}, fmt.Errorf("session location: %w", err)
		}
	}
	return Window{start: s, end: e, loc: loc}, nil
}

func parseClock(v string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:mm", v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains reports whether t falls inside the session: start <= t < end.
func (w Window) Contains(t time.Time) bool {
	if w.start == w.end {
		return true
	}
	loc := w.loc
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	tod := time.Duration(lt.Hour())*time.Hour + time.Duration(lt.Minute())*time.Minute +
		time.Duration(lt.Second())*time.Second
	if w.start < w.end {
		return tod >= w.start && tod < w.end
	}
	return tod >= w.start || tod < w.end
}

func (w Window) String() string {
	fmtClock := func(d time.Duration) string {
		return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmtClock(w.start) + "-" + fmtClock(w.end)
}
