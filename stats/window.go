package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the size of one bucket.
type Unit uint8

const (
	Hour Unit = iota
	Day
)

const (
	maxWindowHours = 24
	maxWindowDays  = 31
)

// Window is a trailing lookback span made of Size buckets of one Unit.
type Window struct {
	Unit Unit
	Size int
}

// DefaultWindows are the dashboard tabs: last hour, last 5 hours, last day
// and last 3 days.
var DefaultWindows = []Window{Hours(1), Hours(5), Hours(24), Days(3)}

func Hours(n int) Window { return Window{Unit: Hour, Size: n} }

func Days(n int) Window { return Window{Unit: Day, Size: n} }

func (w Window) String() string {
	if w.Unit == Day {
		return strconv.Itoa(w.Size) + "d"
	}
	return strconv.Itoa(w.Size) + "h"
}

// Title is the tab caption of the window.
func (w Window) Title() string {
	switch {
	case w.Unit == Hour && w.Size == 1:
		return "Last hour"
	case w.Unit == Hour:
		return fmt.Sprintf("Last %d hours", w.Size)
	case w.Size == 1:
		return "Last day"
	}
	return fmt.Sprintf("Last %d days", w.Size)
}

// Labels returns the axis labels, one per bucket.
func (w Window) Labels() []string {
	if w.Unit == Day {
		return DayAxisLabels(w.Size)
	}
	return HourAxisLabels(w.Size)
}

// Buckets applies the window to events using b.
func (w Window) Buckets(b Bucketizer, events []PeerEvent, mode Mode, now time.Time) []int {
	if w.Unit == Day {
		return b.ByDay(events, w.Size, mode, now)
	}
	return b.ByHour(events, w.Size, mode, now)
}

// ParseWindow parses "5h" or "3d".
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Window{}, fmt.Errorf("invalid window %q: %w", s, err)
	}
	var w Window
	switch s[len(s)-1] {
	case 'h':
		w = Hours(n)
	case 'd':
		w = Days(n)
	default:
		return Window{}, fmt.Errorf("invalid window unit in %q (want h or d)", s)
	}
	return w, w.Validate()
}

// Validate checks the window size against its unit.
func (w Window) Validate() error {
	max := maxWindowHours
	if w.Unit == Day {
		max = maxWindowDays
	}
	if w.Size < 1 || w.Size > max {
		return fmt.Errorf("window %s out of range (1..%d)", w, max)
	}
	return nil
}

// HourAxisLabels returns "n hours ago" .. "1 hour ago".
func HourAxisLabels(n int) []string {
	return axisLabels(n, "hour")
}

// DayAxisLabels returns "n days ago" .. "1 day ago".
func DayAxisLabels(n int) []string {
	return axisLabels(n, "day")
}

func axisLabels(n int, unit string) []string {
	if n <= 0 {
		return []string{}
	}
	axis := make([]string, 0, n)
	for i := n; i > 1; i-- {
		axis = append(axis, fmt.Sprintf("%d %ss ago", i, unit))
	}
	return append(axis, fmt.Sprintf("1 %s ago", unit))
}
