package stats

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects what a bucket counts.
type Mode uint8

const (
	// CountEvents counts every matching record.
	CountEvents Mode = iota
	// DistinctTorrents counts the distinct torrent ids among matching records.
	DistinctTorrents
)

func (m Mode) String() string {
	switch m {
	case CountEvents:
		return "peers"
	case DistinctTorrents:
		return "torrents"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts the names used by the HTTP API.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peers", "count":
		return CountEvents, nil
	case "torrents", "distinct", "connections":
		return DistinctTorrents, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Rollover reports whether an event, already expressed in the location of
// now, belongs to the day before now when a window crosses midnight.
type Rollover func(event, now time.Time) bool

// WeekdayRollover compares raw weekday indexes, so it only holds when
// today is Sunday and the event is on a later index. It is the default.
func WeekdayRollover(event, now time.Time) bool {
	return event.Weekday() > now.Weekday()
}

// CalendarRollover matches the previous calendar date.
func CalendarRollover(event, now time.Time) bool {
	py, pm, pd := now.AddDate(0, 0, -1).Date()
	y, m, d := event.Date()
	return y == py && m == pm && d == pd
}

// Bucketizer splits events into trailing hourly or daily buckets. The zero
// value uses WeekdayRollover.
type Bucketizer struct {
	Rollover Rollover
}

func (b Bucketizer) rollover() Rollover {
	if b.Rollover == nil {
		return WeekdayRollover
	}
	return b.Rollover
}

// tally accumulates one bucket
type tally struct {
	count int
	seen  map[string]bool
}

func (t *tally) add(e PeerEvent, mode Mode) {
	if mode == DistinctTorrents {
		if t.seen == nil {
			t.seen = map[string]bool{}
		}
		t.seen[e.TorrentID] = true
		return
	}
	t.count++
}

func (t *tally) value(mode Mode) int {
	if mode == DistinctTorrents {
		return len(t.seen)
	}
	return t.count
}

func values(tallies []tally, mode Mode) []int {
	out := make([]int, len(tallies))
	for i := range tallies {
		out[i] = tallies[i].value(mode)
	}
	return out
}

// ByHour returns windowHours buckets, oldest first. now is the single
// reference point of the call; hours and weekdays are read in its location.
//
// Only events in (now-windowHours h, now] are counted. When the window
// reaches past midnight the buckets are keyed by hour-of-day: the tail hours
// of the previous day (as decided by the rollover predicate) followed by
// hours 0..H of today. Otherwise bucket i covers (now-i h, now-(i-1) h].
func (b Bucketizer) ByHour(events []PeerEvent, windowHours int, mode Mode, now time.Time) []int {
	if windowHours <= 0 {
		return []int{}
	}
	loc := now.Location()
	hour := now.Hour()
	since := now.Add(-time.Duration(windowHours) * time.Hour)
	tallies := make([]tally, windowHours)

	if windowHours > hour {
		prevDay := b.rollover()
		//previous day contributes hours first..23
		prevCount := windowHours - hour - 1
		first := 24 - (windowHours - hour) + 1
		for _, e := range events {
			t := e.LastRequest.In(loc)
			if !t.After(since) || t.After(now) {
				continue
			}
			h := t.Hour()
			switch {
			case t.Weekday() == now.Weekday():
				if h <= hour {
					tallies[prevCount+h].add(e, mode)
				}
			case prevDay(t, now):
				if h >= first {
					tallies[h-first].add(e, mode)
				}
			}
		}
		return values(tallies, mode)
	}

	for _, e := range events {
		t := e.LastRequest.In(loc)
		if !t.After(since) || t.After(now) {
			continue
		}
		i := int(now.Sub(t)/time.Hour) + 1
		if i > windowHours {
			continue
		}
		tallies[windowHours-i].add(e, mode)
	}
	return values(tallies, mode)
}

// ByDay returns windowDays buckets for the day-of-month values
// Dm-windowDays+1 .. Dm, oldest first. Only the day-of-month is compared,
// so events from another month with a matching day are counted too and a
// window that starts before the 1st yields empty leading buckets.
func (b Bucketizer) ByDay(events []PeerEvent, windowDays int, mode Mode, now time.Time) []int {
	if windowDays <= 0 {
		return []int{}
	}
	loc := now.Location()
	today := now.Day()
	first := today - windowDays + 1
	tallies := make([]tally, windowDays)
	for _, e := range events {
		d := e.LastRequest.In(loc).Day()
		if d > today-windowDays && d <= today {
			tallies[d-first].add(e, mode)
		}
	}
	return values(tallies, mode)
}

// BucketByHour buckets with the default Bucketizer.
func BucketByHour(events []PeerEvent, windowHours int, mode Mode, now time.Time) []int {
	return Bucketizer{}.ByHour(events, windowHours, mode, now)
}

// BucketByDay buckets with the default Bucketizer.
func BucketByDay(events []PeerEvent, windowDays int, mode Mode, now time.Time) []int {
	return Bucketizer{}.ByDay(events, windowDays, mode, now)
}

// FilterByCompletionState returns events unchanged, or only the completed
// ones when onlyCompleted is set.
func FilterByCompletionState(events []PeerEvent, onlyCompleted bool) []PeerEvent {
	if !onlyCompleted {
		return events
	}
	out := make([]PeerEvent, 0, len(events))
	for _, e := range events {
		if e.Completed {
			out = append(out, e)
		}
	}
	return out
}
