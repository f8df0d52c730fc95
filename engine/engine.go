package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	alog "github.com/anacrolix/log"
	"github.com/boypt/tracker-dash/chart"
	"github.com/boypt/tracker-dash/stats"
	"golang.org/x/time/rate"
)

var (
	ErrThrottled     = errors.New("refresh requested too soon")
	ErrNotConfigured = errors.New("engine not configured")
	ErrNoSnapshot    = errors.New("no snapshot fetched yet")
)

// Engine keeps the latest tracker snapshot and buckets it on request.
type Engine struct {
	mut       sync.RWMutex
	config    Config
	loc       *time.Location
	windows   []stats.Window
	bucketer  stats.Bucketizer
	theme     chart.Theme
	source    Source
	limiter   *rate.Limiter
	snapshot  *stats.Snapshot
	fetchedAt time.Time
	payload   int
	lastErr   error
	// torrent ids seen by earlier refreshes
	known map[string]bool
	// record level diagnostics, rejected timestamps and the like
	Logger alog.Logger
	clock  func() time.Time
}

func New() *Engine {
	return &Engine{
		Logger: alog.Default,
		clock:  time.Now,
	}
}

func (e *Engine) Config() Config {
	e.mut.RLock()
	defer e.mut.RUnlock()
	return e.config
}

// Configure swaps the source and bucketing settings. The current snapshot
// is kept so the dashboard stays populated until the next refresh.
func (e *Engine) Configure(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	loc, _ := c.Loc()
	windows, _ := c.ParsedWindows()
	src, err := newSource(c)
	if err != nil {
		return err
	}
	e.mut.Lock()
	old := e.source
	e.config = c
	e.loc = loc
	e.windows = windows
	e.bucketer = c.Bucketizer()
	e.theme = c.Theme.Merge(chart.DefaultTheme())
	e.source = src
	e.limiter = c.FetchLimiter()
	e.mut.Unlock()
	if old != nil {
		old.Close()
	}
	log.Printf("configured: source %T, poll %s", src, c.PollInterval)
	for _, w := range windows {
		log.Println("window", w, w.Title())
	}
	return nil
}

// Changed fires when the source has new data before the next poll. It is
// nil, blocking forever, for sources that cannot tell.
func (e *Engine) Changed() <-chan struct{} {
	e.mut.RLock()
	defer e.mut.RUnlock()
	if n, ok := e.source.(notifier); ok {
		return n.Changed()
	}
	return nil
}

// Refresh fetches and parses a new snapshot. On failure the previous
// snapshot stays in place and the error is reported by Status.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mut.RLock()
	src, lim := e.source, e.limiter
	e.mut.RUnlock()
	if src == nil {
		return ErrNotConfigured
	}
	if !lim.Allow() {
		return ErrThrottled
	}

	b, err := src.Fetch(ctx)
	if err == nil {
		var snap *stats.Snapshot
		if snap, err = stats.ParseSnapshot(b); err == nil {
			for _, pe := range snap.Rejected {
				e.Logger.Printf("skipping record %d of peer %s: %q: %v", log.filteredArg(pe.Index, pe.PeerID, pe.Value, pe.Err)...)
			}
			e.mut.Lock()
			e.snapshot = snap
			e.fetchedAt = e.clock()
			e.payload = len(b)
			e.lastErr = nil
			appeared := e.trackTorrents(snap.Events)
			e.mut.Unlock()
			for _, id := range appeared {
				log.Println("torrent appeared:", id)
			}
			return nil
		}
	}
	err = fmt.Errorf("refresh: %w", err)
	e.mut.Lock()
	e.lastErr = err
	e.mut.Unlock()
	return err
}

// trackTorrents records the torrent ids of events and returns the ones not
// seen before, sorted. Callers hold the write lock.
func (e *Engine) trackTorrents(events []stats.PeerEvent) []string {
	if e.known == nil {
		e.known = map[string]bool{}
	}
	var ids []string
	for _, ev := range events {
		if !e.known[ev.TorrentID] {
			e.known[ev.TorrentID] = true
			ids = append(ids, ev.TorrentID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the latest snapshot, nil before the first successful refresh.
func (e *Engine) Snapshot() *stats.Snapshot {
	e.mut.RLock()
	defer e.mut.RUnlock()
	return e.snapshot
}

// Status describes the last fetch.
type Status struct {
	FetchedAt time.Time
	Payload   int
	Events    int
	Rejected  int
	Err       error
}

func (e *Engine) Status() Status {
	e.mut.RLock()
	defer e.mut.RUnlock()
	s := Status{FetchedAt: e.fetchedAt, Payload: e.payload, Err: e.lastErr}
	if e.snapshot != nil {
		s.Events = len(e.snapshot.Events)
		s.Rejected = len(e.snapshot.Rejected)
	}
	return s
}

// Now reads the clock once in the configured location.
func (e *Engine) Now() time.Time {
	e.mut.RLock()
	loc := e.loc
	e.mut.RUnlock()
	if loc == nil {
		loc = time.Local
	}
	return e.clock().In(loc)
}

func (e *Engine) events() []stats.PeerEvent {
	if e.snapshot == nil {
		return nil
	}
	return e.snapshot.Events
}

// Dashboard buckets the snapshot for every configured window at now.
func (e *Engine) Dashboard(now time.Time) chart.Dashboard {
	e.mut.RLock()
	defer e.mut.RUnlock()
	return chart.BuildDashboard(e.events(), e.windows, now, e.theme, e.bucketer)
}

// Histogram buckets the snapshot for a single window.
func (e *Engine) Histogram(w stats.Window, mode stats.Mode, onlyCompleted bool, now time.Time) ([]int, error) {
	e.mut.RLock()
	defer e.mut.RUnlock()
	if e.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	events := stats.FilterByCompletionState(e.snapshot.Events, onlyCompleted)
	log.Println("histogram", w, mode, "completed:", onlyCompleted, "events:", len(events))
	return w.Buckets(e.bucketer, events, mode, now), nil
}

// Windows are the configured dashboard tabs.
func (e *Engine) Windows() []stats.Window {
	e.mut.RLock()
	defer e.mut.RUnlock()
	return append([]stats.Window(nil), e.windows...)
}

func (e *Engine) Close() error {
	e.mut.Lock()
	src := e.source
	e.source = nil
	e.mut.Unlock()
	if src == nil {
		return nil
	}
	return src.Close()
}
