package server

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/boypt/tracker-dash/engine"
	"github.com/boypt/tracker-dash/stats"
	"github.com/dustin/go-humanize"
)

// trackerState describes the last fetch for the page footer.
type trackerState struct {
	Source    string
	FetchedAt time.Time
	LastFetch string
	Payload   string
	Events    int
	Rejected  int
	Error     string
}

func newTrackerState(source string, st engine.Status) trackerState {
	t := trackerState{
		Source:    source,
		FetchedAt: st.FetchedAt,
		LastFetch: "never",
		Payload:   humanize.Bytes(uint64(st.Payload)),
		Events:    st.Events,
		Rejected:  st.Rejected,
	}
	if !st.FetchedAt.IsZero() {
		t.LastFetch = humanize.Time(st.FetchedAt)
	}
	if st.Err != nil {
		t.Error = st.Err.Error()
	}
	return t
}

// refresh pulls a new snapshot and pushes the rebucketed state. The state is
// pushed on failure too, so clients see the error next to the old charts.
func (s *Server) refresh() error {
	c := s.engine.Config()
	ctx, cancel := context.WithTimeout(context.Background(), c.RequestTimeout+time.Second)
	defer cancel()
	err := s.engine.Refresh(ctx)
	if errors.Is(err, engine.ErrThrottled) {
		return err
	}
	s.updateState()
	return err
}

func (s *Server) updateState() {
	now := s.engine.Now()
	dash := s.engine.Dashboard(now)
	var sum stats.Summary
	if snap := s.engine.Snapshot(); snap != nil {
		sum = snap.Summary()
	}
	tracker := newTrackerState(s.baseInfo.Source, s.engine.Status())

	s.state.Lock()
	s.state.Dashboard = dash
	s.state.Summary = sum
	s.state.Tracker = tracker
	s.state.Unlock()
	s.state.Push()
}

func (s *Server) backgroundRoutines() {
	s.state.Stats.System.loadStats()
	go s.pollRoutine()

	//collecting sys stats only while someone is watching
	for range s.syncConnected {
		if atomic.CompareAndSwapInt32(&(s.syncSemphor), 0, 1) {
			go s.tickerRoutine()
		}
	}
}

// pollRoutine refreshes on every poll interval, and early when the source
// reports a change.
func (s *Server) pollRoutine() {
	dur := s.engine.Config().PollInterval
	tk := time.NewTicker(dur)
	defer tk.Stop()

	log.Println("[pollRoutine] polling every", dur)
	for {
		select {
		case <-tk.C:
		case <-s.engine.Changed():
			log.Println("[pollRoutine] source changed")
		}
		if err := s.refresh(); err != nil && !errors.Is(err, engine.ErrThrottled) {
			log.Println("[pollRoutine]", err)
		}
	}
}

// tickerRoutine watches the sys states
func (s *Server) tickerRoutine() {
	dur := 3 * time.Second
	tk := time.NewTicker(dur)
	defer tk.Stop()

	log.Println("[tickerRoutine] sync connected, ticking for", dur)
	var noConnCount uint
	for range tk.C {
		if s.state.NumConnections() == 0 {
			noConnCount++
		} else {
			noConnCount = 0
		}
		if noConnCount > 60 { // about 3 minutes
			atomic.StoreInt32(&(s.syncSemphor), 0)
			log.Println("[tickerRoutine] exit for no web connections")
			return
		}
		s.state.Stats.System.loadStats()
	}
}
