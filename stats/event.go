package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedTimestamp marks a record whose time_last_request could not be parsed.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// timestamp layouts accepted from the tracker, RFC 3339 first, then the
// tracker's own "date time offset" rendering. Fractional seconds are
// accepted by both without being spelled out. Zone abbreviations are not
// accepted: time.Parse reads unknown ones as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 -0700",
}

// PeerEvent is one peer record of the tracker stats payload.
type PeerEvent struct {
	PeerID      string    `json:"id"`
	TorrentID   string    `json:"torrent"`
	LastRequest time.Time `json:"time_last_request"`
	Completed   bool      `json:"completed"`
}

// ParseError reports a single record that was excluded from a snapshot.
type ParseError struct {
	Index  int
	PeerID string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d (peer %q): %s %q: %v", e.Index, e.PeerID, ErrMalformedTimestamp, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformedTimestamp }

// Snapshot is one decoded response of the tracker stats endpoint.
type Snapshot struct {
	Peers    int         `json:"cant_peers"`
	Seeders  int         `json:"cant_seeders"`
	Torrents int         `json:"cant_torrents"`
	Events   []PeerEvent `json:"info"`
	//records dropped while parsing
	Rejected []*ParseError `json:"-"`
}

type rawRecord struct {
	ID              string `json:"id"`
	TimeLastRequest string `json:"time_last_request"`
	Completed       bool   `json:"completed"`
	Torrent         string `json:"torrent"`
}

type rawSnapshot struct {
	Peers    int         `json:"cant_peers"`
	Seeders  int         `json:"cant_seeders"`
	Torrents int         `json:"cant_torrents"`
	Info     []rawRecord `json:"info"`
}

// ParseTimestamp parses a tracker timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty value")
	}
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseSnapshot decodes a stats payload. Records with an unparsable
// timestamp are left out of Events and reported in Rejected; only a
// document that is not valid JSON fails the call.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	raw := rawSnapshot{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode stats payload: %w", err)
	}
	snap := &Snapshot{
		Peers:    raw.Peers,
		Seeders:  raw.Seeders,
		Torrents: raw.Torrents,
		Events:   make([]PeerEvent, 0, len(raw.Info)),
	}
	for i, r := range raw.Info {
		t, err := ParseTimestamp(r.TimeLastRequest)
		if err != nil {
			snap.Rejected = append(snap.Rejected, &ParseError{
				Index:  i,
				PeerID: r.ID,
				Value:  r.TimeLastRequest,
				Err:    err,
			})
			continue
		}
		snap.Events = append(snap.Events, PeerEvent{
			PeerID:      r.ID,
			TorrentID:   r.Torrent,
			LastRequest: t,
			Completed:   r.Completed,
		})
	}
	return snap, nil
}

// Summary holds the headline counters of a snapshot.
type Summary struct {
	Peers    int `json:"peers"`
	Seeders  int `json:"seeders"`
	Torrents int `json:"torrents"`
}

// Summarize counts events, completed events and distinct torrents.
func Summarize(events []PeerEvent) Summary {
	s := Summary{Peers: len(events)}
	seen := map[string]bool{}
	for _, e := range events {
		if e.Completed {
			s.Seeders++
		}
		seen[e.TorrentID] = true
	}
	s.Torrents = len(seen)
	return s
}

// Summary returns the counters reported by the tracker, falling back to
// counts derived from the events when the tracker sent none.
func (s *Snapshot) Summary() Summary {
	if s.Peers == 0 && s.Seeders == 0 && s.Torrents == 0 {
		return Summarize(s.Events)
	}
	return Summary{Peers: s.Peers, Seeders: s.Seeders, Torrents: s.Torrents}
}
