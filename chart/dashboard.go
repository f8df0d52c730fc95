package chart

import (
	"time"

	"github.com/boypt/tracker-dash/stats"
)

// PanelKind identifies one of the three charts shown per window.
type PanelKind string

const (
	ActivePeers    PanelKind = "active"
	CompletedPeers PanelKind = "completed"
	Torrents       PanelKind = "torrents"
)

type panelSpec struct {
	kind          PanelKind
	title         string
	mode          stats.Mode
	onlyCompleted bool
}

var panels = []panelSpec{
	{ActivePeers, "Active peers", stats.CountEvents, false},
	{CompletedPeers, "Peers that completed the download", stats.CountEvents, true},
	{Torrents, "Torrents downloaded", stats.DistinctTorrents, false},
}

// Panel is one chart of a tab.
type Panel struct {
	Kind PanelKind `json:"kind"`
	Bar  Bar       `json:"bar"`
}

// Tab groups the panels of one window.
type Tab struct {
	Window string  `json:"window"`
	Title  string  `json:"title"`
	Panels []Panel `json:"panels"`
}

// Dashboard is every tab computed against the same instant.
type Dashboard struct {
	Now  time.Time `json:"now"`
	Tabs []Tab     `json:"tabs"`
}

// BuildDashboard buckets events for every window. now is read once by the
// caller and shared by all panels so the tabs agree with each other.
func BuildDashboard(events []stats.PeerEvent, windows []stats.Window, now time.Time, theme Theme, b stats.Bucketizer) Dashboard {
	completed := stats.FilterByCompletionState(events, true)
	d := Dashboard{Now: now, Tabs: make([]Tab, 0, len(windows))}
	for _, w := range windows {
		labels := w.Labels()
		tab := Tab{Window: w.String(), Title: w.Title(), Panels: make([]Panel, 0, len(panels))}
		for _, p := range panels {
			src := events
			if p.onlyCompleted {
				src = completed
			}
			data := w.Buckets(b, src, p.mode, now)
			id := w.String() + "-" + string(p.kind)
			tab.Panels = append(tab.Panels, Panel{
				Kind: p.kind,
				Bar:  NewBar(id, p.title, labels, data, theme),
			})
		}
		d.Tabs = append(d.Tabs, tab)
	}
	return d
}
