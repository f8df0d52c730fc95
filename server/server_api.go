package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/boypt/tracker-dash/chart"
	"github.com/boypt/tracker-dash/common"
	"github.com/boypt/tracker-dash/engine"
	"github.com/boypt/tracker-dash/stats"
	"github.com/jpillora/archive"
)

var errInvalidPath = errors.New("invalid path")

func (s *Server) apiGET(w http.ResponseWriter, r *http.Request) error {
	action := strings.TrimPrefix(r.URL.Path, "/api/")
	switch action {
	case "dashboard":
		return common.WriteJSON(w, s.engine.Dashboard(s.engine.Now()))
	case "histogram":
		return s.apiHistogram(w, r)
	case "snapshot":
		snap := s.engine.Snapshot()
		if snap == nil {
			return engine.ErrNoSnapshot
		}
		return common.WriteJSON(w, newSnapshotResponse(snap, s.engine.Status()))
	case "export":
		return s.apiExport(w)
	case "configure":
		return common.WriteJSON(w, s.engine.Config())
	}
	return errInvalidPath
}

func (s *Server) apiPOST(r *http.Request) error {
	defer r.Body.Close()
	action := strings.TrimPrefix(r.URL.Path, "/api/")
	switch action {
	case "refresh":
		return s.refresh()
	}
	return fmt.Errorf("invalid action: %s", action)
}

type histogramResponse struct {
	Window    string    `json:"window"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	Completed bool      `json:"completed"`
	Now       time.Time `json:"now"`
	Labels    []string  `json:"labels"`
	Buckets   []int     `json:"buckets"`
}

// apiHistogram serves a single window, e.g. /api/histogram?window=5h&mode=torrents&completed=1
func (s *Server) apiHistogram(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	win, err := stats.ParseWindow(q.Get("window"))
	if err != nil {
		return err
	}
	mode, err := stats.ParseMode(q.Get("mode"))
	if err != nil {
		return err
	}
	completed := false
	if v := q.Get("completed"); v != "" {
		if completed, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid completed %q", v)
		}
	}
	now := s.engine.Now()
	buckets, err := s.engine.Histogram(win, mode, completed, now)
	if err != nil {
		return err
	}
	return common.WriteJSON(w, histogramResponse{
		Window:    win.String(),
		Title:     win.Title(),
		Mode:      mode.String(),
		Completed: completed,
		Now:       now,
		Labels:    win.Labels(),
		Buckets:   buckets,
	})
}

type rejectedRecord struct {
	Index  int    `json:"index"`
	PeerID string `json:"id"`
	Value  string `json:"value"`
	Error  string `json:"error"`
}

type snapshotResponse struct {
	FetchedAt time.Time         `json:"fetchedAt"`
	Summary   stats.Summary     `json:"summary"`
	Events    []stats.PeerEvent `json:"events"`
	Rejected  []rejectedRecord  `json:"rejected"`
}

func newSnapshotResponse(snap *stats.Snapshot, st engine.Status) snapshotResponse {
	resp := snapshotResponse{
		FetchedAt: st.FetchedAt,
		Summary:   snap.Summary(),
		Events:    snap.Events,
		Rejected:  make([]rejectedRecord, 0, len(snap.Rejected)),
	}
	if resp.Events == nil {
		resp.Events = []stats.PeerEvent{}
	}
	for _, pe := range snap.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedRecord{
			Index:  pe.Index,
			PeerID: pe.PeerID,
			Value:  pe.Value,
			Error:  pe.Err.Error(),
		})
	}
	return resp
}

// apiExport zips the snapshot with every bucket of the dashboard. The
// archive is built in memory so failures still reach the client as errors.
func (s *Server) apiExport(w http.ResponseWriter) error {
	snap := s.engine.Snapshot()
	if snap == nil {
		return engine.ErrNoSnapshot
	}
	now := s.engine.Now()
	snapJSON, err := json.MarshalIndent(newSnapshotResponse(snap, s.engine.Status()), "", "  ")
	if err != nil {
		return err
	}
	csvData, err := bucketsCSV(s.engine.Dashboard(now))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := archive.NewZipWriter(&buf)
	if err := zw.AddBytesMTime("snapshot.json", snapJSON, now); err != nil {
		return err
	}
	if err := zw.AddBytesMTime("buckets.csv", csvData, now); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	name := fmt.Sprintf("tracker-stats-%s.zip", now.Format("20060102-1504"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, err = buf.WriteTo(w)
	common.HandleError(err)
	return nil
}

// bucketsCSV flattens the dashboard to window,panel,label,count rows.
func bucketsCSV(d chart.Dashboard) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write([]string{"window", "panel", "label", "count"}); err != nil {
		return nil, err
	}
	for _, tab := range d.Tabs {
		for _, p := range tab.Panels {
			labels := p.Bar.XAxis.Categories
			for _, series := range p.Bar.Series {
				for i, v := range series.Data {
					label := ""
					if i < len(labels) {
						label = labels[i]
					}
					if err := cw.Write([]string{tab.Window, string(p.Kind), label, strconv.Itoa(v)}); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}
