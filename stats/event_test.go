package stats

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2022, 8, 7, 14, 32, 24, 0, art)
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2022-08-07T14:32:24.000-03:00", want, false},
		{"2022-08-07T14:32:24-03:00", want, false},
		{"2022-08-07 14:32:24.000000000 -03:00", want, false},
		{"2022-08-07 14:32:24 -03:00", want, false},
		{"2022-08-07 14:32:24 -0300", want, false},
		{"2022-08-07 14:32:24 ART", time.Time{}, true},
		{"2022-08-07 14:32:24 XYZ", time.Time{}, true},
		{"Ayer", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSnapshot(t *testing.T) {
	payload := []byte(`{
		"cant_peers": 3,
		"cant_seeders": 1,
		"cant_torrents": 1,
		"info": [
			{"id": "PANA-PEER", "time_last_request": "Ayer", "completed": false, "torrent": "sample.torrent"},
			{"id": "-4R01010-D23T24S25F26", "time_last_request": "2022-08-07T14:32:24.000-03:00", "completed": true, "torrent": "sample.torrent"},
			{"id": "-415-D23T24S25F26", "time_last_request": "2022-08-07 15:01:02.5 -03:00", "completed": false, "torrent": "sample.torrent"}
		]
	}`)
	snap, err := ParseSnapshot(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Events) != 2 {
		t.Fatalf("Events = %v, want 2 records", snap.Events)
	}
	if snap.Events[0].PeerID != "-4R01010-D23T24S25F26" || !snap.Events[0].Completed {
		t.Errorf("Events[0] = %+v", snap.Events[0])
	}
	if len(snap.Rejected) != 1 {
		t.Fatalf("Rejected = %v, want 1 record", snap.Rejected)
	}
	rej := snap.Rejected[0]
	if rej.Index != 0 || rej.PeerID != "PANA-PEER" || rej.Value != "Ayer" {
		t.Errorf("Rejected[0] = %+v", rej)
	}
	if !errors.Is(rej, ErrMalformedTimestamp) {
		t.Errorf("errors.Is(%v, ErrMalformedTimestamp) = false", rej)
	}
	if got := snap.Summary(); got != (Summary{Peers: 3, Seeders: 1, Torrents: 1}) {
		t.Errorf("Summary() = %+v", got)
	}

	if _, err := ParseSnapshot([]byte(`{"info": [`)); err == nil {
		t.Error("ParseSnapshot() accepted truncated document")
	}
}

func TestParseSnapshot_ZoneAbbreviation(t *testing.T) {
	payload := []byte(`{"info": [
		{"id": "p1", "time_last_request": "2022-08-07 14:32:24 XYZ", "completed": false, "torrent": "sample.torrent"},
		{"id": "p2", "time_last_request": "2022-08-07 14:32:24 ART", "completed": false, "torrent": "sample.torrent"},
		{"id": "p3", "time_last_request": "2022-08-07 14:32:24 -03:00", "completed": false, "torrent": "sample.torrent"}
	]}`)
	snap, err := ParseSnapshot(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Events) != 1 || snap.Events[0].PeerID != "p3" {
		t.Errorf("Events = %+v, want only p3", snap.Events)
	}
	var rejected []string
	for _, pe := range snap.Rejected {
		if !errors.Is(pe, ErrMalformedTimestamp) {
			t.Errorf("errors.Is(%v, ErrMalformedTimestamp) = false", pe)
		}
		rejected = append(rejected, pe.PeerID)
	}
	if len(rejected) != 2 || rejected[0] != "p1" || rejected[1] != "p2" {
		t.Errorf("Rejected = %v, want [p1 p2]", rejected)
	}
}

func TestSummarize(t *testing.T) {
	events := loadFixture(t)
	want := Summary{Peers: 22, Seeders: 10, Torrents: 4}
	if got := Summarize(events); got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
	snap := &Snapshot{Events: events}
	if got := snap.Summary(); got != want {
		t.Errorf("Snapshot.Summary() = %+v, want %+v", got, want)
	}
}
