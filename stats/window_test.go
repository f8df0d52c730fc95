package stats

import (
	"reflect"
	"testing"
)

func TestAxisLabels(t *testing.T) {
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"hour 1", HourAxisLabels(1), []string{"1 hour ago"}},
		{"hour 3", HourAxisLabels(3), []string{"3 hours ago", "2 hours ago", "1 hour ago"}},
		{"hour 0", HourAxisLabels(0), []string{}},
		{"day 3", DayAxisLabels(3), []string{"3 days ago", "2 days ago", "1 day ago"}},
		{"day 1", DayAxisLabels(1), []string{"1 day ago"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("labels = %q, want %q", tt.got, tt.want)
			}
		})
	}
	for n := 1; n <= 24; n++ {
		if got := HourAxisLabels(n); len(got) != n {
			t.Fatalf("HourAxisLabels(%d) has %d labels", n, len(got))
		}
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"1h", Hours(1), false},
		{" 24H ", Hours(24), false},
		{"3d", Days(3), false},
		{"25h", Window{}, true},
		{"0d", Window{}, true},
		{"h", Window{}, true},
		{"5m", Window{}, true},
		{"xh", Window{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseWindow() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	events := loadFixture(t)
	now := at("2022-08-08T12:00:00")
	tests := []struct {
		w     Window
		str   string
		title string
	}{
		{Hours(1), "1h", "Last hour"},
		{Hours(5), "5h", "Last 5 hours"},
		{Days(1), "1d", "Last day"},
		{Days(3), "3d", "Last 3 days"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.w.String(); got != tt.str {
				t.Errorf("String() = %v, want %v", got, tt.str)
			}
			if got := tt.w.Title(); got != tt.title {
				t.Errorf("Title() = %v, want %v", got, tt.title)
			}
			got := tt.w.Buckets(Bucketizer{}, events, CountEvents, now)
			if len(got) != tt.w.Size || len(tt.w.Labels()) != tt.w.Size {
				t.Errorf("Buckets() = %v, Labels() = %v", got, tt.w.Labels())
			}
		})
	}
	if got := Days(3).Buckets(Bucketizer{}, events, DistinctTorrents, now); !reflect.DeepEqual(got, []int{1, 3, 2}) {
		t.Errorf("Days(3).Buckets() = %v", got)
	}
}
