package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/fsnotify/fsnotify"
)

var ErrPayloadTooLarge = errors.New("stats payload too large")

// Source returns the raw stats payload of the tracker.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Close() error
}

// notifier is implemented by sources that know when their data changed.
type notifier interface {
	Changed() <-chan struct{}
}

func newSource(c Config) (Source, error) {
	limit, err := c.PayloadLimit()
	if err != nil {
		return nil, err
	}
	if c.FixturePath != "" {
		return newFixtureSource(c.FixturePath, limit)
	}
	return newHTTPSource(c.StatsURL, c.RequestTimeout, limit), nil
}

type httpSource struct {
	url    string
	client *http.Client
	limit  int64
}

func newHTTPSource(url string, timeout time.Duration, limit int64) *httpSource {
	return &httpSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		limit:  limit,
	}
}

func (s *httpSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", s.url, resp.Status)
	}
	return readLimited(resp.Body, s.limit)
}

func (s *httpSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w (limit %s)", ErrPayloadTooLarge, datasize.ByteSize(limit).HR())
	}
	return b, nil
}

// fixtureSource serves a stats payload saved on disk, reloading it when
// the file is written.
type fixtureSource struct {
	path    string
	limit   int64
	watcher *fsnotify.Watcher
	changed chan struct{}
}

func newFixtureSource(path string, limit int64) (*fixtureSource, error) {
	if st, err := os.Stat(path); err != nil {
		return nil, err
	} else if st.IsDir() {
		return nil, fmt.Errorf("fixture %s is a directory", path)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s := &fixtureSource{
		path:    path,
		limit:   limit,
		watcher: watcher,
		changed: make(chan struct{}, 1),
	}
	go s.watch()
	// watch the directory, editors replace files instead of writing them
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	log.Printf("Fixture Watcher: watching %s", path)
	return s, nil
}

func (s *fixtureSource) watch() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			select {
			case s.changed <- struct{}{}:
			default:
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Println("Fixture Watcher: error:", err)
		}
	}
}

func (s *fixtureSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, s.limit)
}

func (s *fixtureSource) Changed() <-chan struct{} {
	return s.changed
}

func (s *fixtureSource) Close() error {
	return s.watcher.Close()
}
