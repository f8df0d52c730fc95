package server

import (
	"compress/gzip"
	"crypto/tls"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	alog "github.com/anacrolix/log"
	"github.com/boypt/tracker-dash/chart"
	"github.com/boypt/tracker-dash/engine"
	"github.com/boypt/tracker-dash/server/httpmiddleware"
	ctstatic "github.com/boypt/tracker-dash/static"
	"github.com/boypt/tracker-dash/stats"
	"github.com/jpillora/cookieauth"
	"github.com/jpillora/requestlog"
	"github.com/jpillora/velox"
	"github.com/skratchdot/open-golang/open"
)

var log = stdlog.New(os.Stdout, "[server]", stdlog.LstdFlags|stdlog.Lmsgprefix)

// Server is the "State" portion of the diagram
type Server struct {
	//config
	Title          string `opts:"help=Title of this instance,env=TITLE"`
	Port           int    `opts:"help=Listening port,env=PORT"`
	Host           string `opts:"help=Listening interface (default all)"`
	Auth           string `opts:"help=Optional basic auth in form 'user:password',env=AUTH"`
	ConfigPath     string `opts:"help=Configuration file path (default tracker-dash.yaml)"`
	KeyPath        string `opts:"help=TLS Key file path"`
	CertPath       string `opts:"help=TLS Certicate file path,short=r"`
	Log            bool   `opts:"help=Enable request logging"`
	Open           bool   `opts:"help=Open now with your default browser"`
	DisableLogTime bool   `opts:"help=Don't print timestamp in log"`
	Debug          bool   `opts:"help=Log every rejected stats record"`

	//http handlers
	statich  http.Handler
	baseInfo *BaseInfo

	//stats engine
	engine        *engine.Engine
	syncConnected chan struct{}
	syncSemphor   int32

	state struct {
		velox.State
		sync.Mutex
		Config    engine.Config
		Dashboard chart.Dashboard
		Summary   stats.Summary
		Tracker   trackerState
		Users     map[string]string
		Stats     struct {
			Title   string
			Version string
			Runtime string
			Uptime  time.Time
			System  sysStats
		}
	}
}

// Run the server
func (s *Server) Run(version string) error {
	isTLS := s.CertPath != "" || s.KeyPath != "" //poor man's XOR
	if isTLS && (s.CertPath == "" || s.KeyPath == "") {
		return errors.New("you must provide both key and cert paths")
	}
	if s.DisableLogTime {
		log.SetFlags(stdlog.Lmsgprefix)
		stdlog.SetFlags(0)
		engine.SetLoggerFlag(stdlog.Lmsgprefix)
	}

	c, err := engine.InitConf(s.ConfigPath)
	if err != nil {
		return err
	}
	if err := s.init(version, *c); err != nil {
		return err
	}
	go s.backgroundRoutines()

	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, s.Port)
	proto := "http"
	if isTLS {
		proto += "s"
	}
	if s.Open {
		openhost := host
		if openhost == "0.0.0.0" {
			openhost = "localhost"
		}
		go func() {
			time.Sleep(1 * time.Second)
			if err := open.Run(fmt.Sprintf("%s://%s:%d", proto, openhost, s.Port)); err != nil {
				log.Println("open browser:", err)
			}
		}()
	}

	log.Printf("Listening at %s://%s", proto, addr)
	server := http.Server{
		//disable http2 due to velox bug
		TLSNextProto: map[string]func(*http.Server, *tls.Conn, http.Handler){},
		Addr:         addr,
		Handler:      s.handler(),
	}
	if isTLS {
		return server.ListenAndServeTLS(s.CertPath, s.KeyPath)
	}
	return server.ListenAndServe()
}

// init prepares the engine and the pushed state, the first refresh is
// attempted but its failure is only logged.
func (s *Server) init(version string, c engine.Config) error {
	if s.Title == "" {
		s.Title = "Tracker Dashboard"
	}
	now := time.Now()
	s.baseInfo = &BaseInfo{
		Uptime:  now.Unix(),
		Title:   s.Title,
		Version: version,
		Runtime: strings.TrimPrefix(runtime.Version(), "go"),
		Source:  sourceName(c),
	}
	s.state.Stats.Title = s.Title
	s.state.Stats.Version = version
	s.state.Stats.Runtime = s.baseInfo.Runtime
	s.state.Stats.Uptime = now
	s.state.Stats.System.pusher = velox.Pusher(&s.state)
	s.state.Users = map[string]string{}
	s.statich = ctstatic.FileSystemHandler()
	s.syncConnected = make(chan struct{})

	s.engine = engine.New()
	if !s.Debug {
		s.engine.Logger = alog.Discard
	}
	if err := s.engine.Configure(c); err != nil {
		return fmt.Errorf("initial configure failed: %w", err)
	}
	s.state.Config = c
	if err := s.refresh(); err != nil {
		log.Println("initial refresh:", err)
	}
	return nil
}

// handler builds the chain, from last to first.
func (s *Server) handler() http.Handler {
	h := http.Handler(http.HandlerFunc(s.webHandle))
	gzipWrap, _ := gziphandler.NewGzipLevelAndMinSize(gzip.DefaultCompression, 0)
	h = gzipWrap(h)
	if s.Auth != "" {
		user := s.Auth
		pass := ""
		if s := strings.SplitN(s.Auth, ":", 2); len(s) == 2 {
			user = s[0]
			pass = s[1]
		}
		h = cookieauth.Wrap(h, user, pass)
		log.Printf("Enabled HTTP authentication")
	}
	h = httpmiddleware.Probes(h, s.ready)
	if s.Log {
		h = requestlog.Wrap(h)
	}
	return h
}

// ready holds until the first snapshot was fetched.
func (s *Server) ready() error {
	if s.engine.Snapshot() == nil {
		if err := s.engine.Status().Err; err != nil {
			return err
		}
		return engine.ErrNoSnapshot
	}
	return nil
}

func sourceName(c engine.Config) string {
	if c.FixturePath != "" {
		return c.FixturePath
	}
	return c.StatsURL
}
