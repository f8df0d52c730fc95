package engine

import (
	"fmt"
	stdlog "log"
	"os"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/boypt/tracker-dash/stats"
)

var (
	log *filteredLogger
)

type filteredLogger struct {
	logger *stdlog.Logger
}

// filteredArg shortens info hashes and renders windows and modes by name.
func (f *filteredLogger) filteredArg(v ...interface{}) []interface{} {
	for idx, arg := range v {
		switch a := arg.(type) {
		case string:
			if len(a) == 40 {
				var h metainfo.Hash
				if h.FromHexString(a) == nil {
					v[idx] = fmt.Sprintf("[%s..]", h.HexString()[:6])
				}
			}
		case stats.Window:
			v[idx] = "[" + a.String() + "]"
		case stats.Mode:
			v[idx] = "[" + a.String() + "]"
		}
	}

	return v
}

func (f *filteredLogger) Println(v ...interface{}) {
	f.logger.Println(f.filteredArg(v...)...)
}
func (f *filteredLogger) Printf(format string, v ...interface{}) {
	f.logger.Printf(format, f.filteredArg(v...)...)
}
func (f *filteredLogger) Fatal(v ...interface{}) {
	f.logger.Fatal(f.filteredArg(v...)...)
}

func init() {
	log = &filteredLogger{
		logger: stdlog.New(os.Stdout, "[engine]", stdlog.LstdFlags|stdlog.Lmsgprefix),
	}
}

func SetLoggerFlag(flag int) {
	log.logger.SetFlags(flag)
}
