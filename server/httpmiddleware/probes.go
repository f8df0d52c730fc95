package httpmiddleware

import (
	"net/http"

	"github.com/boypt/tracker-dash/common"
)

// Probes answers the health endpoints ahead of authentication.
// /healthz is always OK while the process serves; /readyz is OK once ready
// returns nil, 503 with its error otherwise.
func Probes(h http.Handler, ready func() error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			probeReply(w, nil)
		case "/readyz":
			var err error
			if ready != nil {
				err = ready()
			}
			probeReply(w, err)
		default:
			h.ServeHTTP(w, r)
		}
	})
}

func probeReply(w http.ResponseWriter, err error) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	body := "OK"
	code := http.StatusOK
	if err != nil {
		body = err.Error()
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_, werr := w.Write([]byte(body))
	common.HandleError(werr)
}
