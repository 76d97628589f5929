package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"wanstay/internal/adapters/observability"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// statusWriter remembers the first status code written.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// served describes a finished request as seen by the outer middlewares.
type served struct {
	route  string // chi pattern, or the raw path when nothing matched
	status int
	took   time.Duration
}

// observe runs next and hands the outcome to done.
func observe(done func(r *http.Request, s served)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			done(r, served{route: route, status: sw.Status(), took: time.Since(start)})
		})
	}
}

var Metrics = observe(func(r *http.Request, s served) {
	observability.ObserveHTTP(s.route, r.Method, s.status, s.took)
})

// quietRoutes are polled by health checks and scrapers; a healthy hit is logged at debug.
var quietRoutes = map[string]bool{"/healthz": true, "/metrics": true}

// Logger writes one access line per request, tagged with chi's request id.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return observe(func(r *http.Request, s served) {
		ev := l.Info()
		switch {
		case s.status >= http.StatusInternalServerError:
			ev = l.Warn()
		case quietRoutes[s.route] && s.status < http.StatusBadRequest:
			ev = l.Debug()
		}
		ev.Str("request_id", chimw.GetReqID(r.Context())).
			Str("route", s.route).
			Str("method", r.Method).
			Int("status", s.status).
			Dur("duration", s.took).
			Str("remote", remoteIP(r)).
			Str("ua", r.UserAgent()).
			Msg("http_request")
	})
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
