package httpserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func accessLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad log line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func loggedRouter(buf *bytes.Buffer) http.Handler {
	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	m.Use(Logger(zerolog.New(buf).Level(zerolog.InfoLevel)))
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	m.Get("/api/hotels/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	m.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	return m
}

func TestLogger_TagsRequestIDAndRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	h := loggedRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/api/hotels/42", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := accessLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one access line, got %d", len(lines))
	}
	got := lines[0]
	if got["request_id"] != "req-abc" {
		t.Fatalf("request_id = %v", got["request_id"])
	}
	if got["route"] != "/api/hotels/{id}" || got["status"] != float64(404) || got["level"] != "info" {
		t.Fatalf("unexpected line: %v", got)
	}
}

func TestLogger_HealthChecksStayOutOfInfoLog(t *testing.T) {
	var buf bytes.Buffer
	h := loggedRouter(&buf)

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}
	if buf.Len() != 0 {
		t.Fatalf("health checks logged at info: %s", buf.String())
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	lines := accessLines(t, &buf)
	if len(lines) != 1 || lines[0]["level"] != "warn" {
		t.Fatalf("expected one warn line for a 5xx, got %v", lines)
	}
	if id, _ := lines[0]["request_id"].(string); id == "" {
		t.Fatalf("generated request id missing: %v", lines[0])
	}
}

func TestStatusWriter_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}
	if sw.Status() != http.StatusOK {
		t.Fatalf("default status = %d", sw.Status())
	}
	sw.WriteHeader(http.StatusTeapot)
	sw.WriteHeader(http.StatusOK)
	if sw.Status() != http.StatusTeapot {
		t.Fatalf("status = %d", sw.Status())
	}
}
