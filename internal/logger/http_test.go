package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsGuard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("up 1\n")) })
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) { panic("scrape failed") })

	cases := []struct {
		name      string
		method    string
		path      string
		status    int
		wantLevel string
	}{
		{name: "get", method: http.MethodGet, path: "/metrics", status: http.StatusOK, wantLevel: "level=DEBUG"},
		{name: "head", method: http.MethodHead, path: "/metrics", status: http.StatusOK, wantLevel: "level=DEBUG"},
		{name: "post rejected", method: http.MethodPost, path: "/metrics", status: http.StatusMethodNotAllowed, wantLevel: "level=WARN"},
		{name: "unknown path", method: http.MethodGet, path: "/nope", status: http.StatusNotFound, wantLevel: "level=WARN"},
		{name: "panic", method: http.MethodGet, path: "/boom", status: http.StatusInternalServerError, wantLevel: "level=WARN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			rr := httptest.NewRecorder()
			MetricsGuard(l, mux).ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			out := buf.String()
			if !strings.Contains(out, "msg=metrics_scrape") || !strings.Contains(out, tc.wantLevel) {
				t.Fatalf("log = %q, want metrics_scrape at %s", out, tc.wantLevel)
			}
			if tc.status == http.StatusMethodNotAllowed && rr.Header().Get("Allow") != "GET, HEAD" {
				t.Fatalf("Allow = %q", rr.Header().Get("Allow"))
			}
			if tc.status == http.StatusInternalServerError && !strings.Contains(out, "msg=metrics_panic") {
				t.Fatalf("panic not logged: %q", out)
			}
		})
	}
}
