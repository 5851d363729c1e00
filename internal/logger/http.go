// 包 logger：指标端口的只读访问包装
package logger

import (
	"log/slog"
	"net/http"
	"time"
)

// recorder 记录首个状态码；未显式 WriteHeader 时视为 200
type recorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *recorder) WriteHeader(code int) {
	if !w.wrote {
		w.status, w.wrote = code, true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status, w.wrote = http.StatusOK, true
	}
	return w.ResponseWriter.Write(b)
}

// MetricsGuard：/metrics 端点的访问包装
// 约束：只放行 GET/HEAD，其余返回 405；处理器 panic 转为 500 并记 error，不带垮批处理
// 约束：成功抓取记 debug（高频），4xx/5xx 记 warn
func MetricsGuard(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				l.Error("metrics_panic", "path", r.URL.Path, "panic", p)
				if !rec.wrote {
					http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}
			lvl := slog.LevelDebug
			if rec.status >= http.StatusBadRequest {
				lvl = slog.LevelWarn
			}
			l.Log(r.Context(), lvl, "metrics_scrape",
				"method", r.Method, "path", r.URL.Path, "status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(), "ip", r.RemoteAddr)
		}()
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			rec.Header().Set("Allow", "GET, HEAD")
			http.Error(rec, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(rec, r)
	})
}
