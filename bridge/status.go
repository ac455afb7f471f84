package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewStatusHandler 只读的运行状态接口
// GET /healthz  存活检查
// GET /metrics  管道计数
// GET /status   两端连接状态、最近一次快照、队列积压
func NewStatusHandler(p *Pipeline) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, p.Metrics.Snapshot())
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		tq, cq := p.QueueDepths()
		writeJSON(w, map[string]any{
			"telemetry":       p.Telemetry.State().String(),
			"device":          p.Device.State().String(),
			"last_state":      p.Translator.Last().String(),
			"telemetry_queue": tq,
			"command_queue":   cq,
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
