package httpapi

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	SummarizePath = "/api/summarize"
	HealthPath    = "/healthz"

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// NewServer mounts the summary handler and the health check. Method checks for
// the summary route happen in the handler so that every verb gets the JSON 405.
func NewServer(addr string, summary http.Handler, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(SummarizePath, summary)
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
}
