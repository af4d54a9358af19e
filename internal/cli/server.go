package cli

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/streck/internal/auth"
	"github.com/mmynk/streck/internal/middleware"
	"github.com/mmynk/streck/internal/service"
	"github.com/mmynk/streck/internal/storage/sqlite"
)

// newHandler mounts the ledger service, /metrics and /healthz.
func newHandler(store *sqlite.SQLiteStore, tokens *auth.JWTManager, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	path, handler := service.NewLedgerServiceHandler(
		service.NewLedgerService(store),
		connect.WithInterceptors(middleware.RequireAuth(tokens), middleware.LoggingInterceptor()),
	)
	mux.Handle(path, handler)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", healthHandler(store.Manager()))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	return h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})
}

// healthHandler reports the database lifecycle state; only Ready is healthy.
func healthHandler(manager *sqlite.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := manager.State()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if state != sqlite.StateReady {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(state.String() + "\n"))
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
