package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/green-sentinel/internal/logger"
)

// readHeaderTimeout bounds slow clients of the metrics endpoint.
const readHeaderTimeout = 5 * time.Second

// StatusFunc returns a JSON-serializable snapshot for the health endpoint.
type StatusFunc func() any

// NewRouter builds the HTTP routes: /metrics and /healthz.
func NewRouter(m *Metrics, status StatusFunc) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var body any = map[string]string{"status": "ok"}
		if status != nil {
			body = status()
		}

		_ = json.NewEncoder(w).Encode(body) //nolint:errchkjson // Client went away, nothing to do.
	}).Methods(http.MethodGet)

	return router
}

// Serve listens on address and serves router until ctx is canceled.
// Access lines are logged at debug level; accessLevel sets their own threshold.
func Serve(ctx context.Context, address string, router http.Handler, accessLevel zapcore.Level) error {
	ctx = logger.WithName(ctx, "metrics")

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	srv := &http.Server{
		Handler: handlers.RecoveryHandler()(
			handlers.LoggingHandler(logger.StdWriter(ctx, accessLevel), router),
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.InfoKV(ctx, "Metrics endpoint listening", "listen_address", lis.Addr().String())

	done := make(chan struct{})

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readHeaderTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint:contextcheck // Shutdown outlives the canceled parent by design of http.Server.
		close(done)
	}()

	if err = srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	<-done
	logger.Info(ctx, "Metrics endpoint stopped")

	return nil
}
