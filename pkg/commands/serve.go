package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/httpapi"
	"github.com/atrium-hq/atrium/pkg/metrics"
	"github.com/atrium-hq/atrium/pkg/middleware"
	"github.com/atrium-hq/atrium/pkg/server"
)

// Serve runs the HTTP API until the process receives SIGINT or SIGTERM,
// then drains in-flight requests within the configured shutdown timeout.
func Serve(ctx context.Context) error {
	conf := configuration.Use()
	logger := conf.Logger()

	app, pool, err := setupApplication(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	app.RegisterMiddleware(
		middleware.ProvideDB(pool),
		middleware.ProvideLogger(logger),
		middleware.WithLogger(logger),
		middleware.RequireTenant(),
		middleware.ProvideSegment(),
		middleware.WithTransaction(),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	srv := server.NewHTTPServer(
		app,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
		}),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		}),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", conf.SocketAddress)
		errCh <- srv.Start(conf.SocketAddress)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
