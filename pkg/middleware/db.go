package middleware

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/atrium-hq/atrium/pkg/composables"
)

// ProvideDB installs the shared pool into every request context.
func ProvideDB(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// ProvideLogger installs the process logger into every request context.
func ProvideLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := logger.WithField("path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(composables.WithLogger(r.Context(), entry)))
		})
	}
}

// WithTransaction wraps the handler in a single database transaction,
// committed on success and rolled back when the handler never commits.
func WithTransaction() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pool, err := composables.UsePool(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			tx, err := pool.Begin(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			defer func() {
				if err := tx.Rollback(r.Context()); err != nil {
					if errors.Is(err, pgx.ErrTxClosed) {
						return
					}
					composables.UseLogger(r.Context()).WithError(err).Error("failed to rollback transaction")
				}
			}()
			r = r.WithContext(composables.WithTx(r.Context(), tx))
			next.ServeHTTP(w, r)
			if err := tx.Commit(r.Context()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		})
	}
}
