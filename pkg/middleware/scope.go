package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/httpapi"
)

// RequireTenant reads the tenant id header and installs it into the context.
// Requests without a valid tenant id are rejected before any handler runs.
func RequireTenant() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(conf.TenantIDHeader))
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "TENANT_REQUIRED", "missing or invalid tenant id header", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithTenantID(r.Context(), tenantID)))
		})
	}
}

// ProvideSegment reads the optional segment id header. Segment scope is only
// required for manual affiliations and activity attribution; handlers that
// need it fail with ErrNoSegment when it is absent.
func ProvideSegment() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(conf.SegmentIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			segmentID, err := uuid.Parse(raw)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "SEGMENT_INVALID", "invalid segment id header", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithSegmentID(r.Context(), segmentID)))
		})
	}
}
