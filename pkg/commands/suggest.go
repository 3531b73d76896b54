package commands

import (
	"context"

	"github.com/atrium-hq/atrium/modules/core/services"
	dedupeservices "github.com/atrium-hq/atrium/modules/dedupe/services"
	"github.com/atrium-hq/atrium/pkg/composables"
)

// GenerateSuggestions runs one merge-suggestion pass for every tenant.
// A zero windowHours falls back to the configured default window.
func GenerateSuggestions(ctx context.Context, windowHours float64) error {
	app, pool, err := setupApplication(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	tenantService := app.Service(services.TenantService{}).(*services.TenantService)
	suggestionService := app.Service(dedupeservices.SuggestionService{}).(*dedupeservices.SuggestionService)

	scopedCtx := composables.WithPool(ctx, pool)
	tenants, err := tenantService.ListTenants(scopedCtx)
	if err != nil {
		return err
	}

	for _, t := range tenants {
		tenantCtx := composables.WithTenantID(scopedCtx, t.ID)
		if err := suggestionService.GenerateSuggestions(tenantCtx, windowHours); err != nil {
			app.Logger().WithError(err).WithField("tenant_id", t.ID).
				Error("suggestion generation failed")
		}
	}
	return nil
}
