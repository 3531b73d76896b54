package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/affiliation/services"
	"github.com/atrium-hq/atrium/pkg/composables"
)

// RecomputeMember re-resolves the organization attribution of every activity
// belonging to one member and reports how many rows were rewritten.
func RecomputeMember(ctx context.Context, tenantID, memberID uuid.UUID) (int64, error) {
	app, pool, err := setupApplication(ctx)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	resolver := app.Service(services.AffiliationService{}).(*services.AffiliationService)

	scopedCtx := composables.WithTenantID(composables.WithPool(ctx, pool), tenantID)
	return resolver.RecomputeForMember(scopedCtx, memberID)
}
