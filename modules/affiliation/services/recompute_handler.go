package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/eventbus"
)

// RecomputeHandler reacts to timeline changes and organization merges by
// rewriting member attribution in the background. Recompute is eventually
// consistent with concurrent ingestion; there is no ordering guarantee
// against activities written while a pass runs.
type RecomputeHandler struct {
	pool     *pgxpool.Pool
	resolver *AffiliationService
	logger   *logrus.Logger
}

func NewRecomputeHandler(pool *pgxpool.Pool, resolver *AffiliationService, logger *logrus.Logger) *RecomputeHandler {
	return &RecomputeHandler{pool: pool, resolver: resolver, logger: logger}
}

func (h *RecomputeHandler) Register(bus eventbus.EventBus) {
	bus.Subscribe(h.onTimelineChanged)
	bus.Subscribe(h.onOrganizationMerged)
}

func (h *RecomputeHandler) onTimelineChanged(event *TimelineChangedEvent) {
	go h.recompute(event.TenantID, event.MemberID)
}

func (h *RecomputeHandler) onOrganizationMerged(event *organization.MergedEvent) {
	go func() {
		for _, memberID := range event.AffectedMembers {
			h.recompute(event.TenantID, memberID)
		}
	}()
}

func (h *RecomputeHandler) recompute(tenantID, memberID uuid.UUID) {
	ctx := composables.WithPool(context.Background(), h.pool)
	ctx = composables.WithTenantID(ctx, tenantID)

	rewritten, err := h.resolver.RecomputeForMember(ctx, memberID)
	log := h.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"member_id": memberID,
	})
	if err != nil {
		log.WithError(err).Error("attribution recompute failed")
		return
	}
	log.WithField("rewritten", rewritten).Info("attribution recompute finished")
}
