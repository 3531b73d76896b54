package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/core/domain/entities/segment"
	"github.com/atrium-hq/atrium/modules/core/domain/entities/tenant"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

type TenantService struct {
	tenants  tenant.Repository
	segments segment.Repository
}

func NewTenantService(tenants tenant.Repository, segments segment.Repository) *TenantService {
	return &TenantService{tenants: tenants, segments: segments}
}

func (s *TenantService) CreateTenant(ctx context.Context, name string) (tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tenant.Tenant{}, serrors.Validation("tenant name is required")
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (tenant.Tenant, error) {
		return s.tenants.Create(txCtx, tenant.Tenant{Name: name})
	})
}

func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

func (s *TenantService) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	return s.tenants.List(ctx)
}

func (s *TenantService) CreateSegment(ctx context.Context, tenantID uuid.UUID, name string) (segment.Segment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return segment.Segment{}, serrors.Validation("segment name is required")
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return segment.Segment{}, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (segment.Segment, error) {
		return s.segments.Create(txCtx, segment.Segment{TenantID: tenantID, Name: name})
	})
}

func (s *TenantService) GetSegment(ctx context.Context, id uuid.UUID) (segment.Segment, error) {
	return s.segments.GetByID(ctx, id)
}

func (s *TenantService) ListSegments(ctx context.Context, tenantID uuid.UUID) ([]segment.Segment, error) {
	return s.segments.ListForTenant(ctx, tenantID)
}
