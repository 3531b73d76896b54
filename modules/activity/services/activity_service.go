package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/activity/domain/aggregates/activity"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

// Resolver decides the organization an activity belongs to. The activity
// write path calls it synchronously; the write is not durable until the
// attribution is resolved.
type Resolver interface {
	Resolve(ctx context.Context, memberID, segmentID uuid.UUID, ts time.Time) (uuid.NullUUID, error)
}

type ActivityService struct {
	repo     activity.Repository
	resolver Resolver
	validate *validator.Validate
}

func NewActivityService(repo activity.Repository, resolver Resolver) *ActivityService {
	return &ActivityService{
		repo:     repo,
		resolver: resolver,
		validate: validator.New(),
	}
}

func (s *ActivityService) GetByID(ctx context.Context, id uuid.UUID) (activity.Activity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ActivityService) GetPaginated(ctx context.Context, params *activity.FindParams) ([]activity.Activity, int64, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *ActivityService) Create(ctx context.Context, dto *activity.CreateDTO) (activity.Activity, error) {
	if dto == nil {
		return activity.Activity{}, serrors.Validation("missing dto")
	}
	if err := s.validate.Struct(dto); err != nil {
		return activity.Activity{}, serrors.Validation("invalid activity: %v", err)
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return activity.Activity{}, err
	}
	segmentID, err := composables.UseSegmentID(ctx)
	if err != nil {
		return activity.Activity{}, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (activity.Activity, error) {
		organizationID, err := s.resolver.Resolve(txCtx, dto.MemberID, segmentID, dto.Timestamp)
		if err != nil {
			return activity.Activity{}, err
		}
		entity := activity.New(tenantID, segmentID, dto.MemberID, dto.Type, dto.Platform, dto.Timestamp).
			WithOrganizationID(organizationID)
		return s.repo.Create(txCtx, entity)
	})
}
