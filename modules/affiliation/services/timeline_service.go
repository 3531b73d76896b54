package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/manual"
	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/eventbus"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

// TimelineService owns mutations of the affiliation timeline. Every
// successful mutation publishes TimelineChangedEvent so attribution can
// be recomputed.
type TimelineService struct {
	experiences workexperience.Repository
	overrides   manual.Repository
	validate    *validator.Validate
	publisher   eventbus.EventBus
}

func NewTimelineService(
	experiences workexperience.Repository,
	overrides manual.Repository,
	publisher eventbus.EventBus,
) *TimelineService {
	return &TimelineService{
		experiences: experiences,
		overrides:   overrides,
		validate:    validator.New(),
		publisher:   publisher,
	}
}

func (s *TimelineService) UpsertWorkExperience(ctx context.Context, dto *workexperience.UpsertDTO) (workexperience.WorkExperience, error) {
	if dto == nil {
		return workexperience.WorkExperience{}, serrors.Validation("missing dto")
	}
	dto.Normalize()
	if err := s.validate.Struct(dto); err != nil {
		return workexperience.WorkExperience{}, serrors.Validation("invalid work experience: %v", err)
	}
	source := workexperience.Source(dto.Source)
	if !source.Valid() {
		return workexperience.WorkExperience{}, serrors.Validation("unknown source %q", dto.Source)
	}
	if dto.DateEnd != nil && dto.DateStart == nil {
		return workexperience.WorkExperience{}, serrors.Validation("dateEnd requires dateStart")
	}
	if dto.DateEnd != nil && dto.DateEnd.Before(*dto.DateStart) {
		return workexperience.WorkExperience{}, serrors.Validation("dateEnd precedes dateStart")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return workexperience.WorkExperience{}, err
	}

	entity := workexperience.New(
		tenantID, dto.MemberID, dto.OrganizationID,
		dto.Title, dto.DateStart, dto.DateEnd, source,
	)
	written, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (workexperience.WorkExperience, error) {
		return s.experiences.Upsert(txCtx, entity)
	})
	if err != nil {
		return workexperience.WorkExperience{}, err
	}
	if written.IsZero() {
		// Dropped write: either a dated row blocks the undated insert
		// or a low-trust source hit an existing row. Nothing changed.
		return workexperience.WorkExperience{}, nil
	}

	s.publisher.Publish(&TimelineChangedEvent{TenantID: tenantID, MemberID: written.MemberID()})
	return written, nil
}

func (s *TimelineService) DeleteWorkExperience(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	wx, err := s.experiences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workexperience.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.experiences.SoftDelete(txCtx, id)
	}); err != nil {
		return err
	}

	s.publisher.Publish(&TimelineChangedEvent{TenantID: tenantID, MemberID: wx.MemberID()})
	return nil
}

func (s *TimelineService) ListWorkExperiences(ctx context.Context, memberID uuid.UUID) ([]workexperience.WorkExperience, error) {
	return s.experiences.ListForMember(ctx, memberID)
}

func (s *TimelineService) SetManualAffiliation(ctx context.Context, dto *manual.SetDTO) (manual.ManualAffiliation, error) {
	if dto == nil {
		return manual.ManualAffiliation{}, serrors.Validation("missing dto")
	}
	if err := s.validate.Struct(dto); err != nil {
		return manual.ManualAffiliation{}, serrors.Validation("invalid manual affiliation: %v", err)
	}
	if dto.DateEnd != nil && dto.DateStart == nil {
		return manual.ManualAffiliation{}, serrors.Validation("dateEnd requires dateStart")
	}
	if dto.DateEnd != nil && dto.DateEnd.Before(*dto.DateStart) {
		return manual.ManualAffiliation{}, serrors.Validation("dateEnd precedes dateStart")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return manual.ManualAffiliation{}, err
	}

	entity := manual.New(tenantID, dto.MemberID, dto.SegmentID, dto.OrganizationID, dto.DateStart, dto.DateEnd)
	written, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (manual.ManualAffiliation, error) {
		return s.overrides.Upsert(txCtx, entity)
	})
	if err != nil {
		return manual.ManualAffiliation{}, err
	}

	s.publisher.Publish(&TimelineChangedEvent{TenantID: tenantID, MemberID: written.MemberID()})
	return written, nil
}

func (s *TimelineService) RemoveManualAffiliation(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	a, err := s.overrides.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.overrides.Delete(txCtx, id)
	}); err != nil {
		return err
	}

	s.publisher.Publish(&TimelineChangedEvent{TenantID: tenantID, MemberID: a.MemberID()})
	return nil
}

func (s *TimelineService) ListManualAffiliations(ctx context.Context, memberID uuid.UUID) ([]manual.ManualAffiliation, error) {
	return s.overrides.ListForMember(ctx, memberID)
}
