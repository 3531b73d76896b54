package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/eventbus"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

type MemberService struct {
	repo      member.Repository
	validate  *validator.Validate
	publisher eventbus.EventBus
}

func NewMemberService(repo member.Repository, publisher eventbus.EventBus) *MemberService {
	return &MemberService{
		repo:      repo,
		validate:  validator.New(),
		publisher: publisher,
	}
}

func (s *MemberService) GetPaginated(ctx context.Context, params *member.FindParams) ([]member.Member, int64, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *MemberService) GetByID(ctx context.Context, id uuid.UUID) (member.Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MemberService) GetByIdentity(ctx context.Context, platform, username string) ([]member.Member, error) {
	return s.repo.GetByIdentity(ctx, platform, username)
}

func (s *MemberService) Create(ctx context.Context, dto *member.CreateDTO) (member.Member, error) {
	if dto == nil {
		return member.Member{}, serrors.Validation("missing dto")
	}
	dto.Normalize()
	if err := s.validate.Struct(dto); err != nil {
		return member.Member{}, serrors.Validation("invalid member: %v", err)
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return member.Member{}, err
	}

	joinedAt := time.Now().UTC()
	if dto.JoinedAt != nil {
		joinedAt = dto.JoinedAt.UTC()
	}

	identities := make([]member.Identity, 0, len(dto.Identities))
	for _, identity := range dto.Identities {
		identities = append(identities, member.Identity{
			Platform: identity.Platform,
			Username: identity.Username,
		})
	}

	entity := member.New(tenantID, dto.DisplayName, joinedAt).
		WithEmails(dto.Emails).
		WithIdentities(identities)

	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (member.Member, error) {
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return member.Member{}, err
	}

	s.publisher.Publish(&member.CreatedEvent{TenantID: tenantID, Result: created})
	return created, nil
}

func (s *MemberService) AddIdentity(ctx context.Context, memberID uuid.UUID, dto member.IdentityDTO) error {
	if err := s.validate.Struct(dto); err != nil {
		return serrors.Validation("invalid identity: %v", err)
	}
	if _, err := s.repo.GetByID(ctx, memberID); err != nil {
		return err
	}
	return s.repo.AddIdentity(ctx, memberID, member.Identity{
		Platform: dto.Platform,
		Username: dto.Username,
	})
}

func (s *MemberService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
