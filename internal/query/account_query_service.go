package query

import (
	"context"
	"fmt"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/repository"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/cqrs"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/utils"
)

// SessionIssuer mints a session token for an authenticated user.
type SessionIssuer interface {
	IssueSession(userID int64, role models.Role) (string, error)
}

// AccountQueryService serves logins and profile reads. Profiles come from
// the Redis cache with a Postgres fallback.
type AccountQueryService struct {
	readRepo *repository.UserReadRepository
	hasher   utils.PasswordHasher
	sessions SessionIssuer
}

// NewAccountQueryService builds the read side. sessions may be nil, in
// which case logins succeed without a token.
func NewAccountQueryService(readRepo *repository.UserReadRepository, hasher utils.PasswordHasher, sessions SessionIssuer) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo, hasher: hasher, sessions: sessions}
}

func (s *AccountQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.LoginView, error) {
	user, err := s.readRepo.GetByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Check(cmd.Password, user.PasswordHash) {
		return nil, models.ErrInvalidPassword
	}

	view := &models.LoginView{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		Email:  user.Email,
	}
	if s.sessions != nil {
		token, err := s.sessions.IssueSession(user.ID, user.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to issue session: %w", err)
		}
		view.Token = token
	}
	return view, nil
}

func (s *AccountQueryService) GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.ProfileView, error) {
	return s.readRepo.GetProfile(ctx, q.UserID)
}

func (s *AccountQueryService) ListUsersByRole(ctx context.Context, q cqrs.ListUsersByRoleQuery) ([]*models.ProfileView, error) {
	return s.readRepo.ListByRole(ctx, q.Role)
}
