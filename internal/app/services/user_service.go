package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/email"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

// UserService defines the interface for user operations
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, page, pageSize int) (*dto.PaginatedResponse, error)
	// SweepVerification runs one pass of the account verification lifecycle
	SweepVerification(ctx context.Context, now time.Time) (*models.SweepResult, error)
}

type userServiceImpl struct {
	userRepo   repositories.IUserRepository
	verifyRepo repositories.IVerificationTokenRepository
	mailer     email.EmailService
	policy     Policy
	logger     zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repositories.IUserRepository,
	verifyRepo repositories.IVerificationTokenRepository,
	mailer email.EmailService,
	policy Policy,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:   userRepo,
		verifyRepo: verifyRepo,
		mailer:     mailer,
		policy:     policy,
		logger:     logger,
	}
}

// GetProfile retrieves the caller's profile
func (s *userServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.FromUser(user), nil
}

// UpdateProfile changes the caller's name
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// ListUsers returns a page of users for staff
func (s *userServiceImpl) ListUsers(ctx context.Context, page, pageSize int) (*dto.PaginatedResponse, error) {
	users, total, err := s.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.FromUser(&users[i]))
	}
	return &dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// SweepVerification deletes stale unactivated accounts, asks long-verified users to
// verify again, deactivates those who ignored the request and finally deletes
// accounts that stayed deactivated. Staff accounts are never touched.
func (s *userServiceImpl) SweepVerification(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	result := &models.SweepResult{}
	var err error

	result.DeletedUnactivated, err = s.userRepo.DeleteUnactivatedBefore(ctx, now.Add(-s.policy.ActivationWindow))
	if err != nil {
		return nil, err
	}

	due, err := s.userRepo.ListDueForReverification(ctx, now.Add(-s.policy.ReverifyAfter))
	if err != nil {
		return nil, err
	}
	for i := range due {
		user := &due[i]
		if err := s.requestReverification(ctx, user, now); err != nil {
			s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to request re-verification")
			continue
		}
		result.ReverifyRequested++
	}

	result.Deactivated, err = s.userRepo.DeactivateUnverifiedBefore(ctx, now.Add(-s.policy.ReverifyGrace), now)
	if err != nil {
		return nil, err
	}

	deleteCutoff := now.Add(-s.policy.DeleteAfter)
	result.Deleted, err = s.userRepo.DeleteDeactivatedBefore(ctx, deleteCutoff)
	if err != nil {
		return nil, err
	}
	result.RetainedManagers, err = s.userRepo.CountManagersDeactivatedBefore(ctx, deleteCutoff)
	if err != nil {
		return nil, err
	}
	if result.RetainedManagers > 0 {
		s.logger.Warn().Int("retainedManagers", result.RetainedManagers).
			Msg("Deactivated users still manage societies and were not deleted; transfer or delete their societies")
	}

	s.logger.Info().
		Int("deletedUnactivated", result.DeletedUnactivated).
		Int("reverifyRequested", result.ReverifyRequested).
		Int("deactivated", result.Deactivated).
		Int("deleted", result.Deleted).
		Int("retainedManagers", result.RetainedManagers).
		Msg("Verification sweep finished")
	return result, nil
}

func (s *userServiceImpl) requestReverification(ctx context.Context, user *models.User, now time.Time) error {
	if err := s.verifyRepo.DeleteForUser(ctx, user.ID, models.TokenPurposeReverification); err != nil {
		return err
	}
	token := &models.VerificationToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		Purpose:   models.TokenPurposeReverification,
		ExpiresAt: now.Add(s.policy.ReverifyGrace + s.policy.DeleteAfter),
	}
	if err := s.verifyRepo.Create(ctx, token); err != nil {
		return err
	}
	if err := s.mailer.SendReverificationEmail(user.Email, user.FullName(), token.Token); err != nil {
		return err
	}
	return s.userRepo.MarkReverificationRequested(ctx, user.ID, now)
}
