package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID  int64
	IsStaff bool
}

// AuthorizationService answers society role questions
type AuthorizationService struct {
	membershipRepo repositories.IMembershipRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(membershipRepo repositories.IMembershipRepository) *AuthorizationService {
	return &AuthorizationService{membershipRepo: membershipRepo}
}

// Membership returns the caller's membership in a society, or nil when there is none
func (s *AuthorizationService) Membership(ctx context.Context, societyID, userID int64) (*models.Membership, error) {
	m, err := s.membershipRepo.Get(ctx, societyID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMembershipNotFound) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("societyID", societyID).Int64("userID", userID).Msg("Error getting membership")
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// IsApprovedMember reports whether the user holds an approved membership
func (s *AuthorizationService) IsApprovedMember(ctx context.Context, societyID, userID int64) (bool, error) {
	m, err := s.Membership(ctx, societyID, userID)
	if err != nil {
		return false, err
	}
	return m.IsApproved(), nil
}

// RequireCapability returns the caller's membership when its role grants capability,
// and a permission error otherwise.
func (s *AuthorizationService) RequireCapability(ctx context.Context, societyID, userID int64, capability models.Capability) (*models.Membership, error) {
	m, err := s.Membership(ctx, societyID, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsApproved() {
		return nil, apperrors.NewCustomError(apperrors.ErrNotMember, "you are not an approved member of this society")
	}
	if !m.Can(capability) {
		return nil, apperrors.NewForbiddenError("your role in this society does not allow this action")
	}
	return m, nil
}

// RequireCapabilityInAll checks the capability in every listed society
func (s *AuthorizationService) RequireCapabilityInAll(ctx context.Context, societyIDs []int64, userID int64, capability models.Capability) error {
	for _, id := range societyIDs {
		if _, err := s.RequireCapability(ctx, id, userID, capability); err != nil {
			return err
		}
	}
	return nil
}

// RequireCapabilityInAny succeeds when at least one listed society grants the capability
func (s *AuthorizationService) RequireCapabilityInAny(ctx context.Context, societyIDs []int64, userID int64, capability models.Capability) error {
	var lastErr error = apperrors.NewForbiddenError("your role does not allow this action")
	for _, id := range societyIDs {
		_, err := s.RequireCapability(ctx, id, userID, capability)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrPermissionDenied) && !errors.Is(err, apperrors.ErrNotMember) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
