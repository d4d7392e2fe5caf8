package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/email"
	"github.com/yigit/societyhub/internal/pkg/events"
)

// MembershipService manages join requests and roles inside societies
type MembershipService interface {
	Join(ctx context.Context, actor auth.Actor, societyID int64, req *dto.JoinSocietyRequest) (*models.Membership, error)
	Approve(ctx context.Context, actor auth.Actor, societyID, membershipID int64) (*models.Membership, error)
	Reject(ctx context.Context, actor auth.Actor, societyID, membershipID int64) error
	Remove(ctx context.Context, actor auth.Actor, societyID, membershipID int64) error
	ChangeRole(ctx context.Context, actor auth.Actor, societyID, membershipID int64, role models.MembershipRole) (*models.Membership, error)
	Leave(ctx context.Context, actor auth.Actor, societyID int64) error
	ListMembers(ctx context.Context, actor auth.Actor, societyID int64, status *models.MembershipStatus) (*dto.MembershipListResponse, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Membership, error)
}

type membershipServiceImpl struct {
	membershipRepo repositories.IMembershipRepository
	societyRepo    repositories.ISocietyRepository
	paymentRepo    repositories.IPaymentRepository
	authz          *auth.AuthorizationService
	mailer         email.EmailService
	publisher      events.Publisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	membershipRepo repositories.IMembershipRepository,
	societyRepo repositories.ISocietyRepository,
	paymentRepo repositories.IPaymentRepository,
	authz *auth.AuthorizationService,
	mailer email.EmailService,
	publisher events.Publisher,
	logger zerolog.Logger,
) MembershipService {
	return &membershipServiceImpl{
		membershipRepo: membershipRepo,
		societyRepo:    societyRepo,
		paymentRepo:    paymentRepo,
		authz:          authz,
		mailer:         mailer,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
	}
}

// Join applies to an approved society. A society with a join quiz admits
// applicants who pass it straight away; without a quiz the request waits for approval.
func (s *membershipServiceImpl) Join(ctx context.Context, actor auth.Actor, societyID int64, req *dto.JoinSocietyRequest) (*models.Membership, error) {
	society, err := s.societyRepo.GetByID(ctx, societyID)
	if err != nil {
		return nil, err
	}
	if society.Status != models.SocietyStatusApproved {
		return nil, apperrors.ErrSocietyNotApproved
	}

	existing, err := s.authz.Membership(ctx, societyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrAlreadyMember
	}

	if society.MembershipFee > 0 {
		paid, err := s.paymentRepo.HasPaid(ctx, actor.UserID, models.PurposeSociety, societyID)
		if err != nil {
			return nil, err
		}
		if !paid {
			return nil, apperrors.ErrPaymentRequired
		}
	}

	m := &models.Membership{
		SocietyID: societyID,
		UserID:    actor.UserID,
		Role:      models.RoleMember,
		Status:    models.MembershipPending,
	}

	if len(society.JoinQuiz) > 0 {
		var answers []int
		if req != nil {
			answers = req.QuizAnswers
		}
		score, ok := models.ScoreQuiz(society.JoinQuiz, answers)
		if !ok {
			return nil, apperrors.ErrQuizAnswersInvalid
		}
		if score < society.PassPercent() {
			s.logger.Info().Int64("societyID", societyID).Int64("userID", actor.UserID).Int("score", score).Msg("Join quiz failed")
			return nil, apperrors.NewCustomError(apperrors.ErrQuizFailed,
				fmt.Sprintf("you scored %d%%, %d%% is needed to join", score, society.PassPercent()))
		}
		now := s.now()
		m.Status = models.MembershipApproved
		m.ApprovedAt = &now
	}

	if err := s.membershipRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	if m.IsApproved() {
		events.PublishAsync(s.publisher, s.logger, events.MembershipApproved, societyID,
			map[string]interface{}{"societyId": societyID, "userId": actor.UserID})
	}
	s.logger.Info().Int64("societyID", societyID).Int64("userID", actor.UserID).Str("status", string(m.Status)).Msg("Membership created")
	return m, nil
}

// loadInSociety fetches a membership and checks it belongs to the society
func (s *membershipServiceImpl) loadInSociety(ctx context.Context, societyID, membershipID int64) (*models.Membership, error) {
	m, err := s.membershipRepo.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.SocietyID != societyID {
		return nil, apperrors.ErrMembershipNotFound
	}
	return m, nil
}

// Approve accepts a pending join request
func (s *membershipServiceImpl) Approve(ctx context.Context, actor auth.Actor, societyID, membershipID int64) (*models.Membership, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageMembers); err != nil {
		return nil, err
	}
	m, err := s.loadInSociety(ctx, societyID, membershipID)
	if err != nil {
		return nil, err
	}
	if m.IsApproved() {
		return nil, apperrors.NewConflictError("membership is already approved")
	}

	now := s.now()
	if err := s.membershipRepo.Approve(ctx, m.ID, now); err != nil {
		return nil, err
	}
	m.Status = models.MembershipApproved
	m.ApprovedAt = &now

	if m.User != nil {
		if err := s.mailer.SendNotice(m.User.Email, m.User.FirstName,
			"Membership approved", "Your request to join the society has been approved."); err != nil {
			s.logger.Warn().Err(err).Int64("membershipID", m.ID).Msg("Could not send membership notice")
		}
	}
	events.PublishAsync(s.publisher, s.logger, events.MembershipApproved, societyID,
		map[string]interface{}{"societyId": societyID, "userId": m.UserID})
	return m, nil
}

// Reject deletes a pending join request
func (s *membershipServiceImpl) Reject(ctx context.Context, actor auth.Actor, societyID, membershipID int64) error {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageMembers); err != nil {
		return err
	}
	m, err := s.loadInSociety(ctx, societyID, membershipID)
	if err != nil {
		return err
	}
	if m.IsApproved() {
		return apperrors.NewConflictError("only pending requests can be rejected; remove the member instead")
	}
	return s.membershipRepo.Delete(ctx, m.ID)
}

// Remove expels a member the actor outranks
func (s *membershipServiceImpl) Remove(ctx context.Context, actor auth.Actor, societyID, membershipID int64) error {
	actorMembership, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageMembers)
	if err != nil {
		return err
	}
	target, err := s.loadInSociety(ctx, societyID, membershipID)
	if err != nil {
		return err
	}
	if !models.CanManageRoleOf(actorMembership, target) {
		return apperrors.NewForbiddenError("you cannot remove this member")
	}

	if err := s.membershipRepo.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.logger.Info().Int64("societyID", societyID).Int64("userID", target.UserID).Int64("by", actor.UserID).Msg("Member removed")
	return nil
}

// ChangeRole sets a member's role; co-managers may only move people between member and editor
func (s *membershipServiceImpl) ChangeRole(ctx context.Context, actor auth.Actor, societyID, membershipID int64, role models.MembershipRole) (*models.Membership, error) {
	if !models.IsAssignableRole(role) {
		return nil, apperrors.NewValidationError("role must be member, editor or co_manager")
	}
	actorMembership, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageMembers)
	if err != nil {
		return nil, err
	}
	target, err := s.loadInSociety(ctx, societyID, membershipID)
	if err != nil {
		return nil, err
	}
	if !target.IsApproved() {
		return nil, apperrors.NewConflictError("only approved members can be given a role")
	}
	if !models.CanManageRoleOf(actorMembership, target) {
		return nil, apperrors.NewForbiddenError("you cannot change this member's role")
	}
	if actorMembership.Role == models.RoleCoManager && role == models.RoleCoManager {
		return nil, apperrors.NewForbiddenError("only the manager can appoint co-managers")
	}

	if err := s.membershipRepo.UpdateRole(ctx, target.ID, role); err != nil {
		return nil, err
	}
	target.Role = role
	return target, nil
}

// Leave deletes the caller's own membership
func (s *membershipServiceImpl) Leave(ctx context.Context, actor auth.Actor, societyID int64) error {
	m, err := s.membershipRepo.Get(ctx, societyID, actor.UserID)
	if err != nil {
		return err
	}
	if m.Role == models.RoleManager {
		return apperrors.ErrManagerCannotLeave
	}
	return s.membershipRepo.Delete(ctx, m.ID)
}

// ListMembers lists a society's memberships. Private societies hide their
// members from outsiders; pending requests are only shown to member managers.
func (s *membershipServiceImpl) ListMembers(ctx context.Context, actor auth.Actor, societyID int64, status *models.MembershipStatus) (*dto.MembershipListResponse, error) {
	society, err := s.societyRepo.GetByID(ctx, societyID)
	if err != nil {
		return nil, err
	}
	if !society.IsVisibleTo(actor.UserID, actor.IsStaff) {
		return nil, apperrors.ErrSocietyNotFound
	}

	viewer, err := s.authz.Membership(ctx, societyID, actor.UserID)
	if err != nil {
		return nil, err
	}

	canManage := actor.IsStaff || viewer.Can(models.CapManageMembers)
	if society.Visibility == models.VisibilityPrivate && !actor.IsStaff && !viewer.IsApproved() {
		return &dto.MembershipListResponse{Members: []models.Membership{}, Hidden: true}, nil
	}

	if !canManage {
		approved := models.MembershipApproved
		status = &approved
	}

	members, err := s.membershipRepo.ListBySociety(ctx, societyID, status)
	if err != nil {
		return nil, err
	}
	return &dto.MembershipListResponse{Members: members}, nil
}

// ListForUser lists every membership the user holds
func (s *membershipServiceImpl) ListForUser(ctx context.Context, userID int64) ([]models.Membership, error) {
	return s.membershipRepo.ListByUser(ctx, userID)
}
