package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/events"
	"github.com/yigit/societyhub/internal/pkg/filestorage"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

// SocietyService defines the interface for society operations
type SocietyService interface {
	CreateSociety(ctx context.Context, actor auth.Actor, req *dto.CreateSocietyRequest) (*dto.SocietyResponse, error)
	ListSocieties(ctx context.Context, actor auth.Actor, filter *dto.SocietyFilterRequest) (*dto.SocietyListResponse, error)
	GetSociety(ctx context.Context, actor auth.Actor, id int64) (*dto.SocietyResponse, error)
	UpdateSociety(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateSocietyRequest) (*dto.SocietyResponse, error)
	UploadLogo(ctx context.Context, actor auth.Actor, id int64, file *multipart.FileHeader) (*dto.SocietyResponse, error)
	TransferManagement(ctx context.Context, actor auth.Actor, id, newManagerID int64) error

	ApproveSociety(ctx context.Context, actor auth.Actor, id int64) error
	RejectSociety(ctx context.Context, actor auth.Actor, id int64, reason string) error
	// RequestDeletion returns the status the society ended up in
	RequestDeletion(ctx context.Context, actor auth.Actor, id int64) (models.SocietyStatus, error)
	ApproveDeletion(ctx context.Context, actor auth.Actor, id int64) error
	DeclineDeletion(ctx context.Context, actor auth.Actor, id int64) error
}

type societyServiceImpl struct {
	societyRepo    repositories.ISocietyRepository
	membershipRepo repositories.IMembershipRepository
	authz          *auth.AuthorizationService
	fileStorage    filestorage.FileStorage
	publisher      events.Publisher
	policy         Policy
	logger         zerolog.Logger
}

// NewSocietyService creates a new SocietyService
func NewSocietyService(
	societyRepo repositories.ISocietyRepository,
	membershipRepo repositories.IMembershipRepository,
	authz *auth.AuthorizationService,
	fileStorage filestorage.FileStorage,
	publisher events.Publisher,
	policy Policy,
	logger zerolog.Logger,
) SocietyService {
	return &societyServiceImpl{
		societyRepo:    societyRepo,
		membershipRepo: membershipRepo,
		authz:          authz,
		fileStorage:    fileStorage,
		publisher:      publisher,
		policy:         policy,
		logger:         logger,
	}
}

func validateQuiz(quiz []models.QuizQuestion) error {
	for i, q := range quiz {
		if strings.TrimSpace(q.Question) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("quiz question %d has no text", i+1))
		}
		if len(q.Choices) < 2 {
			return apperrors.NewValidationError(fmt.Sprintf("quiz question %d needs at least two choices", i+1))
		}
		if q.CorrectChoice < 0 || q.CorrectChoice >= len(q.Choices) {
			return apperrors.NewValidationError(fmt.Sprintf("quiz question %d has no valid correct choice", i+1))
		}
	}
	return nil
}

// CreateSociety files a pending society application with the caller as manager
func (s *societyServiceImpl) CreateSociety(ctx context.Context, actor auth.Actor, req *dto.CreateSocietyRequest) (*dto.SocietyResponse, error) {
	if err := validateQuiz(req.JoinQuiz); err != nil {
		return nil, err
	}

	owned, err := s.societyRepo.CountOwned(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if owned >= s.policy.MaxOwnedSocieties {
		return nil, apperrors.ErrSocietyLimitReached
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	society := &models.Society{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Type:            req.Type,
		Status:          models.SocietyStatusPending,
		Visibility:      visibility,
		ManagerID:       actor.UserID,
		JoinQuiz:        req.JoinQuiz,
		QuizPassPercent: req.QuizPassPercent,
		MembershipFee:   req.MembershipFee,
	}
	society.NormalizeQuiz()
	if err := s.societyRepo.CreateWithManager(ctx, society); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("societyID", society.ID).Int64("managerID", actor.UserID).Msg("Society application created")
	return dto.FromSociety(society), nil
}

// ListSocieties lists approved societies; staff may filter by any status
func (s *societyServiceImpl) ListSocieties(ctx context.Context, actor auth.Actor, filter *dto.SocietyFilterRequest) (*dto.SocietyListResponse, error) {
	approved := models.SocietyStatusApproved
	f := models.SocietyFilter{
		Status:   &approved,
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Type != nil && *filter.Type != "" {
		t := models.SocietyType(*filter.Type)
		f.Type = &t
	}
	if actor.IsStaff && filter.Status != nil {
		if *filter.Status == "" || *filter.Status == "all" {
			f.Status = nil
		} else {
			st := models.SocietyStatus(*filter.Status)
			f.Status = &st
		}
	}

	societies, total, err := s.societyRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	resp := &dto.SocietyListResponse{
		Societies:  make([]dto.SocietyResponse, 0, len(societies)),
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}
	for i := range societies {
		resp.Societies = append(resp.Societies, *dto.FromSociety(&societies[i]))
	}
	return resp, nil
}

// getVisible loads a society and hides it from viewers who may not see it
func (s *societyServiceImpl) getVisible(ctx context.Context, actor auth.Actor, id int64) (*models.Society, error) {
	society, err := s.societyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !society.IsVisibleTo(actor.UserID, actor.IsStaff) {
		return nil, apperrors.ErrSocietyNotFound
	}
	return society, nil
}

// GetSociety returns a society with the viewer's membership
func (s *societyServiceImpl) GetSociety(ctx context.Context, actor auth.Actor, id int64) (*dto.SocietyResponse, error) {
	society, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := dto.FromSociety(society)
	if actor.UserID > 0 {
		m, err := s.authz.Membership(ctx, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		resp.Membership = m
	}
	return resp, nil
}

// UpdateSociety edits a society; manager or co-manager only
func (s *societyServiceImpl) UpdateSociety(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateSocietyRequest) (*dto.SocietyResponse, error) {
	society, err := s.societyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if society.Status == models.SocietyStatusDeleted || society.Status == models.SocietyStatusRejected {
		return nil, apperrors.ErrInvalidStatusChange
	}
	if _, err := s.authz.RequireCapability(ctx, id, actor.UserID, models.CapManageMembers); err != nil {
		return nil, err
	}

	if req.Description != nil {
		society.Description = *req.Description
	}
	if req.Type != nil {
		society.Type = *req.Type
	}
	if req.Visibility != nil {
		society.Visibility = *req.Visibility
	}
	if req.JoinQuiz != nil {
		if err := validateQuiz(req.JoinQuiz); err != nil {
			return nil, err
		}
		society.JoinQuiz = req.JoinQuiz
	}
	if req.QuizPassPercent != nil {
		society.QuizPassPercent = *req.QuizPassPercent
	}
	if req.MembershipFee != nil {
		society.MembershipFee = *req.MembershipFee
	}
	society.NormalizeQuiz()

	if err := s.societyRepo.Update(ctx, society); err != nil {
		return nil, err
	}
	return dto.FromSociety(society), nil
}

// UploadLogo stores a new logo and removes the previous file
func (s *societyServiceImpl) UploadLogo(ctx context.Context, actor auth.Actor, id int64, file *multipart.FileHeader) (*dto.SocietyResponse, error) {
	society, err := s.societyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireCapability(ctx, id, actor.UserID, models.CapManageMembers); err != nil {
		return nil, err
	}

	url, err := s.fileStorage.SaveImage(file, fmt.Sprintf("societies/%d", id))
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err := s.societyRepo.SetLogo(ctx, id, url); err != nil {
		_ = s.fileStorage.DeleteFile(url)
		return nil, err
	}

	if society.LogoURL != nil {
		if err := s.fileStorage.DeleteFile(*society.LogoURL); err != nil {
			s.logger.Warn().Err(err).Int64("societyID", id).Msg("Could not delete previous logo")
		}
	}
	society.LogoURL = &url
	return dto.FromSociety(society), nil
}

// TransferManagement hands the society to an approved co-manager
func (s *societyServiceImpl) TransferManagement(ctx context.Context, actor auth.Actor, id, newManagerID int64) error {
	society, err := s.societyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if society.ManagerID != actor.UserID {
		return apperrors.NewForbiddenError("only the society manager can transfer management")
	}
	if newManagerID == actor.UserID {
		return apperrors.NewBadRequestError("you already manage this society")
	}

	if err := s.societyRepo.TransferManagement(ctx, id, actor.UserID, newManagerID); err != nil {
		return err
	}
	s.logger.Info().Int64("societyID", id).Int64("from", actor.UserID).Int64("to", newManagerID).Msg("Society management transferred")
	return nil
}

func requireStaff(actor auth.Actor) error {
	if !actor.IsStaff {
		return apperrors.NewForbiddenError("staff access required")
	}
	return nil
}

// ApproveSociety publishes a pending application
func (s *societyServiceImpl) ApproveSociety(ctx context.Context, actor auth.Actor, id int64) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return s.transition(ctx, id, []models.SocietyStatus{models.SocietyStatusPending}, models.SocietyStatusApproved, nil, events.SocietyApproved)
}

// RejectSociety closes a pending application with a reason
func (s *societyServiceImpl) RejectSociety(ctx context.Context, actor auth.Actor, id int64, reason string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewValidationError("a rejection reason is required")
	}
	return s.transition(ctx, id, []models.SocietyStatus{models.SocietyStatusPending}, models.SocietyStatusRejected, &reason, events.SocietyRejected)
}

// RequestDeletion deletes small societies straight away and queues larger ones for staff review
func (s *societyServiceImpl) RequestDeletion(ctx context.Context, actor auth.Actor, id int64) (models.SocietyStatus, error) {
	society, err := s.societyRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if society.ManagerID != actor.UserID {
		return "", apperrors.NewForbiddenError("only the society manager can request deletion")
	}

	members, err := s.membershipRepo.CountApproved(ctx, id)
	if err != nil {
		return "", err
	}

	if members < s.policy.DeletionMemberThreshold {
		from := []models.SocietyStatus{models.SocietyStatusPending, models.SocietyStatusApproved}
		if err := s.transition(ctx, id, from, models.SocietyStatusDeleted, nil, events.SocietyDeleted); err != nil {
			return "", err
		}
		return models.SocietyStatusDeleted, nil
	}

	if err := s.societyRepo.UpdateStatus(ctx, id, []models.SocietyStatus{models.SocietyStatusApproved}, models.SocietyStatusRequestDelete, nil); err != nil {
		return "", err
	}
	s.logger.Info().Int64("societyID", id).Int("members", members).Msg("Society deletion awaiting staff approval")
	return models.SocietyStatusRequestDelete, nil
}

// ApproveDeletion deletes a society whose manager asked for it
func (s *societyServiceImpl) ApproveDeletion(ctx context.Context, actor auth.Actor, id int64) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return s.transition(ctx, id, []models.SocietyStatus{models.SocietyStatusRequestDelete}, models.SocietyStatusDeleted, nil, events.SocietyDeleted)
}

// DeclineDeletion returns a society to approved
func (s *societyServiceImpl) DeclineDeletion(ctx context.Context, actor auth.Actor, id int64) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return s.societyRepo.UpdateStatus(ctx, id, []models.SocietyStatus{models.SocietyStatusRequestDelete}, models.SocietyStatusApproved, nil)
}

func (s *societyServiceImpl) transition(ctx context.Context, id int64, from []models.SocietyStatus, to models.SocietyStatus, reason *string, event string) error {
	if err := s.societyRepo.UpdateStatus(ctx, id, from, to, reason); err != nil {
		return err
	}
	s.logger.Info().Int64("societyID", id).Str("status", string(to)).Msg("Society status changed")

	payload := map[string]interface{}{"societyId": id, "status": to}
	if reason != nil {
		payload["reason"] = *reason
	}
	events.PublishAsync(s.publisher, s.logger, event, id, payload)
	return nil
}
