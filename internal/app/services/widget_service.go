package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
)

// WidgetService arranges the blocks of a society page
type WidgetService interface {
	CreateWidget(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateWidgetRequest) (*models.Widget, error)
	UpdateWidget(ctx context.Context, actor auth.Actor, societyID, widgetID int64, req *dto.UpdateWidgetRequest) (*models.Widget, error)
	DeleteWidget(ctx context.Context, actor auth.Actor, societyID, widgetID int64) error
	ListWidgets(ctx context.Context, actor auth.Actor, societyID int64) ([]models.Widget, error)
	ReorderWidgets(ctx context.Context, actor auth.Actor, societyID int64, ids []int64) ([]models.Widget, error)
}

type widgetServiceImpl struct {
	widgetRepo repositories.IWidgetRepository
	authz      *auth.AuthorizationService
	logger     zerolog.Logger
}

// NewWidgetService creates a new WidgetService
func NewWidgetService(widgetRepo repositories.IWidgetRepository, authz *auth.AuthorizationService, logger zerolog.Logger) WidgetService {
	return &widgetServiceImpl{
		widgetRepo: widgetRepo,
		authz:      authz,
		logger:     logger,
	}
}

func (s *widgetServiceImpl) CreateWidget(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateWidgetRequest) (*models.Widget, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}

	w := &models.Widget{
		SocietyID: societyID,
		Type:      req.Type,
		Title:     strings.TrimSpace(req.Title),
		Config:    req.Config,
		Visible:   true,
	}
	if req.Visible != nil {
		w.Visible = *req.Visible
	}
	if err := s.widgetRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *widgetServiceImpl) loadManaged(ctx context.Context, actor auth.Actor, societyID, widgetID int64) (*models.Widget, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	w, err := s.widgetRepo.GetByID(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if w.SocietyID != societyID {
		return nil, apperrors.ErrWidgetNotFound
	}
	return w, nil
}

func (s *widgetServiceImpl) UpdateWidget(ctx context.Context, actor auth.Actor, societyID, widgetID int64, req *dto.UpdateWidgetRequest) (*models.Widget, error) {
	w, err := s.loadManaged(ctx, actor, societyID, widgetID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		w.Title = strings.TrimSpace(*req.Title)
	}
	if req.Config != nil {
		w.Config = req.Config
	}
	if req.Visible != nil {
		w.Visible = *req.Visible
	}
	if err := s.widgetRepo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *widgetServiceImpl) DeleteWidget(ctx context.Context, actor auth.Actor, societyID, widgetID int64) error {
	if _, err := s.loadManaged(ctx, actor, societyID, widgetID); err != nil {
		return err
	}
	return s.widgetRepo.Delete(ctx, widgetID)
}

// ListWidgets shows hidden widgets only to those who manage them
func (s *widgetServiceImpl) ListWidgets(ctx context.Context, actor auth.Actor, societyID int64) ([]models.Widget, error) {
	includeHidden := false
	if actor.UserID > 0 {
		m, err := s.authz.Membership(ctx, societyID, actor.UserID)
		if err != nil {
			return nil, err
		}
		includeHidden = m.Can(models.CapManageContent)
	}
	return s.widgetRepo.List(ctx, societyID, includeHidden)
}

// ReorderWidgets sets positions in the given order; ids must name every widget of the society once
func (s *widgetServiceImpl) ReorderWidgets(ctx context.Context, actor auth.Actor, societyID int64, ids []int64) ([]models.Widget, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	if len(uniqueIDs(ids)) != len(ids) {
		return nil, apperrors.NewValidationError("widget ids must not repeat")
	}
	if err := s.widgetRepo.Reorder(ctx, societyID, ids); err != nil {
		return nil, err
	}
	return s.widgetRepo.List(ctx, societyID, true)
}
