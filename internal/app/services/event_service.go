package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/events"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

// EventService defines the interface for event and registration operations
type EventService interface {
	CreateEvent(ctx context.Context, actor auth.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	UpdateEvent(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	DeleteEvent(ctx context.Context, actor auth.Actor, id int64) error
	ListEvents(ctx context.Context, filter *dto.EventFilterRequest) (*dto.EventListResponse, error)
	GetEvent(ctx context.Context, id int64) (*dto.EventResponse, error)

	Register(ctx context.Context, actor auth.Actor, eventID int64) (*models.EventRegistration, error)
	CancelRegistration(ctx context.Context, actor auth.Actor, eventID int64) error
	RejectRegistration(ctx context.Context, actor auth.Actor, eventID, registrationID int64) error
	ListRegistrations(ctx context.Context, actor auth.Actor, eventID int64) ([]models.EventRegistration, error)
	ListForUser(ctx context.Context, userID int64) ([]models.EventRegistration, error)
}

type eventServiceImpl struct {
	eventRepo   repositories.IEventRepository
	societyRepo repositories.ISocietyRepository
	paymentRepo repositories.IPaymentRepository
	authz       *auth.AuthorizationService
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo repositories.IEventRepository,
	societyRepo repositories.ISocietyRepository,
	paymentRepo repositories.IPaymentRepository,
	authz *auth.AuthorizationService,
	publisher events.Publisher,
	logger zerolog.Logger,
) EventService {
	return &eventServiceImpl{
		eventRepo:   eventRepo,
		societyRepo: societyRepo,
		paymentRepo: paymentRepo,
		authz:       authz,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// validateEvent checks the invariants shared by create and update
func validateEvent(e *models.Event) error {
	if !e.EndsAt.After(e.StartsAt) {
		return apperrors.NewValidationError("event must end after it starts")
	}
	if e.Capacity != nil && *e.Capacity <= 0 {
		return apperrors.NewValidationError("capacity must be positive")
	}
	if e.Fee < 0 {
		return apperrors.NewValidationError("fee cannot be negative")
	}
	if e.IsFree != (e.Fee == 0) {
		return apperrors.NewValidationError("free events have no fee and paid events need one")
	}
	return nil
}

// CreateEvent creates an event for one or more societies together with a news draft
func (s *eventServiceImpl) CreateEvent(ctx context.Context, actor auth.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	societyIDs := uniqueIDs(req.SocietyIDs)
	if len(societyIDs) == 0 {
		return nil, apperrors.NewValidationError("an event needs at least one hosting society")
	}

	event := &models.Event{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Type:        req.Type,
		Capacity:    req.Capacity,
		Fee:         req.Fee,
		IsFree:      req.Fee == 0,
		CreatedBy:   actor.UserID,
		SocietyIDs:  societyIDs,
	}
	if req.IsFree != (req.Fee == 0) {
		return nil, apperrors.NewValidationError("free events have no fee and paid events need one")
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if !event.StartsAt.After(s.now()) {
		return nil, apperrors.NewValidationError("event must start in the future")
	}

	for _, id := range societyIDs {
		society, err := s.societyRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if society.Status != models.SocietyStatusApproved {
			return nil, apperrors.ErrSocietyNotApproved
		}
	}
	if err := s.authz.RequireCapabilityInAll(ctx, societyIDs, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}

	draft, err := s.eventRepo.CreateWithDraft(ctx, event)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("eventID", event.ID).Int64("draftID", draft.ID).Ints64("societyIDs", societyIDs).Msg("Event created")
	events.PublishAsync(s.publisher, s.logger, events.EventCreated, societyIDs[0], map[string]interface{}{
		"eventId":    event.ID,
		"societyIds": societyIDs,
		"startsAt":   event.StartsAt,
	})
	return dto.FromEvent(event), nil
}

// loadManaged loads an event the actor may manage through any hosting society
func (s *eventServiceImpl) loadManaged(ctx context.Context, actor auth.Actor, id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireCapabilityInAny(ctx, event.SocietyIDs, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent edits an event. Lowering the capacity leaves accepted registrations in place;
// raising or clearing it promotes from the waitlist.
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = *req.EndsAt
	}
	if req.Type != nil {
		event.Type = *req.Type
	}
	if req.ClearCapacity {
		event.Capacity = nil
	} else if req.Capacity != nil {
		event.Capacity = req.Capacity
	}
	if req.Fee != nil {
		event.Fee = *req.Fee
		event.IsFree = event.Fee == 0
	}
	if req.IsFree != nil && *req.IsFree {
		event.Fee = 0
		event.IsFree = true
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}
	promoted, err := s.eventRepo.Update(ctx, event)
	if err != nil {
		return nil, err
	}
	for i := range promoted {
		s.publishRegistration(event, &promoted[i])
	}
	if len(promoted) > 0 {
		s.logger.Info().Int64("eventID", id).Int("promoted", len(promoted)).Msg("Waitlist promoted after capacity change")
	}
	return s.GetEvent(ctx, id)
}

// DeleteEvent removes an event and its registrations
func (s *eventServiceImpl) DeleteEvent(ctx context.Context, actor auth.Actor, id int64) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("eventID", id).Int64("by", actor.UserID).Msg("Event deleted")
	return nil
}

// ListEvents lists upcoming events by default
func (s *eventServiceImpl) ListEvents(ctx context.Context, filter *dto.EventFilterRequest) (*dto.EventListResponse, error) {
	f := models.EventFilter{
		SocietyID: filter.SocietyID,
		Free:      filter.Free,
		From:      filter.From,
		To:        filter.To,
		Available: filter.Available,
		Search:    filter.Search,
		Now:       s.now(),
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}
	if filter.Type != nil && *filter.Type != "" {
		t := models.EventType(*filter.Type)
		f.Type = &t
	}

	list, total, err := s.eventRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	resp := &dto.EventListResponse{
		Events:     make([]dto.EventResponse, 0, len(list)),
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}
	for i := range list {
		resp.Events = append(resp.Events, *dto.FromEvent(&list[i]))
	}
	return resp, nil
}

// GetEvent returns an event with its registration counts
func (s *eventServiceImpl) GetEvent(ctx context.Context, id int64) (*dto.EventResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromEvent(event), nil
}

// Register books a place, or a waitlist spot when the event is full.
// Paid events need a completed payment first.
func (s *eventServiceImpl) Register(ctx context.Context, actor auth.Actor, eventID int64) (*models.EventRegistration, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HasStarted(s.now()) {
		return nil, apperrors.ErrEventStarted
	}

	if !event.IsFree {
		paid, err := s.paymentRepo.HasPaid(ctx, actor.UserID, models.PurposeEvent, eventID)
		if err != nil {
			return nil, err
		}
		if !paid {
			return nil, apperrors.ErrPaymentRequired
		}
	}

	reg, err := s.eventRepo.Register(ctx, eventID, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.publishRegistration(event, reg)
	return reg, nil
}

// CancelRegistration withdraws the caller and promotes the next waitlisted user
func (s *eventServiceImpl) CancelRegistration(ctx context.Context, actor auth.Actor, eventID int64) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	promoted, err := s.eventRepo.CancelRegistration(ctx, eventID, actor.UserID)
	if err != nil {
		return err
	}
	if promoted != nil {
		s.logger.Info().Int64("eventID", eventID).Int64("userID", promoted.UserID).Msg("Waitlisted registration promoted")
		s.publishRegistration(event, promoted)
	}
	return nil
}

// RejectRegistration refuses a registration and frees its spot
func (s *eventServiceImpl) RejectRegistration(ctx context.Context, actor auth.Actor, eventID, registrationID int64) error {
	event, err := s.loadManaged(ctx, actor, eventID)
	if err != nil {
		return err
	}
	reg, err := s.eventRepo.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg.EventID != eventID {
		return apperrors.ErrRegistrationNotFound
	}

	promoted, err := s.eventRepo.RejectRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	reg.Status = models.RegistrationRejected
	s.publishRegistration(event, reg)
	if promoted != nil {
		s.publishRegistration(event, promoted)
	}
	return nil
}

// ListRegistrations lists everyone registered for an event
func (s *eventServiceImpl) ListRegistrations(ctx context.Context, actor auth.Actor, eventID int64) ([]models.EventRegistration, error) {
	if _, err := s.loadManaged(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListRegistrations(ctx, eventID)
}

// ListForUser lists the caller's registrations
func (s *eventServiceImpl) ListForUser(ctx context.Context, userID int64) ([]models.EventRegistration, error) {
	return s.eventRepo.ListRegistrationsForUser(ctx, userID)
}

func (s *eventServiceImpl) publishRegistration(event *models.Event, reg *models.EventRegistration) {
	var key int64
	if len(event.SocietyIDs) > 0 {
		key = event.SocietyIDs[0]
	}
	events.PublishAsync(s.publisher, s.logger, events.RegistrationUpdated, key, map[string]interface{}{
		"eventId":        event.ID,
		"registrationId": reg.ID,
		"userId":         reg.UserID,
		"status":         reg.Status,
	})
}
