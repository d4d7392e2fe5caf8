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
	"github.com/yigit/societyhub/internal/pkg/websocket"
)

// PollService runs society polls
type PollService interface {
	CreatePoll(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreatePollRequest) (*models.Poll, error)
	GetPoll(ctx context.Context, id int64) (*models.Poll, error)
	ListPolls(ctx context.Context, societyID int64) ([]models.Poll, error)
	Vote(ctx context.Context, actor auth.Actor, optionID int64) (*models.Poll, error)
	ClosePoll(ctx context.Context, actor auth.Actor, id int64) error
	DeletePoll(ctx context.Context, actor auth.Actor, id int64) error
}

type pollServiceImpl struct {
	pollRepo repositories.IPollRepository
	authz    *auth.AuthorizationService
	live     websocket.Broadcaster
	logger   zerolog.Logger
	now      func() time.Time
}

// NewPollService creates a new PollService
func NewPollService(pollRepo repositories.IPollRepository, authz *auth.AuthorizationService, live websocket.Broadcaster, logger zerolog.Logger) PollService {
	return &pollServiceImpl{
		pollRepo: pollRepo,
		authz:    authz,
		live:     live,
		logger:   logger,
		now:      time.Now,
	}
}

// CreatePoll stores a poll with all of its questions and options
func (s *pollServiceImpl) CreatePoll(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreatePollRequest) (*models.Poll, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	if req.ClosesAt != nil && !req.ClosesAt.After(s.now()) {
		return nil, apperrors.NewValidationError("closing time must be in the future")
	}

	poll := &models.Poll{
		SocietyID:   societyID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IsActive:    true,
		ClosesAt:    req.ClosesAt,
		CreatedBy:   actor.UserID,
	}
	for i, q := range req.Questions {
		question := models.Question{
			Text:          strings.TrimSpace(q.Text),
			AllowMultiple: q.AllowMultiple,
			Position:      i,
		}
		for _, text := range q.Options {
			question.Options = append(question.Options, models.Option{Text: strings.TrimSpace(text)})
		}
		poll.Questions = append(poll.Questions, question)
	}

	if err := s.pollRepo.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

// GetPoll returns a poll with its tallies
func (s *pollServiceImpl) GetPoll(ctx context.Context, id int64) (*models.Poll, error) {
	return s.pollRepo.GetPoll(ctx, id)
}

// ListPolls lists a society's polls
func (s *pollServiceImpl) ListPolls(ctx context.Context, societyID int64) ([]models.Poll, error) {
	return s.pollRepo.ListPolls(ctx, societyID)
}

// Vote records the caller's choice and pushes the new tallies to the live feed
func (s *pollServiceImpl) Vote(ctx context.Context, actor auth.Actor, optionID int64) (*models.Poll, error) {
	target, err := s.pollRepo.GetOptionTarget(ctx, optionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireCapability(ctx, target.SocietyID, actor.UserID, models.CapParticipate); err != nil {
		return nil, err
	}

	poll, err := s.pollRepo.GetPoll(ctx, target.PollID)
	if err != nil {
		return nil, err
	}
	if !poll.IsOpen(s.now()) {
		return nil, apperrors.ErrPollClosed
	}

	if _, err := s.pollRepo.Vote(ctx, target, actor.UserID); err != nil {
		return nil, err
	}

	poll, err = s.pollRepo.GetPoll(ctx, target.PollID)
	if err != nil {
		return nil, err
	}
	s.live.Broadcast(poll.SocietyID, websocket.TypePollUpdated, poll)
	return poll, nil
}

func (s *pollServiceImpl) loadManaged(ctx context.Context, actor auth.Actor, id int64) (*models.Poll, error) {
	poll, err := s.pollRepo.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireCapability(ctx, poll.SocietyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	return poll, nil
}

// ClosePoll stops accepting votes
func (s *pollServiceImpl) ClosePoll(ctx context.Context, actor auth.Actor, id int64) error {
	poll, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.pollRepo.ClosePoll(ctx, id); err != nil {
		return err
	}
	poll.IsActive = false
	s.live.Broadcast(poll.SocietyID, websocket.TypePollUpdated, poll)
	return nil
}

// DeletePoll removes a poll and its votes
func (s *pollServiceImpl) DeletePoll(ctx context.Context, actor auth.Actor, id int64) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	return s.pollRepo.DeletePoll(ctx, id)
}
