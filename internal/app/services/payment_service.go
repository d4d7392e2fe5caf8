package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/events"
	"github.com/yigit/societyhub/internal/pkg/payments"
)

// PaymentService starts checkouts and reacts to provider callbacks
type PaymentService interface {
	StartCheckout(ctx context.Context, actor auth.Actor, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ListForUser(ctx context.Context, userID int64) ([]models.Payment, error)
}

type paymentServiceImpl struct {
	paymentRepo repositories.IPaymentRepository
	eventRepo   repositories.IEventRepository
	societyRepo repositories.ISocietyRepository
	userRepo    repositories.IUserRepository
	gateway     payments.Gateway
	publisher   events.Publisher
	policy      Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo repositories.IPaymentRepository,
	eventRepo repositories.IEventRepository,
	societyRepo repositories.ISocietyRepository,
	userRepo repositories.IUserRepository,
	gateway payments.Gateway,
	publisher events.Publisher,
	policy Policy,
	logger zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		societyRepo: societyRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		publisher:   publisher,
		policy:      policy,
		logger:      logger,
		now:         time.Now,
	}
}

// StartCheckout records a pending payment and opens a hosted checkout for it
func (s *paymentServiceImpl) StartCheckout(ctx context.Context, actor auth.Actor, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	amount, description, err := s.priceOf(ctx, req.Purpose, req.ReferenceID)
	if err != nil {
		return nil, err
	}

	paid, err := s.paymentRepo.HasPaid(ctx, actor.UserID, req.Purpose, req.ReferenceID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, apperrors.ErrAlreadyPaid
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:      actor.UserID,
		Amount:      amount,
		Currency:    s.policy.Currency,
		Status:      models.PaymentPending,
		Purpose:     req.Purpose,
		ReferenceID: req.ReferenceID,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		PaymentID:     payment.ID,
		Amount:        amount,
		Currency:      payment.Currency,
		Description:   description,
		CustomerEmail: user.Email,
	})
	if err != nil {
		if markErr := s.paymentRepo.MarkFailed(ctx, payment.ID); markErr != nil {
			s.logger.Error().Err(markErr).Int64("paymentID", payment.ID).Msg("Could not mark payment failed")
		}
		if errors.Is(err, payments.ErrUnavailable) {
			return nil, apperrors.ErrPaymentsUnavailable
		}
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	if err := s.paymentRepo.SetExternalID(ctx, payment.ID, session.ID); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("paymentID", payment.ID).Str("purpose", string(req.Purpose)).Int64("referenceID", req.ReferenceID).Msg("Checkout started")
	return &dto.CheckoutResponse{
		PaymentID:   payment.ID,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// priceOf returns the amount owed for a purpose and a line item description
func (s *paymentServiceImpl) priceOf(ctx context.Context, purpose models.PaymentPurpose, referenceID int64) (int64, string, error) {
	switch purpose {
	case models.PurposeEvent:
		event, err := s.eventRepo.GetByID(ctx, referenceID)
		if err != nil {
			return 0, "", err
		}
		if event.IsFree || event.Fee <= 0 {
			return 0, "", apperrors.ErrNothingToPay
		}
		if event.HasStarted(s.now()) {
			return 0, "", apperrors.ErrEventStarted
		}
		return event.Fee, "Ticket: " + event.Name, nil

	case models.PurposeSociety:
		society, err := s.societyRepo.GetByID(ctx, referenceID)
		if err != nil {
			return 0, "", err
		}
		if society.Status != models.SocietyStatusApproved {
			return 0, "", apperrors.ErrSocietyNotApproved
		}
		if society.MembershipFee <= 0 {
			return 0, "", apperrors.ErrNothingToPay
		}
		return society.MembershipFee, "Membership: " + society.Name, nil
	}
	return 0, "", apperrors.NewValidationError("unknown payment purpose")
}

// HandleWebhook applies a verified provider callback. Repeated deliveries are harmless.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrUnavailable) {
			return apperrors.ErrPaymentsUnavailable
		}
		s.logger.Warn().Err(err).Msg("Rejected payment webhook")
		return apperrors.ErrInvalidWebhook
	}
	if evt.Type == payments.WebhookIgnored {
		return nil
	}

	payment, err := s.findPayment(ctx, evt)
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentNotFound) {
			s.logger.Warn().Str("sessionID", evt.SessionID).Msg("Webhook for unknown payment")
			return nil
		}
		return err
	}

	switch evt.Type {
	case payments.CheckoutCompleted:
		return s.completePayment(ctx, payment, evt.ChargeID)
	case payments.CheckoutFailed:
		return s.paymentRepo.MarkFailed(ctx, payment.ID)
	}
	return nil
}

func (s *paymentServiceImpl) findPayment(ctx context.Context, evt *payments.WebhookEvent) (*models.Payment, error) {
	if evt.PaymentID > 0 {
		return s.paymentRepo.GetByID(ctx, evt.PaymentID)
	}
	return s.paymentRepo.GetByExternalID(ctx, evt.SessionID)
}

func (s *paymentServiceImpl) completePayment(ctx context.Context, payment *models.Payment, chargeID string) error {
	changed, err := s.paymentRepo.MarkPaid(ctx, payment.ID, chargeID, s.now())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	key := payment.ReferenceID
	if payment.Purpose == models.PurposeEvent {
		reg, err := s.eventRepo.Register(ctx, payment.ReferenceID, payment.UserID)
		switch {
		case errors.Is(err, apperrors.ErrAlreadyRegistered):
		case err != nil:
			s.logger.Error().Err(err).Int64("paymentID", payment.ID).Int64("eventID", payment.ReferenceID).Msg("Paid but could not register")
		default:
			s.logger.Info().Int64("eventID", payment.ReferenceID).Int64("userID", payment.UserID).Str("status", string(reg.Status)).Msg("Registered after payment")
		}
		if event, err := s.eventRepo.GetByID(ctx, payment.ReferenceID); err == nil && len(event.SocietyIDs) > 0 {
			key = event.SocietyIDs[0]
		}
	}

	events.PublishAsync(s.publisher, s.logger, events.PaymentPaid, key, map[string]interface{}{
		"paymentId":   payment.ID,
		"userId":      payment.UserID,
		"purpose":     payment.Purpose,
		"referenceId": payment.ReferenceID,
		"amount":      payment.Amount,
	})
	return nil
}

// ListForUser lists the caller's payments
func (s *paymentServiceImpl) ListForUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}
