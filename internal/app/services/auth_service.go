package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/auth"
	"github.com/yigit/societyhub/internal/pkg/email"
	"github.com/yigit/societyhub/internal/pkg/validation"
)

// AuthService handles sign-up, email verification and sessions
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Activate(ctx context.Context, token string) (*dto.UserResponse, error)
	ResendActivation(ctx context.Context, email string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Reverify(ctx context.Context, token string) (*dto.UserResponse, error)
}

type authServiceImpl struct {
	userRepo   repositories.IUserRepository
	tokenRepo  repositories.ITokenRepository
	verifyRepo repositories.IVerificationTokenRepository
	jwtService *auth.JWTService
	mailer     email.EmailService
	domains    *validation.DomainPolicy
	policy     Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	verifyRepo repositories.IVerificationTokenRepository,
	jwtService *auth.JWTService,
	mailer email.EmailService,
	domains *validation.DomainPolicy,
	policy Policy,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		verifyRepo: verifyRepo,
		jwtService: jwtService,
		mailer:     mailer,
		domains:    domains,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an inactive account and emails the activation link
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.domains.Allows(addr) {
		return nil, apperrors.ErrEmailDomainNotAllowed
	}
	if !auth.IsStrongPassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least %d characters and contain a letter and a digit",
			apperrors.ErrInvalidPassword, auth.MinPasswordLength)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     addr,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendActivation(ctx, user); err != nil {
		// The account exists; the user can ask for a new link
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to send activation email")
	}

	s.logger.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("User registered")
	return dto.FromUser(user), nil
}

func (s *authServiceImpl) sendActivation(ctx context.Context, user *models.User) error {
	if err := s.verifyRepo.DeleteForUser(ctx, user.ID, models.TokenPurposeActivation); err != nil {
		return err
	}
	token := &models.VerificationToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		Purpose:   models.TokenPurposeActivation,
		ExpiresAt: s.now().Add(s.policy.ActivationTokenTTL),
	}
	if err := s.verifyRepo.Create(ctx, token); err != nil {
		return err
	}
	return s.mailer.SendActivationEmail(user.Email, user.FullName(), token.Token)
}

// Activate consumes an activation token and enables the account
func (s *authServiceImpl) Activate(ctx context.Context, token string) (*dto.UserResponse, error) {
	return s.consumeVerification(ctx, token, models.TokenPurposeActivation, s.userRepo.Activate)
}

// Reverify consumes a re-verification token, lifting any deactivation
func (s *authServiceImpl) Reverify(ctx context.Context, token string) (*dto.UserResponse, error) {
	return s.consumeVerification(ctx, token, models.TokenPurposeReverification, s.userRepo.Reverify)
}

func (s *authServiceImpl) consumeVerification(
	ctx context.Context,
	token string,
	purpose models.TokenPurpose,
	apply func(ctx context.Context, userID int64, at time.Time) error,
) (*dto.UserResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	now := s.now()
	vt, err := s.verifyRepo.Consume(ctx, token, purpose, now)
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, vt.UserID, now); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, vt.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", user.ID).Str("purpose", string(purpose)).Msg("Email verified")
	return dto.FromUser(user), nil
}

// ResendActivation issues a fresh activation link for a never-verified account.
// Unknown addresses succeed silently.
func (s *authServiceImpl) ResendActivation(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerifiedAt != nil {
		return apperrors.ErrEmailAlreadyVerified
	}
	return s.sendActivation(ctx, user)
}

// Login authenticates an active user
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not record last login")
	} else {
		user.LastLoginAt = &now
	}

	return &dto.AuthResponse{Token: *token, User: dto.FromUser(user)}, nil
}

// RefreshToken rotates a refresh token and issues a new access token
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, err := s.tokenRepo.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		_ = s.tokenRepo.RevokeAllUserTokens(ctx, user.ID)
		return nil, apperrors.ErrAccountDisabled
	}

	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}
	if err := s.tokenRepo.RotateToken(ctx, refreshToken, pair.RefreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}
	return tokenResponse(pair), nil
}

// Logout revokes a refresh token
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.ErrTokenInvalid
	}
	return s.tokenRepo.RevokeToken(ctx, refreshToken)
}

func (s *authServiceImpl) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}
	return tokenResponse(pair), nil
}

func tokenResponse(pair *auth.TokenPair) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.ExpiresIn),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
	}
}
