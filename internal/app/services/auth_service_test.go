package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/auth"
	"github.com/yigit/societyhub/internal/pkg/validation"
)

type authFixture struct {
	svc    *authServiceImpl
	users  *fakeUserRepo
	tokens *fakeTokenRepo
	verify *fakeVerificationRepo
	mailer *fakeMailer
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  newFakeUserRepo(),
		tokens: newFakeTokenRepo(),
		verify: newFakeVerificationRepo(),
		mailer: &fakeMailer{},
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "societyhub-test",
	})
	f.svc = NewAuthService(f.users, f.tokens, f.verify, jwtService, f.mailer,
		validation.NewDomainPolicy([]string{"leeds.ac.uk"}), DefaultPolicy(), testLogger).(*authServiceImpl)
	return f
}

func registerRequest(email string) *dto.RegisterRequest {
	return &dto.RegisterRequest{Email: email, Password: "s3cretpass", FirstName: "Ada", LastName: "Lovelace"}
}

func TestRegisterRejectsForeignDomain(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), registerRequest("ada@gmail.com"))
	assert.ErrorIs(t, err, apperrors.ErrEmailDomainNotAllowed)
	assert.Empty(t, f.users.users)
	assert.Empty(t, f.mailer.sent)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newAuthFixture()
	req := registerRequest("ada@leeds.ac.uk")
	req.Password = "onlyletters"

	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestRegisterActivateLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.svc.Register(ctx, registerRequest(" Ada@Leeds.ac.uk "))
	require.NoError(t, err)
	assert.Equal(t, "ada@leeds.ac.uk", user.Email)
	assert.False(t, user.IsActive)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "activation", f.mailer.sent[0].Kind)

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "ada@leeds.ac.uk", Password: "s3cretpass"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)

	activated, err := f.svc.Activate(ctx, f.mailer.sent[0].Token)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.NotNil(t, activated.EmailVerifiedAt)

	_, err = f.svc.Activate(ctx, f.mailer.sent[0].Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "ada@leeds.ac.uk", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.NotNil(t, f.users.users[user.ID].LastLoginAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerRequest("ada@leeds.ac.uk"))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, registerRequest("ada@leeds.ac.uk"))
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestActivateExpiredToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = fixedClock(start)

	_, err := f.svc.Register(ctx, registerRequest("ada@leeds.ac.uk"))
	require.NoError(t, err)

	f.svc.now = fixedClock(start.Add(DefaultPolicy().ActivationTokenTTL + time.Minute))
	_, err = f.svc.Activate(ctx, f.mailer.sent[0].Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@leeds.ac.uk", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	hashed, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)
	f.users.add(&models.User{Email: "ada@leeds.ac.uk", Password: hashed, IsActive: true})

	_, err = f.svc.Login(context.Background(), &dto.LoginRequest{Email: "ada@leeds.ac.uk", Password: "wrongpass1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	hashed, err := auth.HashPassword("s3cretpass")
	require.NoError(t, err)
	f.users.add(&models.User{Email: "ada@leeds.ac.uk", Password: hashed, IsActive: true})

	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "ada@leeds.ac.uk", Password: "s3cretpass"})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, resp.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.RefreshToken)

	_, err = f.svc.RefreshToken(ctx, resp.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	require.NoError(t, f.svc.Logout(ctx, refreshed.RefreshToken))
	_, err = f.svc.RefreshToken(ctx, refreshed.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestResendActivation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	assert.NoError(t, f.svc.ResendActivation(ctx, "ghost@leeds.ac.uk"))
	assert.Empty(t, f.mailer.sent)

	user, err := f.svc.Register(ctx, registerRequest("ada@leeds.ac.uk"))
	require.NoError(t, err)
	require.NoError(t, f.svc.ResendActivation(ctx, "ada@leeds.ac.uk"))
	require.Len(t, f.mailer.sent, 2)

	// only the newest link stays valid
	_, err = f.svc.Activate(ctx, f.mailer.sent[0].Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	_, err = f.svc.Activate(ctx, f.mailer.sent[1].Token)
	require.NoError(t, err)

	err = f.svc.ResendActivation(ctx, "ada@leeds.ac.uk")
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyVerified)
	assert.True(t, f.users.users[user.ID].IsActive)
}
