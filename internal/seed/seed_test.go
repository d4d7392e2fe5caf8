package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appModels "github.com/yigit/societyhub/internal/app/models"
	appRepos "github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/auth"
)

type memoryUsers struct {
	appRepos.IUserRepository
	byEmail map[string]*appModels.User
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*appModels.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memoryUsers) Create(ctx context.Context, user *appModels.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return apperrors.ErrEmailAlreadyExists
	}
	user.ID = int64(len(m.byEmail) + 1)
	m.byEmail[user.Email] = user
	return nil
}

func TestCreateDefaultData(t *testing.T) {
	repo := &memoryUsers{byEmail: map[string]*appModels.User{}}
	admin := AdminAccount{Email: "admin@leeds.ac.uk", Password: "Sup3r-Secret!"}

	require.NoError(t, CreateDefaultData(context.Background(), repo, admin, zerolog.Nop()))

	created := repo.byEmail["admin@leeds.ac.uk"]
	require.NotNil(t, created)
	assert.True(t, created.IsStaff)
	assert.True(t, created.IsActive)
	assert.NotNil(t, created.EmailVerifiedAt)
	assert.True(t, auth.CheckPassword(created.Password, "Sup3r-Secret!"))

	// second run is a no-op
	require.NoError(t, CreateDefaultData(context.Background(), repo, admin, zerolog.Nop()))
	assert.Len(t, repo.byEmail, 1)
}

func TestCreateDefaultDataSkipsWithoutEmail(t *testing.T) {
	repo := &memoryUsers{byEmail: map[string]*appModels.User{}}
	require.NoError(t, CreateDefaultData(context.Background(), repo, AdminAccount{}, zerolog.Nop()))
	assert.Empty(t, repo.byEmail)
}

func TestCreateDefaultDataRequiresPassword(t *testing.T) {
	repo := &memoryUsers{byEmail: map[string]*appModels.User{}}
	err := CreateDefaultData(context.Background(), repo, AdminAccount{Email: "admin@leeds.ac.uk"}, zerolog.Nop())
	assert.Error(t, err)
}
