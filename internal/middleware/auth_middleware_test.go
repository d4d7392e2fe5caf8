package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/auth"
)

type fakeUserRepo struct {
	repositories.IUserRepository
	users map[int64]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func newTestAuth(users ...*models.User) (*AuthMiddleware, *auth.JWTService) {
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "societyhub-test",
	})
	repo := &fakeUserRepo{users: map[int64]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return NewAuthMiddleware(jwtSvc, repo), jwtSvc
}

func accessToken(t *testing.T, svc *auth.JWTService, user *models.User) string {
	t.Helper()
	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	return pair.AccessToken
}

func whoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userID":  c.GetInt64(ContextUserID),
		"isStaff": c.GetBool(ContextIsStaff),
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorDetail {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, jwtSvc := newTestAuth()
	ada := &models.User{ID: 7, Email: "ada@leeds.ac.uk", IsStaff: true}

	router := gin.New()
	router.GET("/me", m.JWTAuth(), whoAmI)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, jwtSvc, ada))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userID":7,"isStaff":true}`, w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?token="+accessToken(t, jwtSvc, ada), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, w).Code)
	})
}

func TestJWTAuthExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := newTestAuth()
	stale := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "middleware-secret",
		AccessTokenExp: -time.Minute,
		TokenIssuer:    "societyhub-test",
	})

	router := gin.New()
	router.GET("/me", m.JWTAuth(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, stale, &models.User{ID: 1, Email: "a@leeds.ac.uk"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Code)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := newTestAuth()

	router := gin.New()
	router.GET("/societies", m.OptionalAuth(), whoAmI)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/societies", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":0,"isStaff":false}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/societies", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActiveAccountRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	active := &models.User{ID: 1, Email: "on@leeds.ac.uk", IsActive: true}
	disabled := &models.User{ID: 2, Email: "off@leeds.ac.uk", IsActive: false}
	m, jwtSvc := newTestAuth(active, disabled)

	router := gin.New()
	router.GET("/me", m.JWTAuth(), m.ActiveAccountRequired(), whoAmI)

	tests := []struct {
		name   string
		user   *models.User
		status int
	}{
		{"active account", active, http.StatusOK},
		{"disabled account", disabled, http.StatusForbidden},
		{"deleted account", &models.User{ID: 99, Email: "gone@leeds.ac.uk"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+accessToken(t, jwtSvc, tt.user))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestStaffRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, jwtSvc := newTestAuth()

	router := gin.New()
	router.GET("/admin", m.JWTAuth(), m.StaffRequired(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, jwtSvc, &models.User{ID: 3, Email: "s@leeds.ac.uk"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, decodeError(t, w).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, jwtSvc, &models.User{ID: 4, Email: "staff@leeds.ac.uk", IsStaff: true}))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
