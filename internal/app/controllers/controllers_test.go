package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
)

type fakeSocietyService struct {
	services.SocietyService
	lastActor   auth.Actor
	lastCreate  *dto.CreateSocietyRequest
	deleteState models.SocietyStatus
}

func (f *fakeSocietyService) CreateSociety(ctx context.Context, actor auth.Actor, req *dto.CreateSocietyRequest) (*dto.SocietyResponse, error) {
	f.lastActor = actor
	f.lastCreate = req
	return &dto.SocietyResponse{ID: 1, Name: req.Name, Status: models.SocietyStatusPending}, nil
}

func (f *fakeSocietyService) GetSociety(ctx context.Context, actor auth.Actor, id int64) (*dto.SocietyResponse, error) {
	return nil, apperrors.ErrSocietyNotFound
}

func (f *fakeSocietyService) RequestDeletion(ctx context.Context, actor auth.Actor, id int64) (models.SocietyStatus, error) {
	return f.deleteState, nil
}

type fakeMembershipService struct {
	services.MembershipService
	joinStatus models.MembershipStatus
	joinErr    error
	answers    []int
	listed     *models.MembershipStatus
}

func (f *fakeMembershipService) Join(ctx context.Context, actor auth.Actor, societyID int64, req *dto.JoinSocietyRequest) (*models.Membership, error) {
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	f.answers = req.QuizAnswers
	return &models.Membership{ID: 9, SocietyID: societyID, UserID: actor.UserID, Status: f.joinStatus}, nil
}

func (f *fakeMembershipService) ListMembers(ctx context.Context, actor auth.Actor, societyID int64, status *models.MembershipStatus) (*dto.MembershipListResponse, error) {
	f.listed = status
	return &dto.MembershipListResponse{}, nil
}

type fakePaymentService struct {
	services.PaymentService
	payload   string
	signature string
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	f.payload = string(payload)
	f.signature = signature
	if signature == "" {
		return apperrors.ErrInvalidWebhook
	}
	return nil
}

// asUser stands in for the auth middleware
func asUser(userID int64, isStaff bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextIsStaff, isStaff)
		c.Next()
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSocietyControllerCreate(t *testing.T) {
	svc := &fakeSocietyService{}
	ctrl := NewSocietyController(svc, zerolog.Nop())
	router := newRouter()
	router.POST("/societies", asUser(4, false), ctrl.CreateSociety)

	t.Run("valid application", func(t *testing.T) {
		body := `{"name":"Chess Club","description":"Weekly games","type":"sports"}`
		req := httptest.NewRequest(http.MethodPost, "/societies", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decode(t, w).Success)
		assert.Equal(t, auth.Actor{UserID: 4}, svc.lastActor)
		assert.Equal(t, "Chess Club", svc.lastCreate.Name)
	})

	t.Run("unknown type", func(t *testing.T) {
		body := `{"name":"Chess Club","description":"Weekly games","type":"gaming"}`
		req := httptest.NewRequest(http.MethodPost, "/societies", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidationFailed, decode(t, w).Error.Code)
	})
}

func TestSocietyControllerGetNotFound(t *testing.T) {
	ctrl := NewSocietyController(&fakeSocietyService{}, zerolog.Nop())
	router := newRouter()
	router.GET("/societies/:id", ctrl.GetSociety)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/societies/3", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeResourceNotFound, decode(t, w).Error.Code)
}

func TestSocietyControllerRequestDeletion(t *testing.T) {
	ctrl := NewSocietyController(&fakeSocietyService{deleteState: models.SocietyStatusRequestDelete}, zerolog.Nop())
	router := newRouter()
	router.DELETE("/societies/:id", asUser(4, false), ctrl.RequestDeletion)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/societies/3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"request_delete"`)
}

func TestMembershipControllerJoin(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		svc     *fakeMembershipService
		status  int
		message string
	}{
		{"open society", "", &fakeMembershipService{joinStatus: models.MembershipApproved}, http.StatusCreated, "Welcome to the society"},
		{"pending approval", "", &fakeMembershipService{joinStatus: models.MembershipPending}, http.StatusCreated, "Membership request submitted"},
		{"quiz failed", `{"quizAnswers":[0,1]}`, &fakeMembershipService{joinErr: apperrors.ErrQuizFailed}, http.StatusForbidden, "Join quiz failed"},
		{"fee unpaid", "", &fakeMembershipService{joinErr: apperrors.ErrPaymentRequired}, http.StatusPaymentRequired, "Payment required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewMembershipController(tt.svc, zerolog.Nop())
			router := newRouter()
			router.POST("/societies/:id/join", asUser(6, false), ctrl.Join)

			req := httptest.NewRequest(http.MethodPost, "/societies/2/join", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			if resp.Error != nil {
				assert.Equal(t, tt.message, resp.Error.Message)
			} else {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestMembershipControllerJoinPassesAnswers(t *testing.T) {
	svc := &fakeMembershipService{joinStatus: models.MembershipApproved}
	ctrl := NewMembershipController(svc, zerolog.Nop())
	router := newRouter()
	router.POST("/societies/:id/join", asUser(6, false), ctrl.Join)

	req := httptest.NewRequest(http.MethodPost, "/societies/2/join", strings.NewReader(`{"quizAnswers":[2,0,1]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []int{2, 0, 1}, svc.answers)
}

func TestMembershipControllerListMembersStatusFilter(t *testing.T) {
	svc := &fakeMembershipService{}
	ctrl := NewMembershipController(svc, zerolog.Nop())
	router := newRouter()
	router.GET("/societies/:id/members", asUser(6, false), ctrl.ListMembers)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/societies/2/members?status=pending", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.listed)
	assert.Equal(t, models.MembershipPending, *svc.listed)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/societies/2/members?status=banned", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentControllerWebhook(t *testing.T) {
	svc := &fakePaymentService{}
	ctrl := NewPaymentController(svc, zerolog.Nop())
	router := newRouter()
	router.POST("/payments/webhook", ctrl.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t=1,v1=abc", svc.signature)
	assert.Equal(t, `{"type":"checkout.session.completed"}`, svc.payload)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidWebhook, decode(t, w).Error.Code)
}

func TestSearchControllerRequiresQuery(t *testing.T) {
	ctrl := NewSearchController(nil, zerolog.Nop())
	router := newRouter()
	router.GET("/search", ctrl.Search)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=%20", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "q", decode(t, w).Error.Field)
}
