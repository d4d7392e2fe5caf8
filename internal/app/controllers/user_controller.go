package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// UserController serves the caller's own profile and activity
type UserController struct {
	userService       services.UserService
	membershipService services.MembershipService
	eventService      services.EventService
	paymentService    services.PaymentService
	logger            zerolog.Logger
}

// NewUserController creates a new user controller
func NewUserController(
	userService services.UserService,
	membershipService services.MembershipService,
	eventService services.EventService,
	paymentService services.PaymentService,
	logger zerolog.Logger,
) *UserController {
	return &UserController{
		userService:       userService,
		membershipService: membershipService,
		eventService:      eventService,
		paymentService:    paymentService,
		logger:            logger,
	}
}

// GetProfile returns the authenticated user
// @Summary Get current user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user, err := c.userService.GetProfile(ctx.Request.Context(), actorFrom(ctx).UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// UpdateProfile changes the authenticated user's name
// @Summary Update current user's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateProfile(ctx.Request.Context(), actorFrom(ctx).UserID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "Profile updated"))
}

// MyMemberships lists every membership of the caller
// @Summary List my society memberships
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Membership}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /profile/memberships [get]
func (c *UserController) MyMemberships(ctx *gin.Context) {
	memberships, err := c.membershipService.ListForUser(ctx.Request.Context(), actorFrom(ctx).UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(memberships, ""))
}

// MyRegistrations lists the caller's event registrations
// @Summary List my event registrations
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.EventRegistration}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /profile/registrations [get]
func (c *UserController) MyRegistrations(ctx *gin.Context) {
	regs, err := c.eventService.ListForUser(ctx.Request.Context(), actorFrom(ctx).UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(regs, ""))
}

// MyPayments lists the caller's payments
// @Summary List my payments
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Payment}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /profile/payments [get]
func (c *UserController) MyPayments(ctx *gin.Context) {
	payments, err := c.paymentService.ListForUser(ctx.Request.Context(), actorFrom(ctx).UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(payments, ""))
}
