package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

// AdminController exposes staff moderation endpoints
type AdminController struct {
	societyService services.SocietyService
	userService    services.UserService
	logger         zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(societyService services.SocietyService, userService services.UserService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		societyService: societyService,
		userService:    userService,
		logger:         logger,
	}
}

// ListSocieties lists societies in any status
// @Summary List societies for moderation
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected, request_delete, deleted or all" default(pending)
// @Param type query string false "Society type"
// @Param search query string false "Name search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.SocietyListResponse}
// @Failure 403 {object} dto.ErrorResponse "Staff only"
// @Router /admin/societies [get]
func (c *AdminController) ListSocieties(ctx *gin.Context) {
	var filter dto.SocietyFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}
	if filter.Status == nil {
		pending := "pending"
		filter.Status = &pending
	}

	resp, err := c.societyService.ListSocieties(ctx.Request.Context(), actorFrom(ctx), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// ApproveSociety approves a pending society
// @Summary Approve a society
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse
// @Failure 409 {object} dto.ErrorResponse "Society is not pending"
// @Router /admin/societies/{id}/approve [put]
func (c *AdminController) ApproveSociety(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.societyService.ApproveSociety(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("societyID", id).Int64("staffID", actorFrom(ctx).UserID).Msg("Society approved")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Society approved"))
}

// RejectSociety rejects a pending society with a reason
// @Summary Reject a society
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.RejectSocietyRequest true "Reason"
// @Success 200 {object} dto.APIResponse
// @Failure 409 {object} dto.ErrorResponse "Society is not pending"
// @Router /admin/societies/{id}/reject [put]
func (c *AdminController) RejectSociety(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.RejectSocietyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.societyService.RejectSociety(ctx.Request.Context(), actorFrom(ctx), id, req.Reason); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Society rejected"))
}

// ApproveDeletion confirms a deletion request
// @Summary Approve a society deletion
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse
// @Failure 409 {object} dto.ErrorResponse "No deletion pending"
// @Router /admin/societies/{id}/deletion/approve [put]
func (c *AdminController) ApproveDeletion(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.societyService.ApproveDeletion(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Society deleted"))
}

// DeclineDeletion restores a society whose deletion was requested
// @Summary Decline a society deletion
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse
// @Failure 409 {object} dto.ErrorResponse "No deletion pending"
// @Router /admin/societies/{id}/deletion/decline [put]
func (c *AdminController) DeclineDeletion(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.societyService.DeclineDeletion(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Deletion declined"))
}

// ListUsers pages through all accounts
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.userService.ListUsers(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// SweepVerification runs the email verification sweep now
// @Summary Run the verification sweep
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.SweepResult}
// @Router /admin/users/sweep [post]
func (c *AdminController) SweepVerification(ctx *gin.Context) {
	result, err := c.userService.SweepVerification(ctx.Request.Context(), time.Now().UTC())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Interface("result", result).Msg("Verification sweep triggered by staff")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, "Sweep complete"))
}
