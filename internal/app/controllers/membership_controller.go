package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// MembershipController handles joining, leaving and member administration
type MembershipController struct {
	membershipService services.MembershipService
	logger            zerolog.Logger
}

// NewMembershipController creates a new MembershipController
func NewMembershipController(membershipService services.MembershipService, logger zerolog.Logger) *MembershipController {
	return &MembershipController{
		membershipService: membershipService,
		logger:            logger,
	}
}

// Join requests membership of a society
// @Summary Join a society
// @Description Creates a pending membership, or an approved one when the join quiz is passed. Paid societies require a completed payment.
// @Tags memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.JoinSocietyRequest false "Join quiz answers"
// @Success 201 {object} dto.APIResponse{data=models.Membership}
// @Failure 402 {object} dto.ErrorResponse "Membership fee not paid"
// @Failure 403 {object} dto.ErrorResponse "Join quiz failed"
// @Failure 409 {object} dto.ErrorResponse "Already a member"
// @Router /societies/{id}/join [post]
func (c *MembershipController) Join(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.JoinSocietyRequest
	if ctx.Request.ContentLength > 0 && !middleware.BindJSON(ctx, &req) {
		return
	}

	membership, err := c.membershipService.Join(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Membership request submitted"
	if membership.Status == models.MembershipApproved {
		message = "Welcome to the society"
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(membership, message))
}

// Leave removes the caller from a society
// @Summary Leave a society
// @Tags memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Not a member"
// @Failure 409 {object} dto.ErrorResponse "Manager must transfer management first"
// @Router /societies/{id}/leave [post]
func (c *MembershipController) Leave(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.membershipService.Leave(ctx.Request.Context(), actorFrom(ctx), societyID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Left society"))
}

// ListMembers lists a society's memberships
// @Summary List society members
// @Description Private societies only show members to approved members.
// @Tags memberships
// @Produce json
// @Param id path int true "Society ID"
// @Param status query string false "pending or approved"
// @Success 200 {object} dto.APIResponse{data=dto.MembershipListResponse}
// @Failure 403 {object} dto.ErrorResponse "Pending requests are visible to managers only"
// @Router /societies/{id}/members [get]
func (c *MembershipController) ListMembers(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	var status *models.MembershipStatus
	switch s := models.MembershipStatus(ctx.Query("status")); s {
	case "":
	case models.MembershipPending, models.MembershipApproved:
		status = &s
	default:
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status").WithField("status")))
		return
	}

	resp, err := c.membershipService.ListMembers(ctx.Request.Context(), actorFrom(ctx), societyID, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

func (c *MembershipController) memberPath(ctx *gin.Context) (int64, int64, bool) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return 0, 0, false
	}
	membershipID, ok := middleware.PathID(ctx, "membershipId")
	if !ok {
		return 0, 0, false
	}
	return societyID, membershipID, true
}

// Approve accepts a pending join request
// @Summary Approve a membership request
// @Tags memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param membershipId path int true "Membership ID"
// @Success 200 {object} dto.APIResponse{data=models.Membership}
// @Failure 403 {object} dto.ErrorResponse "Not allowed to manage members"
// @Failure 404 {object} dto.ErrorResponse "Membership not found"
// @Router /societies/{id}/members/{membershipId}/approve [put]
func (c *MembershipController) Approve(ctx *gin.Context) {
	societyID, membershipID, ok := c.memberPath(ctx)
	if !ok {
		return
	}

	membership, err := c.membershipService.Approve(ctx.Request.Context(), actorFrom(ctx), societyID, membershipID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(membership, "Membership approved"))
}

// Reject declines a pending join request
// @Summary Reject a membership request
// @Tags memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param membershipId path int true "Membership ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Not allowed to manage members"
// @Failure 404 {object} dto.ErrorResponse "Membership not found"
// @Router /societies/{id}/members/{membershipId}/reject [put]
func (c *MembershipController) Reject(ctx *gin.Context) {
	societyID, membershipID, ok := c.memberPath(ctx)
	if !ok {
		return
	}

	if err := c.membershipService.Reject(ctx.Request.Context(), actorFrom(ctx), societyID, membershipID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Membership rejected"))
}

// Remove expels a member
// @Summary Remove a member
// @Tags memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param membershipId path int true "Membership ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Insufficient role"
// @Router /societies/{id}/members/{membershipId} [delete]
func (c *MembershipController) Remove(ctx *gin.Context) {
	societyID, membershipID, ok := c.memberPath(ctx)
	if !ok {
		return
	}

	if err := c.membershipService.Remove(ctx.Request.Context(), actorFrom(ctx), societyID, membershipID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Member removed"))
}

// ChangeRole promotes or demotes a member
// @Summary Change a member's role
// @Tags memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param membershipId path int true "Membership ID"
// @Param request body dto.ChangeRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=models.Membership}
// @Failure 403 {object} dto.ErrorResponse "Insufficient role"
// @Router /societies/{id}/members/{membershipId}/role [put]
func (c *MembershipController) ChangeRole(ctx *gin.Context) {
	societyID, membershipID, ok := c.memberPath(ctx)
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	membership, err := c.membershipService.ChangeRole(ctx.Request.Context(), actorFrom(ctx), societyID, membershipID, req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(membership, "Role updated"))
}
