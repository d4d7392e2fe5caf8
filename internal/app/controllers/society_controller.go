package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// SocietyController handles society lifecycle endpoints
type SocietyController struct {
	societyService services.SocietyService
	logger         zerolog.Logger
}

// NewSocietyController creates a new SocietyController
func NewSocietyController(societyService services.SocietyService, logger zerolog.Logger) *SocietyController {
	return &SocietyController{
		societyService: societyService,
		logger:         logger,
	}
}

// CreateSociety applies for a new society
// @Summary Apply for a new society
// @Description Creates a pending society managed by the caller. A user may own at most three non-rejected societies.
// @Tags societies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSocietyRequest true "Society application"
// @Success 201 {object} dto.APIResponse{data=dto.SocietyResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 409 {object} dto.ErrorResponse "Name taken or ownership limit reached"
// @Router /societies [post]
func (c *SocietyController) CreateSociety(ctx *gin.Context) {
	var req dto.CreateSocietyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	society, err := c.societyService.CreateSociety(ctx.Request.Context(), actorFrom(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(society, "Society application submitted"))
}

// ListSocieties lists societies visible to the caller
// @Summary List societies
// @Description Anonymous callers and students see approved societies. Staff may filter by any status or use status=all.
// @Tags societies
// @Produce json
// @Param type query string false "Society type"
// @Param status query string false "Status filter (staff only)"
// @Param search query string false "Name search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.SocietyListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid query"
// @Router /societies [get]
func (c *SocietyController) ListSocieties(ctx *gin.Context) {
	var filter dto.SocietyFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	resp, err := c.societyService.ListSocieties(ctx.Request.Context(), actorFrom(ctx), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// GetSociety returns one society
// @Summary Get a society
// @Tags societies
// @Produce json
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=dto.SocietyResponse}
// @Failure 404 {object} dto.ErrorResponse "Society not found"
// @Router /societies/{id} [get]
func (c *SocietyController) GetSociety(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	society, err := c.societyService.GetSociety(ctx.Request.Context(), actorFrom(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(society, ""))
}

// UpdateSociety edits society details
// @Summary Update a society
// @Tags societies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.UpdateSocietyRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.SocietyResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a manager"
// @Failure 404 {object} dto.ErrorResponse "Society not found"
// @Router /societies/{id} [put]
func (c *SocietyController) UpdateSociety(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateSocietyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	society, err := c.societyService.UpdateSociety(ctx.Request.Context(), actorFrom(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(society, "Society updated"))
}

// UploadLogo replaces the society logo
// @Summary Upload a society logo
// @Tags societies
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param logo formData file true "Logo image"
// @Success 200 {object} dto.APIResponse{data=dto.SocietyResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Failure 403 {object} dto.ErrorResponse "Not a manager"
// @Router /societies/{id}/logo [post]
func (c *SocietyController) UploadLogo(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("logo")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Logo file is required").WithField("logo")))
		return
	}

	society, err := c.societyService.UploadLogo(ctx.Request.Context(), actorFrom(ctx), id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(society, "Logo updated"))
}

// TransferManagement hands the society to a co-manager
// @Summary Transfer society management
// @Tags societies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.TransferManagementRequest true "New manager"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Not the manager"
// @Failure 409 {object} dto.ErrorResponse "Target is not a co-manager"
// @Router /societies/{id}/transfer [post]
func (c *SocietyController) TransferManagement(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.TransferManagementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.societyService.TransferManagement(ctx.Request.Context(), actorFrom(ctx), id, req.NewManagerID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Management transferred"))
}

// RequestDeletion asks for the society to be deleted
// @Summary Request society deletion
// @Description Small societies are deleted immediately; larger ones wait for staff approval.
// @Tags societies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=map[string]string}
// @Failure 403 {object} dto.ErrorResponse "Not the manager"
// @Failure 409 {object} dto.ErrorResponse "Status does not allow deletion"
// @Router /societies/{id} [delete]
func (c *SocietyController) RequestDeletion(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	status, err := c.societyService.RequestDeletion(ctx.Request.Context(), actorFrom(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": status}, "Deletion requested"))
}
