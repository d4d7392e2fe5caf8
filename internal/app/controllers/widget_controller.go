package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// WidgetController manages the widgets of a society page
type WidgetController struct {
	widgetService services.WidgetService
	logger        zerolog.Logger
}

// NewWidgetController creates a new WidgetController
func NewWidgetController(widgetService services.WidgetService, logger zerolog.Logger) *WidgetController {
	return &WidgetController{
		widgetService: widgetService,
		logger:        logger,
	}
}

// ListWidgets lists a society's widgets in display order
// @Summary List society page widgets
// @Description Hidden widgets are only returned to content managers.
// @Tags widgets
// @Produce json
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Widget}
// @Router /societies/{id}/widgets [get]
func (c *WidgetController) ListWidgets(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	widgets, err := c.widgetService.ListWidgets(ctx.Request.Context(), actorFrom(ctx), societyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(widgets, ""))
}

// CreateWidget appends a widget
// @Summary Add a widget
// @Tags widgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreateWidgetRequest true "Widget"
// @Success 201 {object} dto.APIResponse{data=models.Widget}
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Router /societies/{id}/widgets [post]
func (c *WidgetController) CreateWidget(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateWidgetRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	widget, err := c.widgetService.CreateWidget(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(widget, "Widget added"))
}

// UpdateWidget edits a widget
// @Summary Update a widget
// @Tags widgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param widgetId path int true "Widget ID"
// @Param request body dto.UpdateWidgetRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Widget}
// @Failure 404 {object} dto.ErrorResponse "Widget not found"
// @Router /societies/{id}/widgets/{widgetId} [put]
func (c *WidgetController) UpdateWidget(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	widgetID, ok := middleware.PathID(ctx, "widgetId")
	if !ok {
		return
	}
	var req dto.UpdateWidgetRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	widget, err := c.widgetService.UpdateWidget(ctx.Request.Context(), actorFrom(ctx), societyID, widgetID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(widget, "Widget updated"))
}

// DeleteWidget removes a widget
// @Summary Delete a widget
// @Tags widgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param widgetId path int true "Widget ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Widget not found"
// @Router /societies/{id}/widgets/{widgetId} [delete]
func (c *WidgetController) DeleteWidget(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	widgetID, ok := middleware.PathID(ctx, "widgetId")
	if !ok {
		return
	}

	if err := c.widgetService.DeleteWidget(ctx.Request.Context(), actorFrom(ctx), societyID, widgetID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Widget deleted"))
}

// ReorderWidgets sets the display order
// @Summary Reorder widgets
// @Tags widgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.ReorderWidgetsRequest true "Every widget id in the new order"
// @Success 200 {object} dto.APIResponse{data=[]models.Widget}
// @Failure 400 {object} dto.ErrorResponse "Ids do not match the society's widgets"
// @Router /societies/{id}/widgets/order [put]
func (c *WidgetController) ReorderWidgets(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReorderWidgetsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	widgets, err := c.widgetService.ReorderWidgets(ctx.Request.Context(), actorFrom(ctx), societyID, req.WidgetIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(widgets, "Widgets reordered"))
}
