package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// NewsController handles society news
type NewsController struct {
	newsService services.NewsService
	logger      zerolog.Logger
}

// NewNewsController creates a new NewsController
func NewNewsController(newsService services.NewsService, logger zerolog.Logger) *NewsController {
	return &NewsController{
		newsService: newsService,
		logger:      logger,
	}
}

// CreateNews writes a news draft
// @Summary Create a news draft
// @Tags news
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreateNewsRequest true "News"
// @Success 201 {object} dto.APIResponse{data=models.News}
// @Failure 403 {object} dto.ErrorResponse "Editors only"
// @Router /societies/{id}/news [post]
func (c *NewsController) CreateNews(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateNewsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	news, err := c.newsService.CreateNews(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(news, "Draft created"))
}

// ListDrafts lists unpublished news of a society
// @Summary List news drafts
// @Tags news
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=[]models.News}
// @Failure 403 {object} dto.ErrorResponse "Editors only"
// @Router /societies/{id}/news/drafts [get]
func (c *NewsController) ListDrafts(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	drafts, err := c.newsService.ListDrafts(ctx.Request.Context(), actorFrom(ctx), societyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(drafts, ""))
}

// ListPublished lists published news
// @Summary List published news
// @Tags news
// @Produce json
// @Param societyId query int false "Society"
// @Param eventId query int false "Related event"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /news [get]
func (c *NewsController) ListPublished(ctx *gin.Context) {
	var filter dto.NewsFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	resp, err := c.newsService.ListPublished(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// GetNews returns a news item and counts the view
// @Summary Get a news item
// @Tags news
// @Produce json
// @Param id path int true "News ID"
// @Success 200 {object} dto.APIResponse{data=models.News}
// @Failure 404 {object} dto.ErrorResponse "News not found"
// @Router /news/{id} [get]
func (c *NewsController) GetNews(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	news, err := c.newsService.GetNews(ctx.Request.Context(), actorFrom(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(news, ""))
}

// UpdateNews edits a news item
// @Summary Update a news item
// @Tags news
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "News ID"
// @Param request body dto.UpdateNewsRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.News}
// @Failure 403 {object} dto.ErrorResponse "Editors only"
// @Router /news/{id} [put]
func (c *NewsController) UpdateNews(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateNewsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	news, err := c.newsService.UpdateNews(ctx.Request.Context(), actorFrom(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(news, "News updated"))
}

// Publish makes a draft public
// @Summary Publish a news item
// @Tags news
// @Produce json
// @Security BearerAuth
// @Param id path int true "News ID"
// @Success 200 {object} dto.APIResponse{data=models.News}
// @Failure 403 {object} dto.ErrorResponse "Editors only"
// @Router /news/{id}/publish [post]
func (c *NewsController) Publish(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	news, err := c.newsService.Publish(ctx.Request.Context(), actorFrom(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(news, "News published"))
}

// Unpublish turns a published item back into a draft
// @Summary Unpublish a news item
// @Tags news
// @Produce json
// @Security BearerAuth
// @Param id path int true "News ID"
// @Success 200 {object} dto.APIResponse{data=models.News}
// @Failure 403 {object} dto.ErrorResponse "Editors only"
// @Router /news/{id}/unpublish [post]
func (c *NewsController) Unpublish(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	news, err := c.newsService.Unpublish(ctx.Request.Context(), actorFrom(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(news, "News unpublished"))
}

// DeleteNews removes a news item and its image
// @Summary Delete a news item
// @Tags news
// @Produce json
// @Security BearerAuth
// @Param id path int true "News ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Editors only"
// @Router /news/{id} [delete]
func (c *NewsController) DeleteNews(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.newsService.DeleteNews(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "News deleted"))
}

// UploadImage attaches a cover image
// @Summary Upload a news image
// @Tags news
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "News ID"
// @Param image formData file true "Image"
// @Success 200 {object} dto.APIResponse{data=models.News}
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Router /news/{id}/image [post]
func (c *NewsController) UploadImage(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("image")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Image file is required").WithField("image")))
		return
	}

	news, err := c.newsService.UploadImage(ctx.Request.Context(), actorFrom(ctx), id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(news, "Image uploaded"))
}
