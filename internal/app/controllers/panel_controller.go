package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

const defaultLeaderboardSize = 10

// PanelController serves the society page panels: galleries, comment wall,
// matches with member ratings, and the hall of fame.
type PanelController struct {
	panelService services.PanelService
	logger       zerolog.Logger
}

// NewPanelController creates a new PanelController
func NewPanelController(panelService services.PanelService, logger zerolog.Logger) *PanelController {
	return &PanelController{
		panelService: panelService,
		logger:       logger,
	}
}

// CreateGallery creates an image gallery
// @Summary Create a gallery
// @Tags panels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreateGalleryRequest true "Gallery"
// @Success 201 {object} dto.APIResponse{data=models.Gallery}
// @Router /societies/{id}/galleries [post]
func (c *PanelController) CreateGallery(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateGalleryRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	gallery, err := c.panelService.CreateGallery(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(gallery, "Gallery created"))
}

// ListGalleries lists a society's galleries
// @Summary List galleries
// @Tags panels
// @Produce json
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Gallery}
// @Router /societies/{id}/galleries [get]
func (c *PanelController) ListGalleries(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	galleries, err := c.panelService.ListGalleries(ctx.Request.Context(), societyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(galleries, ""))
}

// GetGallery returns a gallery with its images
// @Summary Get a gallery
// @Tags panels
// @Produce json
// @Param galleryId path int true "Gallery ID"
// @Success 200 {object} dto.APIResponse{data=models.Gallery}
// @Failure 404 {object} dto.ErrorResponse "Gallery not found"
// @Router /galleries/{galleryId} [get]
func (c *PanelController) GetGallery(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "galleryId")
	if !ok {
		return
	}

	gallery, err := c.panelService.GetGallery(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gallery, ""))
}

// DeleteGallery removes a gallery and its images
// @Summary Delete a gallery
// @Tags panels
// @Produce json
// @Security BearerAuth
// @Param galleryId path int true "Gallery ID"
// @Success 200 {object} dto.APIResponse
// @Router /galleries/{galleryId} [delete]
func (c *PanelController) DeleteGallery(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "galleryId")
	if !ok {
		return
	}

	if err := c.panelService.DeleteGallery(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Gallery deleted"))
}

// UploadImage adds an image to a gallery
// @Summary Upload a gallery image
// @Tags panels
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param galleryId path int true "Gallery ID"
// @Param image formData file true "Image"
// @Param caption formData string false "Caption"
// @Success 201 {object} dto.APIResponse{data=models.Image}
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Router /galleries/{galleryId}/images [post]
func (c *PanelController) UploadImage(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "galleryId")
	if !ok {
		return
	}
	file, err := ctx.FormFile("image")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Image file is required").WithField("image")))
		return
	}

	image, err := c.panelService.UploadImage(ctx.Request.Context(), actorFrom(ctx), id, file, ctx.PostForm("caption"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(image, "Image uploaded"))
}

// DeleteImage removes one gallery image
// @Summary Delete a gallery image
// @Tags panels
// @Produce json
// @Security BearerAuth
// @Param galleryId path int true "Gallery ID"
// @Param imageId path int true "Image ID"
// @Success 200 {object} dto.APIResponse
// @Router /galleries/{galleryId}/images/{imageId} [delete]
func (c *PanelController) DeleteImage(ctx *gin.Context) {
	galleryID, ok := middleware.PathID(ctx, "galleryId")
	if !ok {
		return
	}
	imageID, ok := middleware.PathID(ctx, "imageId")
	if !ok {
		return
	}

	if err := c.panelService.DeleteImage(ctx.Request.Context(), actorFrom(ctx), galleryID, imageID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Image deleted"))
}

// PostComment writes on the society wall
// @Summary Post a comment
// @Tags panels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=models.Comment}
// @Failure 403 {object} dto.ErrorResponse "Members only"
// @Router /societies/{id}/comments [post]
func (c *PanelController) PostComment(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.panelService.PostComment(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment, "Comment posted"))
}

// ListComments pages through the society wall, newest first
// @Summary List comments
// @Tags panels
// @Produce json
// @Param id path int true "Society ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /societies/{id}/comments [get]
func (c *PanelController) ListComments(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.panelService.ListComments(ctx.Request.Context(), societyID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// DeleteComment removes a comment
// @Summary Delete a comment
// @Description Authors may delete their own comments; moderators may delete any.
// @Tags panels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} dto.APIResponse
// @Router /societies/{id}/comments/{commentId} [delete]
func (c *PanelController) DeleteComment(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	commentID, ok := middleware.PathID(ctx, "commentId")
	if !ok {
		return
	}

	if err := c.panelService.DeleteComment(ctx.Request.Context(), actorFrom(ctx), societyID, commentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Comment deleted"))
}

// CreateMatch records a match
// @Summary Record a match
// @Tags panels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreateMatchRequest true "Match"
// @Success 201 {object} dto.APIResponse{data=models.Match}
// @Router /societies/{id}/matches [post]
func (c *PanelController) CreateMatch(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateMatchRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	match, err := c.panelService.CreateMatch(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(match, "Match recorded"))
}

// ListMatches lists a society's matches
// @Summary List matches
// @Tags panels
// @Produce json
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Match}
// @Router /societies/{id}/matches [get]
func (c *PanelController) ListMatches(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	matches, err := c.panelService.ListMatches(ctx.Request.Context(), societyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(matches, ""))
}

// GetMatch returns a match with its ratings
// @Summary Get a match
// @Tags panels
// @Produce json
// @Param matchId path int true "Match ID"
// @Success 200 {object} dto.APIResponse{data=dto.MatchDetailResponse}
// @Failure 404 {object} dto.ErrorResponse "Match not found"
// @Router /matches/{matchId} [get]
func (c *PanelController) GetMatch(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "matchId")
	if !ok {
		return
	}

	match, err := c.panelService.GetMatch(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(match, ""))
}

// DeleteMatch removes a match and its ratings
// @Summary Delete a match
// @Tags panels
// @Produce json
// @Security BearerAuth
// @Param matchId path int true "Match ID"
// @Success 200 {object} dto.APIResponse
// @Router /matches/{matchId} [delete]
func (c *PanelController) DeleteMatch(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "matchId")
	if !ok {
		return
	}

	if err := c.panelService.DeleteMatch(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Match deleted"))
}

// RateMember scores a member's performance in a match
// @Summary Rate a member
// @Tags panels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param matchId path int true "Match ID"
// @Param request body dto.RateMemberRequest true "Rating"
// @Success 201 {object} dto.APIResponse{data=models.MemberRating}
// @Failure 409 {object} dto.ErrorResponse "Already rated"
// @Router /matches/{matchId}/ratings [post]
func (c *PanelController) RateMember(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "matchId")
	if !ok {
		return
	}
	var req dto.RateMemberRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	rating, err := c.panelService.RateMember(ctx.Request.Context(), actorFrom(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(rating, "Rating saved"))
}

// Leaderboard ranks members by average match rating
// @Summary Society leaderboard
// @Tags panels
// @Produce json
// @Param id path int true "Society ID"
// @Param limit query int false "Entries to return" default(10)
// @Success 200 {object} dto.APIResponse{data=[]models.LeaderboardEntry}
// @Router /societies/{id}/leaderboard [get]
func (c *PanelController) Leaderboard(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultLeaderboardSize)))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultLeaderboardSize
	}

	entries, err := c.panelService.Leaderboard(ctx.Request.Context(), societyID, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}

// AwardHallOfFame adds a member to the hall of fame
// @Summary Award a hall of fame entry
// @Tags panels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreateHallOfFameRequest true "Award"
// @Success 201 {object} dto.APIResponse{data=models.HallOfFame}
// @Router /societies/{id}/hall-of-fame [post]
func (c *PanelController) AwardHallOfFame(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateHallOfFameRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	entry, err := c.panelService.AwardHallOfFame(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(entry, "Award added"))
}

// ListHallOfFame lists hall of fame entries
// @Summary List hall of fame
// @Tags panels
// @Produce json
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=[]models.HallOfFame}
// @Router /societies/{id}/hall-of-fame [get]
func (c *PanelController) ListHallOfFame(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	entries, err := c.panelService.ListHallOfFame(ctx.Request.Context(), societyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}

// DeleteHallOfFame removes a hall of fame entry
// @Summary Delete a hall of fame entry
// @Tags panels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param entryId path int true "Entry ID"
// @Success 200 {object} dto.APIResponse
// @Router /societies/{id}/hall-of-fame/{entryId} [delete]
func (c *PanelController) DeleteHallOfFame(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	entryID, ok := middleware.PathID(ctx, "entryId")
	if !ok {
		return
	}

	if err := c.panelService.DeleteHallOfFame(ctx.Request.Context(), actorFrom(ctx), societyID, entryID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Award removed"))
}
