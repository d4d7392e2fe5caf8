package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// PollController handles society polls
type PollController struct {
	pollService services.PollService
	logger      zerolog.Logger
}

// NewPollController creates a new PollController
func NewPollController(pollService services.PollService, logger zerolog.Logger) *PollController {
	return &PollController{
		pollService: pollService,
		logger:      logger,
	}
}

// CreatePoll creates a poll
// @Summary Create a poll
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param request body dto.CreatePollRequest true "Poll"
// @Success 201 {object} dto.APIResponse{data=models.Poll}
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Router /societies/{id}/polls [post]
func (c *PollController) CreatePoll(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreatePollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	poll, err := c.pollService.CreatePoll(ctx.Request.Context(), actorFrom(ctx), societyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(poll, "Poll created"))
}

// ListPolls lists a society's polls
// @Summary List polls
// @Tags polls
// @Produce json
// @Param id path int true "Society ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Poll}
// @Router /societies/{id}/polls [get]
func (c *PollController) ListPolls(ctx *gin.Context) {
	societyID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	polls, err := c.pollService.ListPolls(ctx.Request.Context(), societyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(polls, ""))
}

// GetPoll returns a poll with its tallies
// @Summary Get a poll
// @Tags polls
// @Produce json
// @Param id path int true "Poll ID"
// @Success 200 {object} dto.APIResponse{data=models.Poll}
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /polls/{id} [get]
func (c *PollController) GetPoll(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	poll, err := c.pollService.GetPoll(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(poll, ""))
}

// Vote records a vote for an option
// @Summary Vote in a poll
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VoteRequest true "Chosen option"
// @Success 200 {object} dto.APIResponse{data=models.Poll}
// @Failure 403 {object} dto.ErrorResponse "Members only"
// @Failure 409 {object} dto.ErrorResponse "Already voted or poll closed"
// @Router /polls/vote [post]
func (c *PollController) Vote(ctx *gin.Context) {
	var req dto.VoteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	poll, err := c.pollService.Vote(ctx.Request.Context(), actorFrom(ctx), req.OptionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(poll, "Vote recorded"))
}

// ClosePoll stops a poll
// @Summary Close a poll
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} dto.APIResponse
// @Router /polls/{id}/close [post]
func (c *PollController) ClosePoll(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.pollService.ClosePoll(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Poll closed"))
}

// DeletePoll removes a poll
// @Summary Delete a poll
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} dto.APIResponse
// @Router /polls/{id} [delete]
func (c *PollController) DeletePoll(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.pollService.DeletePoll(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Poll deleted"))
}
