package websocket

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
)

// MembershipChecker reports whether a user is an approved member of a society
type MembershipChecker interface {
	IsApprovedMember(ctx context.Context, societyID, userID int64) (bool, error)
}

// Handler for WebSocket connections
type Handler struct {
	hub     *Hub
	members MembershipChecker
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, members MembershipChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		members: members,
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to a society's live feed
// @Description Upgrades the connection to a WebSocket that receives news, poll and comment updates. Approved members only. Browsers may pass the access token as the `token` query parameter.
// @Tags live-feed
// @Produce json
// @Security BearerAuth
// @Param id path int true "Society ID"
// @Param token query string false "Access token when the Authorization header cannot be set"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse "Invalid society ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not an approved member"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /societies/{id}/live [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	societyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid society ID")))
		return
	}

	userID := c.GetInt64("userID")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "User ID not found in context")))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	isMember, err := h.members.IsApprovedMember(ctx, societyID, userID)
	cancel()
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("societyID", societyID).
			Int64("userID", userID).
			Msg("Failed to check society membership")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Failed to check membership")))
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Only approved members can follow the live feed")))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("societyID", societyID).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    userID,
		societyID: societyID,
		logger:    h.logger,
	}
	if !client.hub.add(client) {
		h.logger.Warn().Int64("societyID", societyID).Msg("Live feed is shutting down, connection dropped")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("societyID", societyID).
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
