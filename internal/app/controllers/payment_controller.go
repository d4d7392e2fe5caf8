package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/middleware"
)

// maxWebhookBytes caps the webhook body read into memory
const maxWebhookBytes = 64 << 10

// PaymentController handles checkout and gateway webhooks
type PaymentController struct {
	paymentService services.PaymentService
	logger         zerolog.Logger
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, logger zerolog.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         logger,
	}
}

// StartCheckout opens a hosted checkout session
// @Summary Start a checkout
// @Description Creates a pending payment for a society membership fee or an event fee and returns the hosted checkout URL.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckoutRequest true "What to pay for"
// @Success 201 {object} dto.APIResponse{data=dto.CheckoutResponse}
// @Failure 400 {object} dto.ErrorResponse "Nothing to pay for"
// @Failure 409 {object} dto.ErrorResponse "Already paid"
// @Failure 503 {object} dto.ErrorResponse "Payments not configured"
// @Router /payments/checkout [post]
func (c *PaymentController) StartCheckout(ctx *gin.Context) {
	var req dto.CheckoutRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.paymentService.StartCheckout(ctx.Request.Context(), actorFrom(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp, "Checkout started"))
}

// Webhook receives payment gateway notifications
// @Summary Payment gateway webhook
// @Tags payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid payload or signature"
// @Router /payments/webhook [post]
func (c *PaymentController) Webhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBytes))
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read webhook body")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidWebhook, "Unreadable body")))
		return
	}

	if err := c.paymentService.HandleWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "received"))
}
