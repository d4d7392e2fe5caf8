package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

type errorMapping struct {
	err     error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; the first match wins
var errorMappings = []errorMapping{
	// Authentication
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token format"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrNotMember, http.StatusForbidden, dto.ErrorCodeForbidden, "Not an approved member of this society"},

	// Validation
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{apperrors.ErrInvalidEmail, http.StatusBadRequest, dto.ErrorCodeInvalidEmail, "Invalid email"},
	{apperrors.ErrEmailDomainNotAllowed, http.StatusBadRequest, dto.ErrorCodeInvalidEmail, "Email must belong to an institutional domain"},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword, "Password is too weak"},
	{apperrors.ErrQuizAnswersInvalid, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Quiz answers do not match the quiz"},

	// Not found
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrSocietyNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Society not found"},
	{apperrors.ErrMembershipNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Membership not found"},
	{apperrors.ErrEventNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Event not found"},
	{apperrors.ErrRegistrationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Registration not found"},
	{apperrors.ErrNewsNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "News not found"},
	{apperrors.ErrWidgetNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Widget not found"},
	{apperrors.ErrPollNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Poll not found"},
	{apperrors.ErrGalleryNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Gallery not found"},
	{apperrors.ErrImageNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Image not found"},
	{apperrors.ErrCommentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Comment not found"},
	{apperrors.ErrMatchNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Match not found"},
	{apperrors.ErrPaymentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Payment not found"},

	// Conflicts
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrEmailAlreadyVerified, http.StatusConflict, dto.ErrorCodeConflict, "Email already verified"},
	{apperrors.ErrSocietyNameTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Society name already taken"},
	{apperrors.ErrAlreadyMember, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Already a member of this society"},
	{apperrors.ErrAlreadyRegistered, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Already registered for this event"},
	{apperrors.ErrAlreadyVoted, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Already voted on this question"},
	{apperrors.ErrAlreadyRated, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Member already rated for this match"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	// Society workflow
	{apperrors.ErrSocietyLimitReached, http.StatusConflict, dto.ErrorCodeLimitReached, "Maximum number of owned societies reached"},
	{apperrors.ErrSocietyNotApproved, http.StatusConflict, dto.ErrorCodeInvalidState, "Society is not approved"},
	{apperrors.ErrInvalidStatusChange, http.StatusConflict, dto.ErrorCodeInvalidState, "Society status does not allow this action"},
	{apperrors.ErrManagerCannotLeave, http.StatusConflict, dto.ErrorCodeManagerLeaving, "Transfer management before leaving"},
	{apperrors.ErrQuizFailed, http.StatusForbidden, dto.ErrorCodeQuizFailed, "Join quiz failed"},
	{apperrors.ErrEventStarted, http.StatusConflict, dto.ErrorCodeInvalidState, "Event has already started"},
	{apperrors.ErrPollClosed, http.StatusConflict, dto.ErrorCodeInvalidState, "Poll is closed"},

	// Payments
	{apperrors.ErrPaymentRequired, http.StatusPaymentRequired, dto.ErrorCodePaymentRequired, "Payment required"},
	{apperrors.ErrAlreadyPaid, http.StatusConflict, dto.ErrorCodePaymentState, "Already paid"},
	{apperrors.ErrNothingToPay, http.StatusBadRequest, dto.ErrorCodePaymentState, "Nothing to pay for"},
	{apperrors.ErrInvalidWebhook, http.StatusBadRequest, dto.ErrorCodeInvalidWebhook, "Invalid webhook"},
	{apperrors.ErrPaymentsUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeExternalServiceError, "Payments are not configured"},
}

// HandleAPIError handles common API errors and returns appropriate responses.
// A CustomError message replaces the default message of its mapping.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorDetailFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

// ErrorDetailFor maps an error to its status code and response detail
func ErrorDetailFor(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, m.message)
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			detail.Message = custom.Message
			if custom.Details != nil {
				detail.Details = custom.Details
			}
		}
		return m.status, detail
	}
	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
}
