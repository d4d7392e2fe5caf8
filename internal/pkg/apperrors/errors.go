package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrBadRequest       = errors.New("bad request")
)

// User errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrEmailDomainNotAllowed = errors.New("email domain is not an institutional domain")
	ErrEmailAlreadyVerified  = errors.New("email already verified")
)

// Society errors
var (
	ErrSocietyNotFound     = errors.New("society not found")
	ErrSocietyNameTaken    = errors.New("a society with this name already exists")
	ErrSocietyLimitReached = errors.New("maximum number of owned societies reached")
	ErrSocietyNotApproved  = errors.New("society is not approved")
	ErrInvalidStatusChange = errors.New("society status does not allow this action")
)

// Membership errors
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrAlreadyMember      = errors.New("user already has a membership in this society")
	ErrNotMember          = errors.New("user is not an approved member of this society")
	ErrManagerCannotLeave = errors.New("the society manager cannot leave; transfer management first")
	ErrQuizFailed         = errors.New("join quiz score below pass threshold")
	ErrQuizAnswersInvalid = errors.New("join quiz answers do not match the quiz")
)

// Event errors
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventStarted         = errors.New("event has already started")
	ErrAlreadyRegistered    = errors.New("user is already registered for this event")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrPaymentRequired      = errors.New("payment is required for this event")
)

// Content errors
var (
	ErrNewsNotFound    = errors.New("news not found")
	ErrWidgetNotFound  = errors.New("widget not found")
	ErrPollNotFound    = errors.New("poll not found")
	ErrPollClosed      = errors.New("poll is closed")
	ErrAlreadyVoted    = errors.New("user has already voted on this question")
	ErrGalleryNotFound = errors.New("gallery not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrAlreadyRated    = errors.New("member has already been rated for this match")
)

// Payment errors
var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrAlreadyPaid         = errors.New("payment already completed")
	ErrNothingToPay        = errors.New("nothing to pay for")
	ErrInvalidWebhook      = errors.New("invalid webhook payload or signature")
	ErrPaymentsUnavailable = errors.New("payments are not configured")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError wraps ErrValidationFailed with a field-specific message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
