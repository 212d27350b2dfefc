package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/apexgas/commerce/internal/catalog"
	checkoutdomain "github.com/apexgas/commerce/internal/checkout/domain"
	"github.com/apexgas/commerce/internal/intake"
	orderdomain "github.com/apexgas/commerce/internal/order/domain"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrInternal        = errors.New("internal_error")
)

// ErrorHandlingMiddleware renders the last gin error as a JSON envelope
// once the handler chain is done. Handlers that already wrote a body
// are left alone.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request body")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if field, code, ok := classifyIntakeError(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   field,
					Code:    code,
					Message: intakeErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalog.ErrUnknownTier),
		errors.Is(err, orderdomain.ErrInvalidPrice),
		errors.Is(err, orderdomain.ErrInvalidApproval),
		errors.Is(err, orderdomain.ErrUnsupportedDetail),
		errors.Is(err, checkoutdomain.ErrInvalidPayload),
		errors.Is(err, purchasedomain.ErrInvalidRecord),
		errors.Is(err, purchasedomain.ErrInvalidID):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, orderdomain.ErrCorrelationLost),
		errors.Is(err, checkoutdomain.ErrBuyerInfoLost):
		return http.StatusBadRequest, errorPayload{
			Type:    "correlation_lost",
			Message: "order details could not be verified, please contact support",
		}
	case errors.Is(err, checkoutdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_signature",
			Message: "webhook signature verification failed",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case errors.Is(err, purchasedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func classifyIntakeError(err error) (field, code string, ok bool) {
	switch {
	case errors.Is(err, intake.ErrInvalidEmail):
		return "businessEmail", "invalid_email", true
	case errors.Is(err, intake.ErrInvalidPhone):
		return "phoneNumber", "invalid_phone", true
	case errors.Is(err, intake.ErrMissingField):
		return "businessInfo", "missing_field", true
	default:
		return "", "", false
	}
}

func intakeErrorMessage(code string) string {
	switch code {
	case "invalid_email":
		return "please provide a valid business email"
	case "invalid_phone":
		return "please provide a valid phone number"
	case "missing_field":
		return "please fill in all required fields"
	default:
		return "validation error"
	}
}

// classifyErrorForLog feeds the request logger a stable (type, code)
// pair without leaking raw error strings into log labels.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if asValidationErrors(err) != nil {
		return "validation_error", "validation_error"
	}
	if _, code, ok := classifyIntakeError(err); ok {
		return "validation_error", code
	}

	switch {
	case errors.Is(err, catalog.ErrUnknownTier):
		return "invalid_request", "unknown_tier"
	case errors.Is(err, orderdomain.ErrInvalidPrice):
		return "invalid_request", "invalid_price"
	case errors.Is(err, orderdomain.ErrInvalidApproval), errors.Is(err, orderdomain.ErrUnsupportedDetail):
		return "invalid_request", "invalid_approval"
	case errors.Is(err, orderdomain.ErrCorrelationLost):
		return "correlation_lost", "correlation_lost"
	case errors.Is(err, checkoutdomain.ErrBuyerInfoLost):
		return "correlation_lost", "buyer_info_lost"
	case errors.Is(err, checkoutdomain.ErrInvalidSignature):
		return "invalid_signature", "invalid_signature"
	case errors.Is(err, checkoutdomain.ErrEventAlreadyProcessed):
		return "duplicate_event", "event_already_processed"
	case errors.Is(err, ErrTooManyRequests):
		return "too_many_requests", "too_many_requests"
	case errors.Is(err, purchasedomain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return "not_found", "not_found"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, purchasedomain.ErrInvalidRecord), errors.Is(err, purchasedomain.ErrInvalidID):
		return "invalid_request", "invalid_request"
	default:
		return "internal_error", "internal_error"
	}
}
