package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/validation"
)

type errorResponse struct {
	Success *bool               `json:"success,omitempty"`
	Error   string              `json:"error"`
	Reason  string              `json:"reason,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// statusFor maps a service error onto an HTTP status and a caller-safe message.
func statusFor(err error) (int, errorResponse) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Errors: verr.Fields}
	}
	if bindErr, ok := validation.FromValidator(err); ok {
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Errors: bindErr.Fields}
	}
	var payErr *payment.VerificationError
	if errors.As(err, &payErr) {
		return http.StatusBadRequest, errorResponse{Error: payErr.Error(), Reason: string(payErr.Reason)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Error: "Invalid email or password"}
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, errorResponse{Error: "cart is empty"}
	case errors.Is(err, domain.ErrPaymentNotVerified):
		return http.StatusBadRequest, errorResponse{Error: "payment not verified"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "forbidden"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{Error: "already exists"}
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, errorResponse{Error: "upstream service unavailable, please retry"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Printf("httpserver: %s %s err=%v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}

// failSuccess is fail for routes whose responses carry a success flag.
func (h *handlers) failSuccess(c *gin.Context, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Printf("httpserver: %s %s err=%v", c.Request.Method, c.FullPath(), err)
	}
	f := false
	body.Success = &f
	c.JSON(status, body)
}

// badBody reports an unparsable or invalid request body.
func (h *handlers) badBody(c *gin.Context, err error) {
	if verr, ok := validation.FromValidator(err); ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Errors: verr.Fields})
		return
	}
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:  "validation failed",
		Errors: []domain.FieldError{{Field: "body", Message: "must be valid JSON"}},
	})
}
