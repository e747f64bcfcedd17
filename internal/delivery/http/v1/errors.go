package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-taskdesk/internal/services"
)

// Messages sent to the client.
const (
	msgInvalidRequestBody      = "Invalid request body"
	msgMandatoryCookieNotFound = "Refresh token not found"
	msgNoToken                 = "No token, authorization denied"
	msgInvalidToken            = "Token is not valid"
	msgServerError             = "Server error"
)

// envelope wraps every response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, envelope{Message: err.Message})
}

func newInternalError() apiError {
	return newAPIError(http.StatusInternalServerError, msgServerError)
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// newServiceError converts an error returned by a service. Anything that
// is not a *services.Error is reported as an internal error.
func newServiceError(err error) apiError {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		return newInternalError()
	}

	switch {
	case errors.Is(svcErr, services.ErrForbidden):
		return newAPIError(http.StatusForbidden, svcErr.Message)
	case errors.Is(svcErr, services.ErrValidation):
		return newBadRequestError(svcErr.Message)
	case errors.Is(svcErr, services.ErrTaskNotFound),
		errors.Is(svcErr, services.ErrUserNotFound):
		return newAPIError(http.StatusNotFound, svcErr.Message)
	default:
		return newInternalError()
	}
}
