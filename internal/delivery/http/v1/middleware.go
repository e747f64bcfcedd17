package v1

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/services"
)

const callerCtxKey = "caller"

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		accessToken, _ = c.Cookie(accessTokenCookie)
	}
	if accessToken == "" {
		h.logger.Warn().Msg("access token required")
		abort(c, newUnauthorizedError(msgNoToken))
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newInternalError())
		return
	}

	caller, err := h.auth.Verify(c, services.VerifyParams{
		AccessToken: accessToken,
		Fingerprint: fingerprint,
	})
	if err != nil && errors.Is(err, jwt.ErrTokenExpired) {
		result, ok := h.refreshSession(c)
		if !ok {
			return
		}

		caller, err = h.auth.Verify(c, services.VerifyParams{
			AccessToken: result.AccessToken,
			Fingerprint: fingerprint,
		})
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to verify access token")
		if isAuthError(err) {
			abort(c, newUnauthorizedError(msgInvalidToken))
		} else {
			abort(c, newInternalError())
		}
		return
	}

	c.Set(callerCtxKey, caller)
	c.Next()
}

func (h *handlerImpl) HandleRequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	event := h.logger.Info()
	if c.Writer.Status() >= 500 {
		event = h.logger.Error()
	}
	event.
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("handled request")
}

// callerFromContext returns the caller stored by the auth middleware, or
// aborts the request when there is none.
func (h *handlerImpl) callerFromContext(c *gin.Context) (models.Caller, bool) {
	value, exists := c.Get(callerCtxKey)
	if exists {
		if caller, ok := value.(models.Caller); ok {
			return caller, true
		}
	}

	h.logger.Error().Msg("caller not found in context")
	abort(c, newUnauthorizedError(msgNoToken))
	return nil, false
}

func bearerToken(c *gin.Context) string {
	const bearerPrefix = "Bearer"
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func isAuthError(err error) bool {
	return errors.Is(err, services.ErrInvalidToken) ||
		errors.Is(err, services.ErrSessionNotFound) ||
		errors.Is(err, services.ErrUserNotFound) ||
		errors.Is(err, jwt.ErrTokenExpired)
}
