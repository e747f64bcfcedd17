package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/services"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type signupRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=255"`
	Username string `json:"username" form:"username" binding:"required,max=255"`
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
	Role     string `json:"role" form:"role" binding:"omitempty,oneof=admin employee"`
}

type userResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

func (h *handlerImpl) HandleSignup(c *gin.Context) {
	var req signupRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(msgInvalidRequestBody))
		return
	}

	user, err := h.auth.Signup(c, services.SignupParams{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign up")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError("User already exists"))
		default:
			abort(c, newServiceError(err))
		}
		return
	}

	c.JSON(http.StatusCreated, userResponse{
		Success: true,
		Message: "User created successfully",
		User:    user,
	})
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=255"`
	Password string `json:"password" form:"password" binding:"required,max=255"`
}

type tokenResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token"`
	User    *models.User `json:"user,omitempty"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(msgInvalidRequestBody))
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

	result, err := h.auth.Login(c, services.LoginParams{
		Username:    req.Username,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			abort(c, newUnauthorizedError("Invalid credentials"))
		default:
			abort(c, newInternalError())
		}
		return
	}

	setSessionCookies(c, result)
	c.JSON(http.StatusOK, tokenResponse{
		Success: true,
		Message: "Login successful",
		Token:   result.AccessToken,
		User:    result.User,
	})
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	result, ok := h.refreshSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Success: true,
		Message: "Token refreshed successfully",
		Token:   result.AccessToken,
	})
}

// refreshSession rotates the session named by the refresh token cookie and
// stores the new token pair in cookies. It aborts the request on failure.
func (h *handlerImpl) refreshSession(c *gin.Context) (*services.LoginResult, bool) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get refresh token cookie")
		abort(c, newUnauthorizedError(msgMandatoryCookieNotFound))
		return nil, false
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newInternalError())
		return nil, false
	}

	result, err := h.auth.Refresh(c, services.RefreshParams{
		RefreshToken: refreshToken,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to refresh session")
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			abort(c, newUnauthorizedError("Session not found"))
		case errors.Is(err, services.ErrSessionExpired):
			abort(c, newUnauthorizedError("Session expired"))
		default:
			abort(c, newInternalError())
		}
		return nil, false
	}

	setSessionCookies(c, result)
	return result, true
}

func (h *handlerImpl) HandleMe(c *gin.Context) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c, caller)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", caller.UserID()).
			Msg("failed to get current user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newAPIError(http.StatusNotFound, "User not found"))
		default:
			abort(c, newInternalError())
		}
		return
	}

	c.JSON(http.StatusOK, userResponse{
		Success: true,
		User:    user,
	})
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	err := h.auth.Logout(c, caller.UserID())
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		abort(c, newInternalError())
		return
	}

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)

	c.Status(http.StatusNoContent)
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func setSessionCookies(c *gin.Context, result *services.LoginResult) {
	now := time.Now()
	setAccessTokenCookie(c, result.AccessToken, result.AccessTokenExpiresAt.Sub(now))
	setRefreshTokenCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt.Sub(now))
}

func setAccessTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	// httpOnly must be false to allow client-side JavaScript
	// to read the cookie and send it in the Authorization header.
	const secure, httpOnly = false, false
	c.SetCookie(accessTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func setRefreshTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(refreshTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1,
		"/", "", false, false)
}
