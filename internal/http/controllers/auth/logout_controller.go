package auth

import (
	"net/http"

	"github.com/punchline-api/punchline/internal/http/dto"
	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	"github.com/punchline-api/punchline/internal/http/helpers"
	svc "github.com/punchline-api/punchline/internal/http/services/auth"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/observability/logger"
)

// LogoutController handles POST /auth/logout.
type LogoutController struct {
	service svc.LogoutService
	tokens  *session.Service
}

// NewLogoutController creates a new logout controller.
func NewLogoutController(service svc.LogoutService, tokens *session.Service) *LogoutController {
	return &LogoutController{service: service, tokens: tokens}
}

// Logout re-signs the session token with an expiration in the past, writes
// it back as the cookie value and then clears the cookie. Copies of the
// original token held outside the cookie jar are not revoked.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	token, ok := c.tokens.FromRequest(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	invalidated, err := c.service.Logout(ctx, token)
	if err != nil {
		log.Debug("logout rejected", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)
		return
	}

	// Two Set-Cookie headers on purpose: cookie jars that replay headers in
	// order end up holding either the expired token or nothing.
	http.SetCookie(w, c.tokens.SessionCookie(invalidated))
	http.SetCookie(w, c.tokens.DeletionCookie())
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutResponse{Message: "logged out"})

	log.Info("session invalidated")
}
