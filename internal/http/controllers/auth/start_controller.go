// Package auth exposes the social login HTTP surface: start, callback,
// logout and the current-session endpoint.
package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	svc "github.com/punchline-api/punchline/internal/http/services/auth"
	"github.com/punchline-api/punchline/internal/observability/logger"
)

// StartController handles GET /auth/{provider}/login.
type StartController struct {
	service svc.StartService
}

// NewStartController creates a new start controller.
func NewStartController(service svc.StartService) *StartController {
	return &StartController{service: service}
}

// Start redirects the browser to the provider's consent screen.
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	providerName := chi.URLParam(r, "provider")
	redirectURL, err := c.service.Start(ctx, providerName)
	if err != nil {
		log.Debug("login start rejected", logger.Provider(providerName), logger.Err(err))
		writeProviderError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	http.Redirect(w, r, redirectURL, http.StatusFound)

	log.Info("login redirect issued", logger.Provider(providerName))
}

// writeProviderError maps provider lookup failures shared by start and
// callback.
func writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrProviderUnknown):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("unknown provider"))
	case errors.Is(err, svc.ErrProviderDisabled):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("provider not enabled"))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
