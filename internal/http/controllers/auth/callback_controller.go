package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/punchline-api/punchline/internal/http/dto"
	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	"github.com/punchline-api/punchline/internal/http/helpers"
	mw "github.com/punchline-api/punchline/internal/http/middlewares"
	"github.com/punchline-api/punchline/internal/http/providers"
	svc "github.com/punchline-api/punchline/internal/http/services/auth"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/identity"
	"github.com/punchline-api/punchline/internal/observability/logger"
	"github.com/punchline-api/punchline/internal/store/core"
	"go.uber.org/zap"
)

// CallbackController handles GET /auth/{provider}/callback.
type CallbackController struct {
	service svc.CallbackService
	tokens  *session.Service
}

// NewCallbackController creates a new callback controller.
func NewCallbackController(service svc.CallbackService, tokens *session.Service) *CallbackController {
	return &CallbackController{service: service, tokens: tokens}
}

// Callback completes the login: exchanges the code, resolves the identity
// and issues the session cookie.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerName := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Op("CallbackController.Callback"),
		logger.Provider(providerName),
	)

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		log.Debug("provider returned error", logger.String("provider_error", errParam))
		httperrors.WriteError(w, httperrors.ErrInvalidCallback.WithDetail(errParam))
		return
	}

	result, err := c.service.Callback(ctx, svc.CallbackRequest{
		Provider: providerName,
		Code:     q.Get("code"),
		State:    q.Get("state"),
		ClientIP: mw.ClientIP(r),
	})
	if err != nil {
		log.Debug("callback failed", logger.Err(err))
		c.writeError(w, err, log)
		return
	}

	http.SetCookie(w, c.tokens.SessionCookie(result.Token))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	helpers.WriteJSON(w, http.StatusOK, dto.CallbackResponse{
		Token: result.Token,
		User:  dto.UserFromCore(result.User),
	})

	log.Info("login completed", logger.UserID(result.User.ID))
}

// writeError maps callback failures to the error taxonomy.
func (c *CallbackController) writeError(w http.ResponseWriter, err error, log *zap.Logger) {
	var extErr *providers.ExternalServiceError

	switch {
	case errors.Is(err, svc.ErrInvalidCallback):
		httperrors.WriteError(w, httperrors.ErrInvalidCallback)

	case errors.Is(err, svc.ErrProviderUnknown), errors.Is(err, svc.ErrProviderDisabled):
		writeProviderError(w, err)

	case errors.Is(err, identity.ErrEmailMissing):
		httperrors.WriteError(w, httperrors.ErrInvalidCallback.WithDetail("profile has no email"))

	case errors.Is(err, identity.ErrAmbiguousIdentity):
		httperrors.WriteError(w, httperrors.ErrAmbiguousIdentity)

	case errors.As(err, &extErr):
		httperrors.WriteError(w, httperrors.ErrExternalService.WithDetail(extErr.Provider+" "+extErr.Op+" failed"))

	case errors.Is(err, core.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("persistence conflict"))

	default:
		log.Error("unexpected callback error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
