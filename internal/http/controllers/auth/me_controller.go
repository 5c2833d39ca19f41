package auth

import (
	"errors"
	"net/http"

	"github.com/punchline-api/punchline/internal/http/dto"
	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	"github.com/punchline-api/punchline/internal/http/helpers"
	mw "github.com/punchline-api/punchline/internal/http/middlewares"
	"github.com/punchline-api/punchline/internal/observability/logger"
	"github.com/punchline-api/punchline/internal/store/core"
)

// MeController handles GET /auth/me.
type MeController struct {
	users core.UserRepository
}

// NewMeController creates a new me controller.
func NewMeController(users core.UserRepository) *MeController {
	return &MeController{users: users}
}

// Me returns the account behind the current session.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	claims := mw.ClaimsFrom(ctx)
	if claims == nil || claims.UserID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	user, err := c.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Valid token for a deleted account.
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("account no longer exists"))
			return
		}
		log.Error("user lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	helpers.WriteJSON(w, http.StatusOK, dto.UserFromCore(user))
}
