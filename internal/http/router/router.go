// Package router assembles the HTTP routing table and middleware stack.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/punchline-api/punchline/internal/http/controllers/auth"
	"github.com/punchline-api/punchline/internal/http/controllers/content"
	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	"github.com/punchline-api/punchline/internal/http/helpers"
	mw "github.com/punchline-api/punchline/internal/http/middlewares"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/metrics"
	"github.com/punchline-api/punchline/internal/rate"
)

// Deps carries everything the router mounts.
type Deps struct {
	Start    *authctrl.StartController
	Callback *authctrl.CallbackController
	Logout   *authctrl.LogoutController
	Me       *authctrl.MeController
	Jokes    *content.JokesController

	Tokens  *session.Service
	Metrics *metrics.Metrics

	// AuthLimiter guards the login endpoints; APILimiter guards content.
	// Either may be nil to disable limiting for that surface.
	AuthLimiter rate.Limiter
	APILimiter  rate.Limiter

	Ready func(r *http.Request) error
}

// New builds the router.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestContext())
	r.Use(mw.WithRecover())
	r.Use(mw.WithSecurityHeaders())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(req); err != nil {
				httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail(err.Error()))
				return
			}
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: d.AuthLimiter,
			KeyFunc: mw.IPOnlyRateKey,
		}))

		r.Get("/{provider}/login", d.Start.Start)
		r.Get("/{provider}/callback", d.Callback.Callback)
		r.Post("/logout", d.Logout.Logout)

		r.Group(func(r chi.Router) {
			r.Use(mw.WithSessionAuth(d.Tokens))
			r.Get("/me", d.Me.Me)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: d.APILimiter,
			KeyFunc: mw.IPPathRateKey,
		}))
		r.Use(mw.WithSessionAuth(d.Tokens))

		r.Route("/jokes", func(r chi.Router) {
			r.Get("/", d.Jokes.List)
			r.Get("/random", d.Jokes.Random)
			r.Get("/{id}", d.Jokes.GetByID)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r
}
