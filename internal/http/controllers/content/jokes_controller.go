// Package content exposes the joke read endpoints. Reads go through a
// cache-aside layer so the store only sees one fill per key at a time.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/punchline-api/punchline/internal/cache"
	"github.com/punchline-api/punchline/internal/http/dto"
	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	"github.com/punchline-api/punchline/internal/http/helpers"
	"github.com/punchline-api/punchline/internal/observability/logger"
	"github.com/punchline-api/punchline/internal/store/core"
)

const (
	listCacheTTL = 30 * time.Second
	jokeCacheTTL = 5 * time.Minute
)

// JokesController handles the /api/jokes routes.
type JokesController struct {
	jokes core.JokeRepository
	cache cache.Client
	group singleflight.Group
}

// NewJokesController creates a new jokes controller.
func NewJokesController(jokes core.JokeRepository, cacheClient cache.Client) *JokesController {
	return &JokesController{jokes: jokes, cache: cacheClient}
}

// List handles GET /api/jokes.
func (c *JokesController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("JokesController.List"))

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	key := "jokes:list:" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
	body, err := c.cached(ctx, key, listCacheTTL, func() (any, error) {
		jokes, err := c.jokes.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		out := make([]dto.Joke, 0, len(jokes))
		for i := range jokes {
			out = append(out, dto.JokeFromCore(&jokes[i]))
		}
		return dto.JokeList{Jokes: out, Count: len(out)}, nil
	})
	if err != nil {
		log.Error("list failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	writeCachedJSON(w, body)
}

// GetByID handles GET /api/jokes/{id}.
func (c *JokesController) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("JokesController.GetByID"), logger.JokeID(id))

	body, err := c.cached(ctx, "jokes:id:"+id, jokeCacheTTL, func() (any, error) {
		j, err := c.jokes.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return dto.JokeFromCore(j), nil
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("joke not found"))
			return
		}
		log.Error("lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	writeCachedJSON(w, body)
}

// Random handles GET /api/jokes/random. Never cached; a cached random joke
// would stop being random.
func (c *JokesController) Random(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("JokesController.Random"))

	j, err := c.jokes.Random(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("no jokes available"))
			return
		}
		log.Error("random lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.JokeFromCore(j))
}

// cached returns the JSON-encoded value for key, filling the cache on a miss.
// Concurrent misses on the same key collapse into one repository call.
func (c *JokesController) cached(ctx context.Context, key string, ttl time.Duration, fill func() (any, error)) (string, error) {
	if v, err := c.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := fill()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		body := string(raw)
		if err := c.cache.Set(ctx, key, body, ttl); err != nil {
			// Cache write failure does not fail the request.
			logger.From(ctx).Warn("cache set failed", logger.Err(err))
		}
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func writeCachedJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
