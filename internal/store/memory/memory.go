// Package memory implements the store contracts in process memory. It backs
// tests and the "memory" storage driver, and mirrors the postgres adapter's
// semantics, including the unique-email conflict.
package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/punchline-api/punchline/internal/store/core"
)

// Store implements core.Store with map-backed repositories.
type Store struct {
	users *userRepo
	jokes *jokeRepo
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users: &userRepo{byID: make(map[string]core.User)},
		jokes: &jokeRepo{byID: make(map[string]core.Joke)},
	}
}

func (s *Store) Users() core.UserRepository { return s.users }

func (s *Store) Jokes() core.JokeRepository { return s.jokes }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]core.User
}

func cloneUser(u core.User) *core.User {
	c := u
	if u.GoogleID != nil {
		v := *u.GoogleID
		c.GoogleID = &v
	}
	if u.MicrosoftID != nil {
		v := *u.MicrosoftID
		c.MicrosoftID = &v
	}
	if u.FacebookID != nil {
		v := *u.FacebookID
		c.FacebookID = &v
	}
	return &c
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) FindByProviderID(ctx context.Context, provider, providerID string) (*core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if id := u.ProviderID(provider); id != nil && *id == providerID {
			return cloneUser(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *userRepo) Create(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.ErrConflict
		}
	}
	r.byID[u.ID] = *cloneUser(*u)
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; !ok {
		return core.ErrNotFound
	}
	for id, existing := range r.byID {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return core.ErrConflict
		}
	}
	r.byID[u.ID] = *cloneUser(*u)
	return nil
}

type jokeRepo struct {
	mu   sync.RWMutex
	byID map[string]core.Joke
}

// PutJoke seeds a joke. Only used by the memory driver and tests.
func (s *Store) PutJoke(j core.Joke) {
	s.jokes.mu.Lock()
	defer s.jokes.mu.Unlock()
	s.jokes.byID[j.ID] = j
}

func (r *jokeRepo) List(ctx context.Context, limit, offset int) ([]core.Joke, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]core.Joke, 0, len(r.byID))
	for _, j := range r.byID {
		all = append(all, j)
	}
	// Newest first, matching the postgres adapter.
	for i := 0; i < len(all); i++ {
		for k := i + 1; k < len(all); k++ {
			if all[k].CreatedAt.After(all[i].CreatedAt) {
				all[i], all[k] = all[k], all[i]
			}
		}
	}

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *jokeRepo) GetByID(ctx context.Context, id string) (*core.Joke, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &j, nil
}

func (r *jokeRepo) Random(ctx context.Context) (*core.Joke, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.byID) == 0 {
		return nil, core.ErrNotFound
	}
	n := rand.Intn(len(r.byID))
	for _, j := range r.byID {
		if n == 0 {
			return &j, nil
		}
		n--
	}
	return nil, core.ErrNotFound
}
