// Package core defines the domain types and repository contracts shared by
// every storage adapter (postgres, memory).
package core

import "context"

// UserRepository is the persistence contract required by the identity
// resolver. Implementations must enforce a case-insensitive unique constraint
// on email and return ErrConflict when Create violates it.
type UserRepository interface {
	// FindByID looks a user up by primary key.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByProviderID looks a user up by a linked provider id.
	FindByProviderID(ctx context.Context, provider, providerID string) (*User, error)

	// FindByEmail looks a user up by email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create persists a new user. Returns ErrConflict when a user with the
	// same email already exists.
	Create(ctx context.Context, u *User) error

	// Update persists changes to an existing user.
	Update(ctx context.Context, u *User) error
}

// JokeRepository is the read surface for content items.
type JokeRepository interface {
	List(ctx context.Context, limit, offset int) ([]Joke, error)
	GetByID(ctx context.Context, id string) (*Joke, error)
	Random(ctx context.Context) (*Joke, error)
}

// Store aggregates the repositories a running server needs.
type Store interface {
	Users() UserRepository
	Jokes() JokeRepository
	Ping(ctx context.Context) error
	Close()
}
