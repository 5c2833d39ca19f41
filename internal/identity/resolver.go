// Package identity resolves normalized OAuth profiles to durable user
// records: find by provider id first, fall back to email, link or create.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punchline-api/punchline/internal/http/providers"
	"github.com/punchline-api/punchline/internal/observability/logger"
	"github.com/punchline-api/punchline/internal/store/core"
)

var (
	// ErrAmbiguousIdentity means an email-matched user already has a
	// different id linked for the same provider. The existing link is never
	// overwritten.
	ErrAmbiguousIdentity = errors.New("identity: provider id conflicts with an existing link")

	// ErrEmailMissing means the provider profile carries no email, so the
	// account cannot be resolved.
	ErrEmailMissing = errors.New("identity: profile has no email")
)

// Resolver finds or creates exactly one local user per normalized profile.
type Resolver struct {
	users core.UserRepository
	now   func() time.Time
}

// NewResolver creates a Resolver over the given user repository.
func NewResolver(users core.UserRepository) *Resolver {
	return &Resolver{users: users, now: time.Now}
}

// GetOrCreateUser resolves the profile to a user. The check order is fixed:
//
//  1. match by the provider-link field for profile.Provider
//  2. match by email, case-insensitively
//  3. found: refresh display fields and link the provider id if unset;
//     a conflicting existing link raises ErrAmbiguousIdentity
//  4. not found: create a new user with the single link set
//
// Two concurrent calls for a brand-new email can both reach step 4; the
// repository's unique email constraint turns the loser's insert into
// core.ErrConflict, after which the lookups are re-run once and the update
// path taken instead.
func (r *Resolver) GetOrCreateUser(ctx context.Context, profile *providers.Profile) (*core.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("identity.resolver"))

	if profile == nil || profile.Email == "" {
		return nil, ErrEmailMissing
	}

	u, err := r.lookup(ctx, profile)
	if err != nil {
		return nil, err
	}

	if u == nil {
		created, err := r.create(ctx, profile)
		if err == nil {
			log.Info("user created",
				logger.UserID(created.ID),
				logger.Provider(profile.Provider),
				logger.String("email_masked", maskEmail(profile.Email)),
			)
			return created, nil
		}
		if !errors.Is(err, core.ErrConflict) {
			return nil, err
		}

		// Lost a creation race: the row exists now. One re-lookup, then the
		// update path.
		u, err = r.lookup(ctx, profile)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, fmt.Errorf("identity: %w after creation conflict", core.ErrConflict)
		}
		log.Debug("creation race lost, updating existing user", logger.UserID(u.ID))
	}

	if err := r.update(ctx, u, profile); err != nil {
		return nil, err
	}

	log.Info("user resolved",
		logger.UserID(u.ID),
		logger.Provider(profile.Provider),
	)
	return u, nil
}

// lookup runs steps 1 and 2. Returns (nil, nil) when no user matches.
func (r *Resolver) lookup(ctx context.Context, profile *providers.Profile) (*core.User, error) {
	u, err := r.users.FindByProviderID(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	u, err = r.users.FindByEmail(ctx, profile.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}

// update applies the profile to an existing user (step 3) and persists it.
func (r *Resolver) update(ctx context.Context, u *core.User, profile *providers.Profile) error {
	if linked := u.ProviderID(profile.Provider); linked != nil {
		if *linked != profile.ProviderID {
			return ErrAmbiguousIdentity
		}
	} else {
		u.SetProviderID(profile.Provider, profile.ProviderID)
	}

	u.Name = profile.Name
	if profile.Picture != "" {
		u.PictureURL = profile.Picture
	}
	u.LastProvider = profile.Provider
	u.ModifiedAt = r.now().UTC()

	return r.users.Update(ctx, u)
}

// create builds and persists a brand-new user (step 4).
func (r *Resolver) create(ctx context.Context, profile *providers.Profile) (*core.User, error) {
	now := r.now().UTC()
	u := &core.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(profile.Email),
		Name:         profile.Name,
		PictureURL:   profile.Picture,
		LastProvider: profile.Provider,
		RoleID:       core.DefaultRoleID,
		IsActive:     true,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	u.SetProviderID(profile.Provider, profile.ProviderID)

	if err := r.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// maskEmail masks an email for logging (first 2 chars + domain).
func maskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}
