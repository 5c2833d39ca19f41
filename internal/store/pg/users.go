package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchline-api/punchline/internal/store/core"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, name, picture_url, google_id, microsoft_id, facebook_id,
	last_provider, role_id, is_active, created_at, modified_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PictureURL,
		&u.GoogleID, &u.MicrosoftID, &u.FacebookID,
		&u.LastProvider, &u.RoleID, &u.IsActive,
		&u.CreatedAt, &u.ModifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*core.User, error) {
	const query = `SELECT ` + userColumns + ` FROM app_user WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepo) FindByProviderID(ctx context.Context, provider, providerID string) (*core.User, error) {
	var column string
	switch provider {
	case core.ProviderGoogle:
		column = "google_id"
	case core.ProviderMicrosoft:
		column = "microsoft_id"
	case core.ProviderFacebook:
		column = "facebook_id"
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", core.ErrInvalid, provider)
	}

	query := fmt.Sprintf(`SELECT %s FROM app_user WHERE %s = $1`, userColumns, column)
	return scanUser(r.pool.QueryRow(ctx, query, providerID))
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	const query = `SELECT ` + userColumns + ` FROM app_user WHERE lower(email) = lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepo) Create(ctx context.Context, u *core.User) error {
	const query = `
		INSERT INTO app_user (id, email, name, picture_url, google_id, microsoft_id, facebook_id,
			last_provider, role_id, is_active, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Name, u.PictureURL,
		u.GoogleID, u.MicrosoftID, u.FacebookID,
		u.LastProvider, u.RoleID, u.IsActive,
		u.CreatedAt, u.ModifiedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *core.User) error {
	const query = `
		UPDATE app_user
		SET email = $2, name = $3, picture_url = $4, google_id = $5, microsoft_id = $6,
			facebook_id = $7, last_provider = $8, role_id = $9, is_active = $10, modified_at = $11
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Name, u.PictureURL,
		u.GoogleID, u.MicrosoftID, u.FacebookID,
		u.LastProvider, u.RoleID, u.IsActive, u.ModifiedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
