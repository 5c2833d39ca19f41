package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchline-api/punchline/internal/store/core"
)

type jokeRepo struct {
	pool *pgxpool.Pool
}

func scanJoke(row pgx.Row) (*core.Joke, error) {
	var j core.Joke
	err := row.Scan(&j.ID, &j.Text, &j.Tags, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jokeRepo) List(ctx context.Context, limit, offset int) ([]core.Joke, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
		SELECT id, text, tags, created_at
		FROM joke
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jokes []core.Joke
	for rows.Next() {
		var j core.Joke
		if err := rows.Scan(&j.ID, &j.Text, &j.Tags, &j.CreatedAt); err != nil {
			return nil, err
		}
		jokes = append(jokes, j)
	}
	return jokes, rows.Err()
}

func (r *jokeRepo) GetByID(ctx context.Context, id string) (*core.Joke, error) {
	const query = `SELECT id, text, tags, created_at FROM joke WHERE id = $1`
	return scanJoke(r.pool.QueryRow(ctx, query, id))
}

func (r *jokeRepo) Random(ctx context.Context) (*core.Joke, error) {
	// TABLESAMPLE would be cheaper on large tables; the corpus stays small.
	const query = `SELECT id, text, tags, created_at FROM joke ORDER BY random() LIMIT 1`
	return scanJoke(r.pool.QueryRow(ctx, query))
}
