package pg

import (
	"context"
	"fmt"
	"sort"

	"github.com/punchline-api/punchline/internal/observability/logger"
	migrations "github.com/punchline-api/punchline/migrations/postgres"
)

// Migrate applies the embedded schema migrations in lexical order. Statements
// are idempotent (IF NOT EXISTS), so re-running is safe.
func (s *Store) Migrate(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("store.pg"), logger.Op("Migrate"))

	entries, err := migrations.SchemaFS.ReadDir(migrations.SchemaDir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.SchemaFS.ReadFile(migrations.SchemaDir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("migration applied", logger.String("file", name))
	}
	return nil
}
