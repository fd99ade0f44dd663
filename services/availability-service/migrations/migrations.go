// Package migrations embeds the availability-service schema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

//go:embed *.sql
var files embed.FS

type Migration struct {
	Name string
	SQL  string
}

// All returns the migrations in filename order. Every statement is
// idempotent, so applying them twice is safe.
func All() ([]Migration, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Migration, 0, len(names))
	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: name, SQL: string(b)})
	}
	return out, nil
}

// Apply runs every migration in order. Each file is sent as one simple-protocol
// batch.
func Apply(ctx context.Context, pool *db.Pool, logger *slog.Logger) error {
	ms, err := All()
	if err != nil {
		return err
	}
	for _, m := range ms {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
		logger.Info("migration applied", "name", m.Name)
	}
	return nil
}
