// Package postgres opens the two database handles the provider uses: a
// pgx pool for the client registry and a database/sql handle (lib/pq) for
// the revocation list.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

type Handles struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Open connects both handles and applies the given schema statements.
func Open(ctx context.Context, dsn string, schemas ...string) (*Handles, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	for _, schema := range schemas {
		if _, err := pool.Exec(ctx, schema); err != nil {
			pool.Close()
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Handles{Pool: pool, DB: db}, nil
}

func (h *Handles) Health(ctx context.Context) error {
	return h.Pool.Ping(ctx)
}

func (h *Handles) Close() error {
	h.Pool.Close()
	return h.DB.Close()
}
