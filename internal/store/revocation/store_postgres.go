package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Schema creates the table PostgresTRL expects.
const Schema = `
CREATE TABLE IF NOT EXISTS token_revocations (
	jti        TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS token_revocations_expires_at_idx ON token_revocations (expires_at);
`

// PostgresTRL persists revoked identifiers in PostgreSQL.
type PostgresTRL struct {
	db    *sql.DB
	clock Clock
}

type PostgresOption func(*PostgresTRL)

func WithPostgresClock(clock Clock) PostgresOption {
	return func(t *PostgresTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func NewPostgresTRL(db *sql.DB, opts ...PostgresOption) *PostgresTRL {
	t := &PostgresTRL{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *PostgresTRL) RevokeToken(ctx context.Context, id string, ttl time.Duration) error {
	if id == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO token_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, id, t.clock().Add(ttl))
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (t *PostgresTRL) IsRevoked(ctx context.Context, id string) (bool, error) {
	var expiresAt time.Time
	err := t.db.QueryRowContext(ctx, `SELECT expires_at FROM token_revocations WHERE jti = $1`, id).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return t.clock().Before(expiresAt), nil
}

// RevokeMany inserts every id in a single statement via unnest.
func (t *PostgresTRL) RevokeMany(ctx context.Context, ids []string, ttl time.Duration) error {
	ids = nonEmpty(ids)
	if len(ids) == 0 {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO token_revocations (jti, expires_at)
		SELECT unnest($1::text[]), $2
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, pq.Array(ids), t.clock().Add(ttl))
	if err != nil {
		return fmt.Errorf("revoke tokens batch: %w", err)
	}
	return nil
}

func (t *PostgresTRL) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM token_revocations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
