package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// Schema creates the clients table. Registration metadata is kept as
// JSONB; the secret hash lives in its own column so it never leaves the
// store through the metadata document.
const Schema = `
CREATE TABLE IF NOT EXISTS oidc_clients (
	client_id   TEXT PRIMARY KEY,
	secret_hash TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
`

// Postgres persists clients through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, c *models.Client) error {
	meta, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal client: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO oidc_clients (client_id, secret_hash, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id) DO NOTHING
	`, c.ClientID, c.ClientSecretHash, meta, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", c.ClientID, sentinel.ErrConflict)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, c *models.Client) error {
	meta, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal client: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE oidc_clients SET secret_hash = $2, metadata = $3, updated_at = $4
		WHERE client_id = $1
	`, c.ClientID, c.ClientSecretHash, meta, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", c.ClientID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) FindByClientID(ctx context.Context, clientID string) (*models.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT secret_hash, metadata FROM oidc_clients WHERE client_id = $1
	`, clientID)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", clientID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	return c, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT secret_hash, metadata FROM oidc_clients ORDER BY client_id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClient(row pgx.Row) (*models.Client, error) {
	var (
		secretHash string
		meta       []byte
	)
	if err := row.Scan(&secretHash, &meta); err != nil {
		return nil, err
	}
	var c models.Client
	if err := json.Unmarshal(meta, &c); err != nil {
		return nil, err
	}
	c.ClientSecretHash = secretHash
	return &c, nil
}
