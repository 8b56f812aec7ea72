package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// listPageSize bounds each keyset page read from result_artifacts.
const listPageSize = 500

const schema = `
CREATE TABLE IF NOT EXISTS result_artifacts (
	container  TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	locator    TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (container, name)
)`

// Ensure PostgresStore implements Store and Writer.
var (
	_ Store  = (*PostgresStore)(nil)
	_ Writer = (*PostgresStore)(nil)
)

// PostgresStore is a catalog of result artifacts kept in PostgreSQL.
type PostgresStore struct {
	pool     *pgxpool.Pool
	pageSize int
}

// NewPostgresStore creates a new PostgreSQL-backed artifact store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, pageSize: listPageSize}
}

// EnsureSchema creates the result_artifacts table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// List reads every artifact in container, one keyset page at a time.
func (s *PostgresStore) List(ctx context.Context, container string) ([]Artifact, error) {
	query := `
		SELECT name, locator
		FROM result_artifacts
		WHERE container = $1 AND name > $2
		ORDER BY name
		LIMIT $3`

	var (
		out   []Artifact
		after string
	)
	for {
		rows, err := s.pool.Query(ctx, query, container, after, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("postgres: list artifacts: %w", err)
		}

		n := 0
		for rows.Next() {
			var a Artifact
			if err := rows.Scan(&a.Name, &a.Locator); err != nil {
				rows.Close()
				return nil, fmt.Errorf("postgres: scan artifact: %w", err)
			}
			out = append(out, a)
			after = a.Name
			n++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("postgres: list artifacts: %w", err)
		}

		if n < s.pageSize {
			return out, nil
		}
	}
}

// Put registers or replaces an artifact.
func (s *PostgresStore) Put(ctx context.Context, container string, a Artifact) error {
	query := `
		INSERT INTO result_artifacts (container, name, locator, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (container, name) DO UPDATE SET locator = EXCLUDED.locator`

	_, err := s.pool.Exec(ctx, query, container, a.Name, a.Locator, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: put artifact: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
