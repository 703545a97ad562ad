package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wisekey/langcenter/internal/config"
)

// PostgresStorage keeps the two keys as rows of client_sessions. The
// table is created by the migrations in migrations/.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (p *PostgresStorage) Save(ctx context.Context, rec Record) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		const upsert = `
			INSERT INTO client_sessions (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, updated_at = NOW()`

		if _, err := tx.Exec(ctx, upsert, config.StorageKey.AccessToken, rec.AccessToken); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		if _, err := tx.Exec(ctx, upsert, config.StorageKey.User, string(rec.User)); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
}

func (p *PostgresStorage) Load(ctx context.Context) (Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, value FROM client_sessions WHERE key = ANY($1)`,
		[]string{config.StorageKey.AccessToken, config.StorageKey.User},
	)
	if err != nil {
		return Record{}, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	var rec Record
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Record{}, fmt.Errorf("scan session: %w", err)
		}
		switch key {
		case config.StorageKey.AccessToken:
			rec.AccessToken = value
		case config.StorageKey.User:
			if value != "" {
				rec.User = []byte(value)
			}
		}
	}
	return rec, rows.Err()
}

func (p *PostgresStorage) Remove(ctx context.Context) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM client_sessions WHERE key = ANY($1)`,
		[]string{config.StorageKey.AccessToken, config.StorageKey.User},
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
