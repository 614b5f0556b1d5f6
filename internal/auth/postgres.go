package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores API keys in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed API key repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an API key record.
func (r *PostgresRepository) Create(ctx context.Context, key APIKey) error {
	keyID, err := uuid.Parse(key.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO api_keys (id, prefix, hash, user_id, company_id, label, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		keyID, key.Prefix, key.Hash, key.UserID, key.CompanyID, key.Label, key.CreatedAt.UTC())
	return err
}

// FindByPrefix fetches all keys sharing a token prefix.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error) {
	rows, err := r.db.Query(ctx, `SELECT id, prefix, hash, user_id, company_id, label, created_at
        FROM api_keys WHERE prefix = $1`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var (
			id        uuid.UUID
			key       APIKey
			createdAt time.Time
		)
		if err := rows.Scan(&id, &key.Prefix, &key.Hash, &key.UserID, &key.CompanyID, &key.Label, &createdAt); err != nil {
			return nil, err
		}
		key.ID = id.String()
		key.CreatedAt = createdAt.UTC()
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
