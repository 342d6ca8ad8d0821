package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

const opTimeout = 5 * time.Second

type recordStorage struct {
	db *sql.DB
}

// NewRecordStorage создаёт PostgreSQL-реализацию RecordStorage поверх таблицы cart_records.
func NewRecordStorage(store *Store) domain.RecordStorage {
	return &recordStorage{db: store.DB()}
}

func (r *recordStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM cart_records WHERE key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart record: %w", err)
	}
	return []byte(payload), nil
}

// Put перезаписывает запись целиком: last-write-wins, без проверки версий.
func (r *recordStorage) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_records (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, key, string(value)); err != nil {
		return fmt.Errorf("upsert cart record: %w", err)
	}
	return nil
}

func (r *recordStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete cart record: %w", err)
	}
	return nil
}

var _ domain.RecordStorage = (*recordStorage)(nil)
