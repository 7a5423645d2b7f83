package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates the farm already processed this key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore persists processed request keys scoped per farm. Two farms
// may submit the same reference independently; within one farm a key is
// accepted exactly once.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims the key for the farm. A duplicate claim returns
// ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, farmID int64, key, module string) error {
	if s == nil {
		return E(KindTransactionFailed, "idempotency store not initialised")
	}
	if farmID <= 0 {
		return E(KindValidation, "idempotency farm id required")
	}
	if key == "" {
		return E(KindValidation, "idempotency key required")
	}
	if module == "" {
		return E(KindValidation, "idempotency module required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (farm_id, key, module, created_at) VALUES ($1, $2, $3, $4)`,
		farmID, key, module, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Delete releases a claimed key so the farm can retry after a failed run.
func (s *IdempotencyStore) Delete(ctx context.Context, farmID int64, key string) error {
	if s == nil {
		return nil
	}
	if farmID <= 0 || key == "" {
		return E(KindValidation, "idempotency farm id and key required")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE farm_id=$1 AND key=$2`, farmID, key)
	return err
}

// Cleanup removes keys older than the retention window across all farms and
// reports how many were dropped.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
