package storage

import (
	"context"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/suresportpicks/picks-service/internal/dbmanager"
)

func parseUUID(value string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "invalid uuid")
	}

	return parsed, nil
}

// WithTx runs fn inside a transaction, rolling back on error.
func WithTx(ctx context.Context, pool dbmanager.PgxPool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// KeyNameAsHash64 derives the two int4 keys pg_advisory_xact_lock expects
// from a stable name.
func KeyNameAsHash64(name string) (int32, int32) {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(name))
	sum := hash.Sum64()

	//nolint:gosec
	return int32(sum >> 32), int32(sum)
}

// AcquireBlockingLock takes a transaction-scoped advisory lock; it blocks
// until the lock is granted or the context is cancelled.
func AcquireBlockingLock(ctx context.Context, tx pgx.Tx, key1, key2 int32, log *zerolog.Logger) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2)", key1, key2)
	if err != nil {
		log.Error().Err(err).Int32("key1", key1).Int32("key2", key2).Msg("advisory lock not acquired")

		return errors.Wrap(err, "failed to acquire advisory lock")
	}

	return nil
}
