// Package postgres holds small PostgreSQL helpers shared by the persistence
// adapters.
package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
)

// AcquireUserLock takes a transaction-scoped advisory lock serializing all
// writes for one user. The lock is released automatically at commit or
// rollback.
func AcquireUserLock(ctx context.Context, tx pgx.Tx, username string) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", UserLockID(username)); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	return nil
}

// UserLockID maps a username onto a stable advisory lock identifier.
func UserLockID(username string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(username))
	return int64(h.Sum64())
}
