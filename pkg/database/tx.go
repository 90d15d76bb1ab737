package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLSTATE codes the booking path reacts to.
const (
	codeExclusionViolation   = "23P01"
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// TxFunc runs inside a transaction.
type TxFunc func(tx *sqlx.Tx) error

// TxBeginner is satisfied by *sqlx.DB.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// WithSerializableTx runs fn in a SERIALIZABLE transaction, committing when fn
// returns nil and rolling back otherwise. It does not retry; a serialization
// failure is returned so the caller can re-check before trying again.
func WithSerializableTx(ctx context.Context, db TxBeginner, fn TxFunc) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin serializable tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit serializable tx: %w", err)
	}
	return nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsOverlapViolation reports whether err comes from the lesson exclusion
// constraint (or a unique index standing in for it).
func IsOverlapViolation(err error) bool {
	code := pqCode(err)
	return code == codeExclusionViolation || code == codeUniqueViolation
}

// IsSerializationFailure reports whether a concurrent transaction won the race.
func IsSerializationFailure(err error) bool {
	code := pqCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}
