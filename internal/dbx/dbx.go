// Package dbx holds the small database helpers shared by repositories: the
// DBTX interface satisfied by both *sql.DB and *sql.Tx, a transaction
// runner and an EXISTS probe.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql the repositories use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner starts transactions. *sql.DB implements it.
type TxRunner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when it returns an error or panics; panics
// are re-raised after the rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return repo(tx).ReplaceForRole(ctx, role, perms)
//	})
func WithTx(ctx context.Context, db TxRunner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}

// Exists wraps query in SELECT EXISTS(...) and scans the boolean result.
func Exists(ctx context.Context, db DBTX, query string, args ...any) (bool, error) {
	var ok bool
	if err := db.QueryRowContext(ctx, "SELECT EXISTS ("+query+")", args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
