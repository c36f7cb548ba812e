// Package outboxtx implements the Unit-of-Work + transactional outbox
// contract (spec §4.2 / C4): work runs inside one database transaction,
// and any domain events produced by that work are appended to the outbox
// table in the very same transaction, so a committed aggregate write and
// its outbox entries are never observed apart (spec §8 invariant 3).
package outboxtx

import (
	"context"
	"database/sql"
	"fmt"
)

// txKey is the context key the ambient *sql.Tx is stored under, following
// the context-threaded transaction idiom (grounded on
// other_examples/1624cbce_stoneMan1982-workexperience__...dbx-tx.go).
type txKey struct{}

// UnitOfWork runs work inside a database transaction. A nested call
// (work that itself calls Transaction) observes the outer transaction
// instead of opening a new one (spec §4.2 "Re-entrancy").
type UnitOfWork struct {
	db *sql.DB
}

func New(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Transaction runs work inside a transaction, committing on success and
// rolling back on any error work returns (including a panic, which is
// re-raised after rollback).
func (u *UnitOfWork) Transaction(ctx context.Context, work func(ctx context.Context) error) (err error) {
	if TxFromContext(ctx) != nil {
		// Re-entrant: reuse the ambient transaction, no nested commit.
		return work(ctx)
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	ctx = withTx(ctx, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = work(ctx)
	return err
}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the ambient transaction, or nil if none is open.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// Querier is satisfied by both *sql.DB and *sql.Tx; repositories use it so
// they work whether or not a transaction is ambient.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// QuerierFromContext returns the ambient transaction if one is open,
// otherwise falls back to db. Every repository method should start with
// this so it transparently joins an outer UnitOfWork.Transaction.
func QuerierFromContext(ctx context.Context, db *sql.DB) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
