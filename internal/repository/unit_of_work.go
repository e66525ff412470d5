package repository

import (
	"context"
	"errors"
	"fmt"

	"discount-codes/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// UnitOfWork groups repository mutations into one transaction.
type UnitOfWork interface {
	// Tx returns the transaction mutations are staged on.
	Tx() pgx.Tx

	// AfterCommit registers fn to run once Commit succeeds.
	AfterCommit(fn func(ctx context.Context))

	// Commit makes every staged mutation durable. On failure nothing is visible.
	Commit(ctx context.Context) error

	// Rollback discards staged mutations. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory starts units of work.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type unitOfWorkFactory struct {
	db     TxBeginner
	logger zerolog.Logger
}

// NewUnitOfWorkFactory creates a factory that opens transactions on db.
func NewUnitOfWorkFactory(db TxBeginner, logger zerolog.Logger) UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:     db,
		logger: logger.With().Str("repository", "unit_of_work").Logger(),
	}
}

// Begin starts a new database transaction.
func (f *unitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := f.db.Begin(ctx)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &unitOfWork{tx: tx, logger: f.logger}, nil
}

type unitOfWork struct {
	tx     pgx.Tx
	hooks  []func(ctx context.Context)
	logger zerolog.Logger
}

func (u *unitOfWork) Tx() pgx.Tx {
	return u.tx
}

func (u *unitOfWork) AfterCommit(fn func(ctx context.Context)) {
	u.hooks = append(u.hooks, fn)
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		u.logger.Error().Err(err).Msg("failed to commit transaction")
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to commit transaction: %w: %w", model.ErrDuplicateCode, err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// hooks run even if ctx is cancelled once the transaction is durable
	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range u.hooks {
		hook(hookCtx)
	}
	u.hooks = nil
	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	u.hooks = nil
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		u.logger.Error().Err(err).Msg("failed to rollback transaction")
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
