package repository

import (
	"context"
	"errors"
	"testing"

	"discount-codes/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// MockBeginner is a mock implementation of TxBeginner.
type MockBeginner struct {
	mock.Mock
}

func (m *MockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func beginWithMockTx(t *testing.T, tx *MockTx) UnitOfWork {
	ctx := context.Background()
	db := new(MockBeginner)
	db.On("Begin", ctx).Return(tx, nil)

	uow, err := NewUnitOfWorkFactory(db, zerolog.Nop()).Begin(ctx)
	require.NoError(t, err)
	require.Same(t, tx, uow.Tx())
	return uow
}

func TestUnitOfWork_BeginError(t *testing.T) {
	ctx := context.Background()
	db := new(MockBeginner)
	db.On("Begin", ctx).Return(nil, errors.New("connection refused"))

	uow, err := NewUnitOfWorkFactory(db, zerolog.Nop()).Begin(ctx)

	require.Error(t, err)
	assert.Nil(t, uow)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}

func TestUnitOfWork_CommitRunsHooksInOrder(t *testing.T) {
	ctx := context.Background()
	tx := new(MockTx)
	tx.On("Commit", ctx).Return(nil)

	uow := beginWithMockTx(t, tx)

	var calls []int
	uow.AfterCommit(func(context.Context) { calls = append(calls, 1) })
	uow.AfterCommit(func(context.Context) { calls = append(calls, 2) })

	require.NoError(t, uow.Commit(ctx))
	assert.Equal(t, []int{1, 2}, calls)
	tx.AssertExpectations(t)
}

func TestUnitOfWork_HooksSurviveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tx := new(MockTx)
	tx.On("Commit", ctx).Return(nil)

	uow := beginWithMockTx(t, tx)

	var hookErr error
	uow.AfterCommit(func(hookCtx context.Context) { hookErr = hookCtx.Err() })

	cancel()
	require.NoError(t, uow.Commit(ctx))
	assert.NoError(t, hookErr)
}

func TestUnitOfWork_CommitFailure(t *testing.T) {
	tests := []struct {
		name          string
		commitErr     error
		wantDuplicate bool
	}{
		{
			name:          "Unique violation",
			commitErr:     &pgconn.PgError{Code: "23505", Message: "duplicate key value"},
			wantDuplicate: true,
		},
		{
			name:      "Connection lost",
			commitErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tx := new(MockTx)
			tx.On("Commit", ctx).Return(tt.commitErr)

			uow := beginWithMockTx(t, tx)

			hookRan := false
			uow.AfterCommit(func(context.Context) { hookRan = true })

			err := uow.Commit(ctx)

			require.Error(t, err)
			assert.False(t, hookRan)
			assert.Equal(t, tt.wantDuplicate, errors.Is(err, model.ErrDuplicateCode))
		})
	}
}

func TestUnitOfWork_Rollback(t *testing.T) {
	tests := []struct {
		name        string
		rollbackErr error
		expectError bool
	}{
		{name: "Open transaction", rollbackErr: nil},
		{name: "Already committed", rollbackErr: pgx.ErrTxClosed},
		{name: "Connection lost", rollbackErr: errors.New("connection reset"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tx := new(MockTx)
			tx.On("Rollback", ctx).Return(tt.rollbackErr)

			uow := beginWithMockTx(t, tx)
			uow.AfterCommit(func(context.Context) { t.Fatal("hook must not run after rollback") })

			err := uow.Rollback(ctx)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to rollback transaction")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
