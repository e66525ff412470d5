package repository

import (
	"context"

	"discount-codes/internal/model"
)

// CodeRepository defines the data access operations for discount codes.
type CodeRepository interface {
	// GetAll returns every issued code. The result includes all codes
	// committed before the call started.
	GetAll(ctx context.Context) ([]string, error)

	// AddRange stages the insertion of codes inside uow. Nothing is visible
	// until uow commits. A code that already exists yields model.ErrDuplicateCode.
	AddRange(ctx context.Context, uow UnitOfWork, codes []model.DiscountCode) error

	// GetByCode retrieves a single code. Returns nil, nil if it does not exist.
	GetByCode(ctx context.Context, code string) (*model.DiscountCode, error)

	// Update stages the redemption of code inside uow. It only succeeds if
	// the stored row is still unused; otherwise it returns model.ErrCodeAlreadyUsed.
	Update(ctx context.Context, uow UnitOfWork, code *model.DiscountCode) error

	// Count returns the number of issued codes.
	Count(ctx context.Context) (int64, error)
}
