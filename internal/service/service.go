package service

import (
	"context"

	"discount-codes/internal/model"
)

// CodeService defines the discount code business operations.
type CodeService interface {
	// GenerateAndAdd generates count new unique codes of the given length and
	// persists them atomically. It returns false if nothing was persisted.
	GenerateAndAdd(ctx context.Context, count, length int) bool

	// UseCode redeems code.
	UseCode(ctx context.Context, code string) model.UseCodeResult

	// Stats reports the number of issued codes.
	Stats(ctx context.Context) (*model.StatsResponse, error)
}
