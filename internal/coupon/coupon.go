package coupon

import (
	"context"
)

// Generator produces batches of unique discount codes.
type Generator interface {
	// Generate returns exactly count distinct codes of the given length.
	// None of the returned codes is contained in forbidden.
	// Returns model.ErrInvalidCount or model.ErrInvalidLength for out-of-range
	// arguments and model.ErrGenerationExhausted when the draw budget runs out.
	Generate(count, length int, forbidden CouponSet) ([]string, error)
}

// CouponSet represents a set of coupon codes for fast lookup.
type CouponSet interface {
	// Contains checks if a coupon code exists in the set.
	Contains(code string) bool

	// Size returns the number of coupons in the set.
	Size() int
}

// Loader defines the interface for loading coupon files.
type Loader interface {
	// Load reads a gzipped coupon file and returns a CouponSet.
	Load(ctx context.Context, filePath string) (CouponSet, error)
}
