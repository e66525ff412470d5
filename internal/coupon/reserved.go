package coupon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ReservedConfig lists the coupon files holding codes that must never be issued,
// such as codes handed out by a legacy system.
type ReservedConfig struct {
	FilePaths []string
}

// LoadReserved loads all reserved coupon files concurrently and returns their union.
// An empty configuration yields an empty set.
func LoadReserved(ctx context.Context, cfg ReservedConfig, loader Loader, logger zerolog.Logger) (CouponSet, error) {
	logger = logger.With().Str("component", "reserved-codes").Logger()

	if len(cfg.FilePaths) == 0 {
		logger.Info().Msg("no reserved coupon files configured")
		return NewMapCouponSet(0), nil
	}

	logger.Info().
		Int("file_count", len(cfg.FilePaths)).
		Msg("loading reserved coupon files")

	sets := make([]CouponSet, len(cfg.FilePaths))
	g, gctx := errgroup.WithContext(ctx)

	for i, filePath := range cfg.FilePaths {
		g.Go(func() error {
			set, err := loader.Load(gctx, filePath)
			if err != nil {
				return fmt.Errorf("failed to load reserved coupon file %s: %w", filePath, err)
			}
			sets[i] = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to load reserved coupon files")
		return nil, err
	}

	reserved := Union(sets...)

	logger.Info().
		Int("total_reserved", reserved.Size()).
		Msg("reserved coupon files loaded")

	return reserved, nil
}
