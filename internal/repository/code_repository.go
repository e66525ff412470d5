package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discount-codes/internal/cache"
	"discount-codes/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// issuedCodesKey holds the set of committed codes.
	issuedCodesKey = "discount_codes:issued"
	codeKeyPrefix  = "discount_code:"
)

var codeColumns = []string{"code", "is_used", "batch_id", "created_at", "used_at"}

// codeRepository implements CodeRepository using PostgreSQL with a cache in front.
// Cache failures are logged and never returned.
type codeRepository struct {
	pool   *pgxpool.Pool
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCodeRepository creates a new PostgreSQL-backed code repository.
func NewCodeRepository(pool *pgxpool.Pool, c cache.Cache, ttl time.Duration, logger zerolog.Logger) CodeRepository {
	if c == nil {
		c = cache.NewNopCache()
	}
	return &codeRepository{
		pool:   pool,
		cache:  c,
		ttl:    ttl,
		logger: logger.With().Str("repository", "discount_code").Logger(),
	}
}

func codeKey(code string) string {
	return codeKeyPrefix + code
}

// GetAll serves the cached set only when its cardinality matches the table.
// The set only ever receives committed codes, so it is a subset of the table
// and equal size means equal content. Otherwise the table is read and the set rebuilt.
func (r *codeRepository) GetAll(ctx context.Context) ([]string, error) {
	cached, cacheErr := r.cache.Card(ctx, issuedCodesKey)
	if cacheErr != nil {
		r.logger.Warn().Err(cacheErr).Msg("failed to read issued code set size from cache")
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	if cacheErr == nil && cached == total {
		members, err := r.cache.Members(ctx, issuedCodesKey)
		switch {
		case err != nil:
			r.logger.Warn().Err(err).Msg("failed to read issued code set from cache")
		case int64(len(members)) >= total:
			r.logger.Debug().Int64("count", total).Msg("issued codes served from cache")
			return members, nil
		}
	}

	codes, err := r.loadCodes(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Replace(ctx, issuedCodesKey, codes); err != nil {
		r.logger.Warn().Err(err).Msg("failed to rebuild issued code set in cache")
	}

	r.logger.Debug().Int("count", len(codes)).Msg("issued codes loaded from database")
	return codes, nil
}

func (r *codeRepository) loadCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM discount_codes`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query discount codes")
		return nil, fmt.Errorf("failed to query discount codes: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan discount code rows")
		return nil, fmt.Errorf("failed to scan discount codes: %w", err)
	}
	return codes, nil
}

// AddRange bulk inserts codes with COPY inside the unit of work.
func (r *codeRepository) AddRange(ctx context.Context, uow UnitOfWork, codes []model.DiscountCode) error {
	if len(codes) == 0 {
		return nil
	}

	rows := make([][]any, len(codes))
	values := make([]string, len(codes))
	for i, c := range codes {
		rows[i] = []any{c.Code, c.IsUsed, c.BatchID, c.CreatedAt, c.UsedAt}
		values[i] = c.Code
	}

	n, err := uow.Tx().CopyFrom(ctx, pgx.Identifier{"discount_codes"}, codeColumns, pgx.CopyFromRows(rows))
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(codes)).Msg("failed to insert discount codes")
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert discount codes: %w: %w", model.ErrDuplicateCode, err)
		}
		return fmt.Errorf("failed to insert discount codes: %w", err)
	}

	uow.AfterCommit(func(ctx context.Context) {
		if err := r.cache.Add(ctx, issuedCodesKey, values...); err != nil {
			r.logger.Warn().Err(err).Int("count", len(values)).Msg("failed to add issued codes to cache")
		}
	})

	r.logger.Debug().Int64("count", n).Msg("discount codes staged")
	return nil
}

// GetByCode checks the cache first and falls back to the database on a miss,
// a cache error or an undecodable entry. Only redeemed records are cached:
// Redeemed is terminal, so a cached entry can never go stale, while active
// records are always read from the database.
func (r *codeRepository) GetByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	key := codeKey(code)

	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var dc model.DiscountCode
		decodeErr := cache.Decode(data, &dc)
		if decodeErr == nil && dc.IsUsed {
			return &dc, nil
		}
		if decodeErr != nil {
			r.logger.Warn().Err(decodeErr).Str("code", code).Msg("discarding undecodable cache entry")
		} else {
			r.logger.Debug().Str("code", code).Msg("ignoring cached active record")
		}
	case errors.Is(err, cache.ErrMiss):
	default:
		r.logger.Warn().Err(err).Str("code", code).Msg("failed to read discount code from cache")
	}

	query := `
		SELECT code, is_used, batch_id, created_at, used_at
		FROM discount_codes
		WHERE code = $1
	`

	var dc model.DiscountCode
	err = r.pool.QueryRow(ctx, query, code).Scan(&dc.Code, &dc.IsUsed, &dc.BatchID, &dc.CreatedAt, &dc.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("discount code not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query discount code")
		return nil, fmt.Errorf("failed to query discount code: %w", err)
	}

	if dc.IsUsed {
		r.store(ctx, &dc)
	}

	return &dc, nil
}

// store caches a redeemed record.
func (r *codeRepository) store(ctx context.Context, dc *model.DiscountCode) {
	encoded, err := cache.Encode(dc)
	if err != nil {
		r.logger.Warn().Err(err).Str("code", dc.Code).Msg("failed to encode discount code")
		r.invalidate(ctx, dc.Code)
		return
	}
	if err := r.cache.Set(ctx, codeKey(dc.Code), encoded, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("code", dc.Code).Msg("failed to cache discount code")
	}
}

// Update performs the redemption as a compare-and-set on is_used so that only
// one of several concurrent redemptions of the same code can succeed. The
// redeemed record is cached once the unit of work commits.
func (r *codeRepository) Update(ctx context.Context, uow UnitOfWork, code *model.DiscountCode) error {
	if !code.IsUsed {
		return fmt.Errorf("failed to update discount code %s: only redemption is supported", code.Code)
	}

	query := `
		UPDATE discount_codes
		SET is_used = TRUE, used_at = $2
		WHERE code = $1 AND is_used = FALSE
	`

	tag, err := uow.Tx().Exec(ctx, query, code.Code, code.UsedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code.Code).Msg("failed to update discount code")
		return fmt.Errorf("failed to update discount code: %w", err)
	}

	r.invalidate(ctx, code.Code)

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("code", code.Code).Msg("discount code already used")
		return model.ErrCodeAlreadyUsed
	}

	redeemed := *code
	uow.AfterCommit(func(ctx context.Context) {
		r.store(ctx, &redeemed)
	})

	return nil
}

func (r *codeRepository) invalidate(ctx context.Context, code string) {
	if err := r.cache.Delete(ctx, codeKey(code)); err != nil {
		r.logger.Warn().Err(err).Str("code", code).Msg("failed to invalidate cached discount code")
	}
}

// Count returns the number of issued codes.
func (r *codeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM discount_codes`).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count discount codes")
		return 0, fmt.Errorf("failed to count discount codes: %w", err)
	}
	return total, nil
}
