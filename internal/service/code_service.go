package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discount-codes/internal/coupon"
	"discount-codes/internal/model"
	"discount-codes/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxBatchAttempts is the number of times a batch is generated when
// commits keep colliding with codes issued concurrently.
const DefaultMaxBatchAttempts = 3

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Option configures a code service.
type Option func(*codeService)

// WithReserved adds codes that must never be issued.
func WithReserved(reserved coupon.CouponSet) Option {
	return func(s *codeService) {
		s.reserved = reserved
	}
}

// WithMaxBatchAttempts bounds regeneration after a uniqueness conflict at commit.
func WithMaxBatchAttempts(n int) Option {
	return func(s *codeService) {
		if n > 0 {
			s.maxBatchAttempts = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *codeService) {
		s.now = now
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(s *codeService) {
		s.metrics = m
	}
}

// codeService implements CodeService.
type codeService struct {
	repo             repository.CodeRepository
	uows             repository.UnitOfWorkFactory
	generator        coupon.Generator
	reserved         coupon.CouponSet
	maxBatchAttempts int
	now              func() time.Time
	metrics          *Metrics
	logger           zerolog.Logger
}

// NewCodeService creates a new code service.
func NewCodeService(
	repo repository.CodeRepository,
	uows repository.UnitOfWorkFactory,
	generator coupon.Generator,
	logger zerolog.Logger,
	opts ...Option,
) CodeService {
	s := &codeService{
		repo:             repo,
		uows:             uows,
		generator:        generator,
		maxBatchAttempts: DefaultMaxBatchAttempts,
		now:              time.Now,
		logger:           logger.With().Str("service", "discount_code").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAndAdd never commits a partial batch. When the commit collides with
// codes issued concurrently the whole batch is drawn again against a fresh
// snapshot, up to maxBatchAttempts times.
func (s *codeService) GenerateAndAdd(ctx context.Context, count, length int) bool {
	if err := coupon.ValidateRequest(count, length); err != nil {
		s.logger.Warn().Err(err).Int("count", count).Int("length", length).Msg("invalid generation request")
		s.metrics.generation(outcomeRejected, 0)
		return false
	}

	for attempt := 1; attempt <= s.maxBatchAttempts; attempt++ {
		err := s.generateBatch(ctx, count, length)
		if err == nil {
			s.logger.Info().
				Int("count", count).
				Int("length", length).
				Int("attempt", attempt).
				Msg("discount codes generated")
			s.metrics.generation(outcomeSuccess, count)
			return true
		}

		if errors.Is(err, model.ErrDuplicateCode) && attempt < s.maxBatchAttempts && ctx.Err() == nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("batch collided with concurrent codes, regenerating")
			continue
		}

		s.logger.Error().
			Err(err).
			Int("count", count).
			Int("length", length).
			Int("attempt", attempt).
			Msg("failed to generate discount codes")
		break
	}

	s.metrics.generation(outcomeFailed, 0)
	return false
}

func (s *codeService) generateBatch(ctx context.Context, count, length int) (err error) {
	existing, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load existing codes: %w", err)
	}

	forbidden := coupon.Union(coupon.NewCouponSetFromCodes(existing), s.reserved)

	codes, err := s.generator.Generate(count, length, forbidden)
	if err != nil {
		return fmt.Errorf("failed to generate codes: %w", err)
	}

	batchID := uuid.New()
	now := s.now()
	records := make([]model.DiscountCode, len(codes))
	for i, code := range codes {
		records[i] = model.NewDiscountCode(code, batchID, now)
	}

	uow, err := s.uows.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := uow.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.repo.AddRange(ctx, uow, records); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	s.logger.Debug().Str("batch_id", batchID.String()).Int("count", len(records)).Msg("batch committed")
	return nil
}

// UseCode returns Failure for a missing or already used code and Exception
// when the lookup, update or commit fails for any other reason.
func (s *codeService) UseCode(ctx context.Context, code string) model.UseCodeResult {
	result := s.useCode(ctx, code)
	s.metrics.redemption(result.String())
	return result
}

func (s *codeService) useCode(ctx context.Context, code string) (result model.UseCodeResult) {
	logger := s.logger.With().Str("code", code).Logger()

	if code == "" {
		logger.Debug().Msg("empty code")
		return model.UseCodeFailure
	}

	dc, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		logger.Error().Err(err).Msg("failed to look up discount code")
		return model.UseCodeException
	}
	if dc == nil {
		logger.Debug().Msg("discount code not found")
		return model.UseCodeFailure
	}

	if err := dc.Redeem(s.now()); err != nil {
		logger.Debug().Msg("discount code already used")
		return model.UseCodeFailure
	}

	uow, err := s.uows.Begin(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin redemption")
		return model.UseCodeException
	}

	defer func() {
		if result != model.UseCodeSuccess {
			if rbErr := uow.Rollback(ctx); rbErr != nil {
				logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err := s.repo.Update(ctx, uow, dc); err != nil {
		if errors.Is(err, model.ErrCodeAlreadyUsed) {
			logger.Debug().Msg("discount code redeemed concurrently")
			return model.UseCodeFailure
		}
		logger.Error().Err(err).Msg("failed to update discount code")
		return model.UseCodeException
	}

	if err := uow.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit redemption")
		return model.UseCodeException
	}

	logger.Info().Msg("discount code used")
	return model.UseCodeSuccess
}

// Stats reports the number of issued codes.
func (s *codeService) Stats(ctx context.Context) (*model.StatsResponse, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count discount codes")
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &model.StatsResponse{Total: total}, nil
}
