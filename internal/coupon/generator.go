package coupon

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"

	"discount-codes/internal/model"
)

const (
	// Alphabet is the set of symbols a discount code is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	MinCount  = 1
	MaxCount  = 2000
	MinLength = 7
	MaxLength = 8

	// DefaultMaxAttemptsFactor bounds the number of random draws to count*factor.
	DefaultMaxAttemptsFactor = 100

	// bytes at or above this value are rejected to keep the draw uniform
	maxUnbiasedByte = 256 - 256%len(Alphabet)
)

// GeneratorOption configures a random generator.
type GeneratorOption func(*randomGenerator)

// WithRandomSource replaces crypto/rand as the byte source.
func WithRandomSource(r io.Reader) GeneratorOption {
	return func(g *randomGenerator) {
		g.source = r
	}
}

// WithMaxAttemptsFactor sets how many draws per requested code are allowed.
func WithMaxAttemptsFactor(factor int) GeneratorOption {
	return func(g *randomGenerator) {
		if factor > 0 {
			g.maxAttemptsFactor = factor
		}
	}
}

// randomGenerator implements Generator with uniform random draws.
// It holds no mutable state and is safe for concurrent use.
type randomGenerator struct {
	source            io.Reader
	maxAttemptsFactor int
}

// NewRandomGenerator creates a generator drawing from Alphabet.
func NewRandomGenerator(opts ...GeneratorOption) Generator {
	g := &randomGenerator{
		source:            rand.Reader,
		maxAttemptsFactor: DefaultMaxAttemptsFactor,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateRequest checks count and length against the accepted ranges.
func ValidateRequest(count, length int) error {
	if count < MinCount || count > MaxCount {
		return fmt.Errorf("%w: got count=%d", model.ErrInvalidCount, count)
	}
	if length < MinLength || length > MaxLength {
		return fmt.Errorf("%w: got length=%d", model.ErrInvalidLength, length)
	}
	return nil
}

// Generate returns exactly count distinct codes of the given length, none in forbidden.
func (g *randomGenerator) Generate(count, length int, forbidden CouponSet) ([]string, error) {
	if err := ValidateRequest(count, length); err != nil {
		return nil, err
	}

	if forbidden == nil {
		forbidden = NewMapCouponSet(0)
	}

	accepted := NewMapCouponSet(count).(*mapCouponSet)
	codes := make([]string, 0, count)

	// A buffered reader per call keeps concurrent calls independent.
	reader := bufio.NewReaderSize(g.source, 256)
	buf := make([]byte, length)

	maxAttempts := count * g.maxAttemptsFactor
	for attempt := 0; attempt < maxAttempts && len(codes) < count; attempt++ {
		if err := drawCode(reader, buf); err != nil {
			return nil, fmt.Errorf("failed to read random source: %w", err)
		}

		code := string(buf)
		if forbidden.Contains(code) || accepted.Contains(code) {
			continue
		}

		accepted.Add(code)
		codes = append(codes, code)
	}

	if len(codes) < count {
		return nil, fmt.Errorf("%w: produced %d of %d after %d attempts",
			model.ErrGenerationExhausted, len(codes), count, maxAttempts)
	}

	return codes, nil
}

// drawCode fills buf with uniformly distributed alphabet symbols.
func drawCode(r io.ByteReader, buf []byte) error {
	for i := range buf {
		for {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			if int(b) < maxUnbiasedByte {
				buf[i] = Alphabet[int(b)%len(Alphabet)]
				break
			}
		}
	}
	return nil
}
