package coupon

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReserved_NoFiles(t *testing.T) {
	loader := &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
		t.Error("loader should not be called without files")
		return nil, nil
	}}

	set, err := LoadReserved(context.Background(), ReservedConfig{}, loader, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, 0, set.Size())
}

func TestLoadReserved_UnionOfFiles(t *testing.T) {
	first := createTestCouponFile(t, "first.gz", []string{"LEGACY01", "LEGACY02"})
	second := createTestCouponFile(t, "second.gz", []string{"BLOCKED1"})

	cfg := ReservedConfig{FilePaths: []string{first, second}}

	set, err := LoadReserved(context.Background(), cfg, NewFileLoader(zerolog.Nop()), zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, 3, set.Size())
	assert.True(t, set.Contains("LEGACY01"))
	assert.True(t, set.Contains("LEGACY02"))
	assert.True(t, set.Contains("BLOCKED1"))
}

func TestLoadReserved_OneFileFails(t *testing.T) {
	loader := &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
		if path == "bad.gz" {
			return nil, errors.New("corrupt file")
		}
		return setOf("GOODCODE"), nil
	}}

	cfg := ReservedConfig{FilePaths: []string{"good.gz", "bad.gz"}}

	set, err := LoadReserved(context.Background(), cfg, loader, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, set)
	assert.Contains(t, err.Error(), "bad.gz")
	assert.Contains(t, err.Error(), "corrupt file")
}
