package coupon

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestCouponFile creates a gzipped coupon file in a temp dir.
func createTestCouponFile(t *testing.T, filename string, coupons []string) string {
	t.Helper()

	filePath := filepath.Join(t.TempDir(), filename)

	file, err := os.Create(filePath)
	require.NoError(t, err)
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, coupon := range coupons {
		_, err := gzipWriter.Write([]byte(coupon + "\n"))
		require.NoError(t, err)
	}

	return filePath
}

func TestFileLoader_Load_Success(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())
	reserved := []string{"LEGACY01", "LEGACY02", "OLDCODE"}

	filePath := createTestCouponFile(t, "reserved.gz", reserved)

	set, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, 3, set.Size())
	for _, code := range reserved {
		assert.True(t, set.Contains(code), "expected code %s to be present", code)
	}
}

func TestFileLoader_Load_NormalisesLines(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createTestCouponFile(t, "messy.gz", []string{
		"  trimmed1  ",
		"",
		"\tTRIMMED2\t",
		"   ",
		"trimmed1",
	})

	set, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Contains("TRIMMED1"))
	assert.True(t, set.Contains("TRIMMED2"))
	assert.False(t, set.Contains("  trimmed1  "))
}

func TestFileLoader_Load_Errors(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	notGzip := filepath.Join(t.TempDir(), "invalid.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte("not a gzip file"), 0o644))

	tests := []struct {
		name     string
		path     string
		errMatch string
	}{
		{name: "File not found", path: "/nonexistent/path/file.gz", errMatch: "failed to open reserved code file"},
		{name: "Invalid gzip", path: notGzip, errMatch: "failed to create gzip reader"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := loader.Load(context.Background(), tt.path)

			require.Error(t, err)
			assert.Nil(t, set)
			assert.Contains(t, err.Error(), tt.errMatch)
		})
	}
}

func TestFileLoader_Load_ContextCancelled(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	codes := make([]string, 1000)
	for i := range codes {
		codes[i] = fmt.Sprintf("C%06d", i)
	}
	filePath := createTestCouponFile(t, "cancelled.gz", codes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := loader.Load(ctx, filePath)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, set)
}

func TestFileLoader_Load_EmptyFile(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createTestCouponFile(t, "empty.gz", nil)

	set, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	assert.Equal(t, 0, set.Size())
}
