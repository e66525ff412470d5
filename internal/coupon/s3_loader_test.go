package coupon

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLoader is a function-backed Loader for tests.
type stubLoader struct {
	loadFunc func(ctx context.Context, filePath string) (CouponSet, error)
}

func (s *stubLoader) Load(ctx context.Context, filePath string) (CouponSet, error) {
	if s.loadFunc != nil {
		return s.loadFunc(ctx, filePath)
	}
	return nil, errors.New("not implemented")
}

func setOf(codes ...string) CouponSet {
	return NewCouponSetFromCodes(codes)
}

// fakeObjectGetter serves gzipped objects from memory.
type fakeObjectGetter struct {
	objects map[string][]byte
	keys    []string
}

func (f *fakeObjectGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Bucket+"/"+*in.Key)
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func gzipLines(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	for _, line := range lines {
		_, err := gw.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestS3Loader_Load(t *testing.T) {
	getter := &fakeObjectGetter{objects: map[string][]byte{
		"reserved/legacy.gz": gzipLines(t, "LEGACY01", " legacy02 ", ""),
		"reserved/broken.gz": []byte("not gzip"),
	}}
	loader := NewS3LoaderWithClient(getter, "codes-bucket", zerolog.Nop())

	t.Run("Reads gzipped codes", func(t *testing.T) {
		set, err := loader.Load(context.Background(), "reserved/legacy.gz")
		require.NoError(t, err)
		assert.Equal(t, 2, set.Size())
		assert.True(t, set.Contains("LEGACY01"))
		assert.True(t, set.Contains("LEGACY02"))
		assert.Contains(t, getter.keys, "codes-bucket/reserved/legacy.gz")
	})

	t.Run("Missing object", func(t *testing.T) {
		set, err := loader.Load(context.Background(), "reserved/missing.gz")
		require.Error(t, err)
		assert.Nil(t, set)
		assert.Contains(t, err.Error(), "s3://codes-bucket/reserved/missing.gz")
	})

	t.Run("Corrupt object", func(t *testing.T) {
		set, err := loader.Load(context.Background(), "reserved/broken.gz")
		require.Error(t, err)
		assert.Nil(t, set)
	})
}

func TestFallbackLoader_UsesBaseNameUnderPrefix(t *testing.T) {
	getter := &fakeObjectGetter{objects: map[string][]byte{
		"reserved/legacy.gz": gzipLines(t, "FROMS3BB"),
	}}
	remote := NewS3LoaderWithClient(getter, "codes-bucket", zerolog.Nop())
	local := &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
		t.Error("file loader should not be called when S3 succeeds")
		return nil, errors.New("unexpected")
	}}

	loader := NewFallbackLoader(remote, local, "reserved", true, zerolog.Nop())

	set, err := loader.Load(context.Background(), "/var/lib/discount-codes/legacy.gz")
	require.NoError(t, err)
	assert.True(t, set.Contains("FROMS3BB"))
}

func TestFallbackLoader(t *testing.T) {
	s3Err := errors.New("S3 connection failed")

	tests := []struct {
		name        string
		s3Enabled   bool
		s3Loader    Loader
		fileLoader  Loader
		expectCode  string
		expectError string
	}{
		{
			name:      "S3 succeeds",
			s3Enabled: true,
			s3Loader: &stubLoader{loadFunc: func(ctx context.Context, key string) (CouponSet, error) {
				assert.Equal(t, "reserved/legacy.gz", key)
				return setOf("FROMS3AA"), nil
			}},
			fileLoader: &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
				t.Error("file loader should not be called when S3 succeeds")
				return nil, errors.New("unexpected")
			}},
			expectCode: "FROMS3AA",
		},
		{
			name:      "S3 fails, local used",
			s3Enabled: true,
			s3Loader: &stubLoader{loadFunc: func(ctx context.Context, key string) (CouponSet, error) {
				return nil, s3Err
			}},
			fileLoader: &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
				assert.Equal(t, "legacy.gz", path, "local path should not carry the S3 prefix")
				return setOf("LOCALAAA"), nil
			}},
			expectCode: "LOCALAAA",
		},
		{
			name:      "S3 disabled",
			s3Enabled: false,
			s3Loader: &stubLoader{loadFunc: func(ctx context.Context, key string) (CouponSet, error) {
				t.Error("S3 loader should not be called when disabled")
				return nil, s3Err
			}},
			fileLoader: &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
				return setOf("LOCALBBB"), nil
			}},
			expectCode: "LOCALBBB",
		},
		{
			name:      "No S3 loader",
			s3Enabled: true,
			s3Loader:  nil,
			fileLoader: &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
				return setOf("LOCALCCC"), nil
			}},
			expectCode: "LOCALCCC",
		},
		{
			name:      "Both fail",
			s3Enabled: true,
			s3Loader: &stubLoader{loadFunc: func(ctx context.Context, key string) (CouponSet, error) {
				return nil, s3Err
			}},
			fileLoader: &stubLoader{loadFunc: func(ctx context.Context, path string) (CouponSet, error) {
				return nil, errors.New("file not found")
			}},
			expectError: "file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewFallbackLoader(tt.s3Loader, tt.fileLoader, "reserved/", tt.s3Enabled, zerolog.Nop())

			set, err := loader.Load(context.Background(), "legacy.gz")

			if tt.expectError != "" {
				require.Error(t, err)
				assert.Nil(t, set)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.True(t, set.Contains(tt.expectCode))
		})
	}
}
