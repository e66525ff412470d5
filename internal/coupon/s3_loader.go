package coupon

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the subset of the S3 client used to fetch reserved code files.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader reads gzipped reserved code files from a bucket.
type s3Loader struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a Loader backed by an S3 client using the default AWS
// credential chain for region.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 reserved code loader initialised")

	return NewS3LoaderWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3LoaderWithClient creates a Loader reading from bucket through client.
func NewS3LoaderWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "s3-reserved-loader").Str("bucket", bucket).Logger(),
	}
}

// Load fetches the object stored under key and parses it as a reserved code file.
func (l *s3Loader) Load(ctx context.Context, key string) (CouponSet, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("failed to fetch reserved code object")
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	set, err := readGzipCodes(ctx, out.Body)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("failed to read reserved code object")
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", l.bucket, key, err)
	}

	l.logger.Info().Str("key", key).Int("codes", set.Size()).Msg("reserved codes loaded from S3")
	return set, nil
}

// fallbackLoader prefers S3 and reads the local copy when S3 is off or fails.
type fallbackLoader struct {
	remote Loader
	local  Loader
	prefix string
	logger zerolog.Logger
}

// NewFallbackLoader returns a Loader that looks up each file in S3 under
// prefix joined with the file's base name, and falls back to the local path.
// With S3 disabled or s3Loader nil only fileLoader is used.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	if !s3Enabled {
		s3Loader = nil
	}
	return &fallbackLoader{
		remote: s3Loader,
		local:  fileLoader,
		prefix: s3Prefix,
		logger: logger.With().Str("component", "fallback-loader").Logger(),
	}
}

// Load implements Loader.
func (l *fallbackLoader) Load(ctx context.Context, filePath string) (CouponSet, error) {
	if l.remote == nil {
		return l.local.Load(ctx, filePath)
	}

	key := path.Join(l.prefix, path.Base(filePath))
	set, err := l.remote.Load(ctx, key)
	if err == nil {
		return set, nil
	}

	l.logger.Warn().
		Err(err).
		Str("s3_key", key).
		Str("file", filePath).
		Msg("S3 load failed, reading local file")

	return l.local.Load(ctx, filePath)
}
