package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// fileLoader reads gzipped reserved code files from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a Loader for local files.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "file-reserved-loader").Logger(),
	}
}

// Load reads one code per line from the gzipped file at filePath.
func (l *fileLoader) Load(ctx context.Context, filePath string) (CouponSet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open reserved code file")
		return nil, fmt.Errorf("failed to open reserved code file %s: %w", filePath, err)
	}
	defer file.Close()

	set, err := readGzipCodes(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read reserved code file")
		return nil, fmt.Errorf("failed to read reserved code file %s: %w", filePath, err)
	}

	l.logger.Info().Str("file", filePath).Int("codes", set.Size()).Msg("reserved codes loaded from file")

	return set, nil
}

// readGzipCodes decompresses r and collects one upper-cased code per non-empty line.
func readGzipCodes(ctx context.Context, r io.Reader) (CouponSet, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	set := NewMapCouponSet(1024).(*mapCouponSet)

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		if lineCount%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lineCount++

		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if line != "" {
			set.Add(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan codes: %w", err)
	}

	return set, nil
}
