//go:build ignore

package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"discount-codes/internal/coupon"
)

// Writes gzipped reserved-code files, one code per line, in the format the
// server reads from RESERVED_FILES or S3.
//
//	go run scripts/generate_reserved_codes.go -files 3 -count 500
func main() {
	dataDir := flag.String("dir", "data/reserved", "output directory")
	files := flag.Int("files", 2, "number of files to write")
	count := flag.Int("count", 1000, "codes per file (at most 2000)")
	length := flag.Int("length", 8, "code length (7 or 8)")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	generator := coupon.NewRandomGenerator()
	var written []string

	for i := 1; i <= *files; i++ {
		codes, err := generator.Generate(*count, *length, coupon.NewCouponSetFromCodes(written))
		if err != nil {
			log.Fatalf("Failed to generate codes: %v", err)
		}
		written = append(written, codes...)

		filePath := filepath.Join(*dataDir, fmt.Sprintf("reserved%d.gz", i))
		if err := createCodeFile(filePath, codes); err != nil {
			log.Fatalf("Failed to create %s: %v", filePath, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(codes))
	}

	fmt.Printf("\n%d reserved codes written to %s\n", len(written), *dataDir)
}

func createCodeFile(filePath string, codes []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, code := range codes {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", code); err != nil {
			return fmt.Errorf("failed to write code: %w", err)
		}
	}

	return nil
}
