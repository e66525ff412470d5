package cache

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Encode serializes v for storage in a Store.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return data, nil
}

// Decode parses a value previously produced by Encode into v.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}
