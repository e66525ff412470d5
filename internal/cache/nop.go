package cache

import (
	"context"
	"time"
)

type nopCache struct{}

// NewNopCache returns a Cache that stores nothing. Every Get misses and every
// set is empty.
func NewNopCache() Cache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, string) error                     { return nil }
func (nopCache) Members(context.Context, string) ([]string, error)        { return []string{}, nil }
func (nopCache) Add(context.Context, string, ...string) error             { return nil }
func (nopCache) Card(context.Context, string) (int64, error)              { return 0, nil }
func (nopCache) Replace(context.Context, string, []string) error          { return nil }
func (nopCache) Close() error                                             { return nil }
