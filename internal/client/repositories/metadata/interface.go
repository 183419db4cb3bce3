// Package metadata is the durable key/value store of the client. It holds
// the stored bearer credential, the signing secret and the renewal notice
// dismissal record.
package metadata

import (
	"context"
)

// Repository is a string-keyed byte store. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Atomic is implemented by repositories that can apply a group of writes
// all-or-nothing.
type Atomic interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
}
