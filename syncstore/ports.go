package syncstore

import "context"

// Local is the anonymous-scope backing store of a collection
type Local[T any] interface {
	// Load returns the persisted items. Corrupt entries are skipped, never reported as errors.
	Load() ([]T, error)
	Save(items []T) error
	Clear() error
}

// Remote is the server-side backing store of a collection
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) error
}
