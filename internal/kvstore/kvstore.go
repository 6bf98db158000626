// Package kvstore defines the key-value persistence port used by the
// repositories. The full state behind each key is written and read as a
// single serialized value; backends only provide durable get/set semantics.
package kvstore

import (
	"context"
	"fmt"
)

// Store is the persistence collaborator. Get reports absence through ok
// rather than an error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// PersistenceError wraps a backend failure. Repositories surface these
// unmodified to callers; unlike validation failures they indicate the
// infrastructure itself is unhealthy.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("kvstore %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
