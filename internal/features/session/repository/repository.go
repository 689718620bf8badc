package repository

import (
	"context"
	"errors"
	"time"
)

var ErrLocked = errors.New("lock is held")

// Store keeps live session values by id.
type Store[T any] interface {
	Put(id string, v T)
	Get(id string) (T, bool)
	// Hold keeps the entry alive until release is called.
	Hold(id string) (v T, release func(), ok bool)
	Delete(id string)
	Len() int
}

// Locker guards a key for at most ttl. TryLock returns ErrLocked when another
// holder owns the key; unlock releases only the caller's own hold.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, err error)
}
