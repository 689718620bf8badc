package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository"
)

type hold struct {
	token   string
	expires time.Time
}

// Locker is a single-process Locker.
type Locker struct {
	mu    sync.Mutex
	holds map[string]hold
	now   func() time.Time
}

func NewLocker() *Locker {
	return &Locker{holds: make(map[string]hold), now: time.Now}
}

func (l *Locker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.holds[key]; ok && now.Before(h.expires) {
		return nil, repository.ErrLocked
	}

	token := uuid.NewString()
	l.holds[key] = hold{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.holds[key]; ok && h.token == token {
			delete(l.holds, key)
		}
		return nil
	}, nil
}
