// Package cooldown suppresses repeat signals for an opportunity that was
// already handed to execution and may still be settling.
package cooldown

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemorySize = 1024

// Store marks keys as open for a TTL.
type Store interface {
	// Acquire returns true when key was not open and is now marked.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Key builds the dedup key for a pool pair and direction.
func Key(referencePool, hookPool, direction string) string {
	return strings.ToLower(fmt.Sprintf("%s:%s:%s", referencePool, hookPool, direction))
}

// Memory keeps open markers in process, each with its own deadline. The LRU
// bounds memory when many keys are opened and never released.
type Memory struct {
	mu        sync.Mutex
	deadlines *lru.Cache[string, time.Time]
	now       func() time.Time
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = defaultMemorySize
	}
	// lru.New only fails for a non-positive size
	deadlines, _ := lru.New[string, time.Time](size)
	return &Memory{deadlines: deadlines, now: time.Now}
}

// Acquire opens key for ttl. A non-positive ttl opens it until Release.
func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if deadline, ok := m.deadlines.Get(key); ok && (deadline.IsZero() || now.Before(deadline)) {
		return false, nil
	}
	var deadline time.Time
	if ttl > 0 {
		deadline = now.Add(ttl)
	}
	m.deadlines.Add(key, deadline)
	return true, nil
}

func (m *Memory) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadlines.Remove(key)
	return nil
}
