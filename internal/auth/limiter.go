package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts login attempts per key (client IP) inside a fixed
// window. Callers Reserve an attempt before checking the password.
type LoginLimiter interface {
	// Reserve records one attempt and returns how long key must wait when
	// the window is already used up; zero means the attempt may proceed.
	Reserve(ctx context.Context, key string) (time.Duration, error)
	// Reset forgets the attempts of key after a successful login.
	Reset(ctx context.Context, key string) error
}

type attempts struct {
	count int
	first time.Time
}

// MemoryLimiter keeps at most maxKeys entries. Expired windows are swept
// periodically and on demand; when full, the oldest window is evicted.
type MemoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]*attempts
	maxAttempts int
	window      time.Duration
	maxKeys     int
	now         func() time.Time
}

func NewMemoryLimiter(maxAttempts int, window time.Duration, maxKeys int) *MemoryLimiter {
	if maxKeys < 1 {
		maxKeys = 1
	}
	return &MemoryLimiter{
		entries:     make(map[string]*attempts),
		maxAttempts: maxAttempts,
		window:      window,
		maxKeys:     maxKeys,
		now:         time.Now,
	}
}

func (l *MemoryLimiter) Reserve(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if a, ok := l.entries[key]; ok {
		elapsed := now.Sub(a.first)
		if elapsed < l.window {
			if a.count >= l.maxAttempts {
				return l.window - elapsed, nil
			}
			a.count++
			return 0, nil
		}
		delete(l.entries, key)
	}

	if len(l.entries) >= l.maxKeys {
		l.sweepLocked(now)
		if len(l.entries) >= l.maxKeys {
			l.evictOldestLocked()
		}
	}
	l.entries[key] = &attempts{count: 1, first: now}
	return 0, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

// Sweep drops every expired window and returns how many remain.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now())
	return len(l.entries)
}

// Run sweeps every interval until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for k, a := range l.entries {
		if now.Sub(a.first) >= l.window {
			delete(l.entries, k)
		}
	}
}

func (l *MemoryLimiter) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, a := range l.entries {
		if oldestKey == "" || a.first.Before(oldest) {
			oldestKey, oldest = k, a.first
		}
	}
	delete(l.entries, oldestKey)
}

// RedisLimiter shares counters across instances. The first attempt sets the
// key's TTL to the window so Redis does the expiry.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	maxAttempts int
	window      time.Duration
}

func NewRedisLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		prefix:      "login:attempts:",
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Reserve increments the counter and reads its TTL in one transaction. The
// first attempt starts the window; later ones never extend it.
func (l *RedisLimiter) Reserve(ctx context.Context, key string) (time.Duration, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, l.prefix+key)
	pipe.ExpireNX(ctx, l.prefix+key, l.window)
	ttl := pipe.TTL(ctx, l.prefix+key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("reserve login attempt: %w", err)
	}
	if incr.Val() <= int64(l.maxAttempts) {
		return 0, nil
	}
	if wait := ttl.Val(); wait > 0 {
		return wait, nil
	}
	return l.window, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
