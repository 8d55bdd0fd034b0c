// Package ratelimit ограничивает частоту отправки публичных форм.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory: token bucket на ключ, для одного инстанса без Redis.
type Memory struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	maxKeys  int
}

func NewMemory(perMinute, burst int) *Memory {
	if burst < 1 {
		burst = 1
	}
	return &Memory{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		maxKeys:  10000,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[key]
	if !ok {
		if len(m.limiters) >= m.maxKeys {
			m.evictIdle()
		}
		l = rate.NewLimiter(m.limit, m.burst)
		m.limiters[key] = l
	}
	return l.Allow(), nil
}

// evictIdle выкидывает полностью восстановившиеся бакеты: они ничем не
// отличаются от новых. Активные ключи сохраняют свой лимит, так что карта
// может временно перерасти maxKeys, пока бакеты не восстановятся.
func (m *Memory) evictIdle() {
	for k, l := range m.limiters {
		if l.Tokens() >= float64(m.burst) {
			delete(m.limiters, k)
		}
	}
}

// Redis: фиксированное окно через INCR+EXPIRE, общий счётчик для всех инстансов.
type Redis struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(rdb *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	bucket := r.now().UnixNano() / int64(r.window)
	k := fmt.Sprintf("%s%s:%d", r.prefix, key, bucket)

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(r.limit), nil
}
