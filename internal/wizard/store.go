package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store хранит незавершённые сессии мастера.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Update атомарно читает сессию, применяет fn и сохраняет результат.
	// Если fn вернула ошибку, сессия не сохраняется.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return m.put(s)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return s, err
	}
	if err := m.put(s); err != nil {
		return nil, err
	}
	return s, nil
}

// копия через JSON, чтобы поведение совпадало с RedisStore
func (m *MemoryStore) put(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) get(id string) (*Session, error) {
	e, ok := m.sessions[id]
	if !ok || m.now().After(e.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) sweep() {
	now := m.now()
	for id, e := range m.sessions {
		if now.After(e.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	prefix  string
	retries int
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "wizard:session:", retries: 5}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.rdb.SetNX(ctx, r.key(s.ID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("wizard session %s already exists", s.ID)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	return r.load(ctx, r.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, id string) (*Session, error) {
	data, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode wizard session: %w", err)
	}
	return &s, nil
}

// Update использует оптимистичную транзакцию WATCH/MULTI: два параллельных submit
// не смогут оба выставить Submitting.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := r.key(id)

	for attempt := 0; attempt < r.retries; attempt++ {
		var (
			result *Session
			fnErr  error
		)
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			s, err := r.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if fnErr = fn(s); fnErr != nil {
				result = s
				return nil
			}
			data, err := json.Marshal(s)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, r.ttl)
				return nil
			})
			result = s
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, fnErr
	}
	return nil, fmt.Errorf("wizard session %s: too much contention", id)
}
