package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	f := contactForm(t)

	s := f.NewSession("es")
	require.NoError(t, store.Create(ctx, s))

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	updated, err := store.Update(ctx, s.ID, func(s *Session) error { return f.Next(s, "Ada") })
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Step)

	// при ошибке fn изменения не сохраняются
	_, err = store.Update(ctx, s.ID, func(s *Session) error {
		s.Step = 3
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Step)
	assert.Equal(t, "Ada", got.Answers["name"])
	assert.Equal(t, "es", got.Locale)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	s := contactForm(t).NewSession("")
	require.NoError(t, store.Create(context.Background(), s))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore(t *testing.T) {
	client, _ := setupTestRedis(t)
	storeContract(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)

	s := contactForm(t).NewSession("")
	require.NoError(t, store.Create(context.Background(), s))
	assert.Error(t, store.Create(context.Background(), s), "ids are never overwritten")

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_ConcurrentSubmitOnlyOneWins(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()
	f := contactForm(t)

	s := f.NewSession("")
	s.Step = len(f.Questions) - 1
	s.Answers = map[string]any{"name": "Ada", "email": "ada@example.com"}
	require.NoError(t, store.Create(ctx, s))

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, s.ID, func(s *Session) error {
				return f.BeginSubmit(s, "Please build us a landing page")
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Submitting)
}
