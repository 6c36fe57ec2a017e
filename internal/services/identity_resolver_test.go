package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowilleq/exterra/internal/database/dbtest"
	"github.com/lowilleq/exterra/internal/models"
	"github.com/lowilleq/exterra/internal/repository"
)

type countingStore struct {
	CustomerStore
	inserts atomic.Int32
	touches atomic.Int32
}

func (s *countingStore) Insert(ctx context.Context, c *models.Customer) (repository.InsertResult, error) {
	s.inserts.Add(1)
	return s.CustomerStore.Insert(ctx, c)
}

func (s *countingStore) TouchLastSeen(ctx context.Context, email string, at time.Time) error {
	s.touches.Add(1)
	return s.CustomerStore.TouchLastSeen(ctx, email, at)
}

type failingStore struct{ err error }

func (s failingStore) Insert(context.Context, *models.Customer) (repository.InsertResult, error) {
	return repository.InsertResult{}, s.err
}

func (s failingStore) TouchLastSeen(context.Context, string, time.Time) error { return s.err }

type conflictThenFailStore struct{ err error }

func (s conflictThenFailStore) Insert(context.Context, *models.Customer) (repository.InsertResult, error) {
	return repository.InsertResult{Outcome: repository.OutcomeConflict}, nil
}

func (s conflictThenFailStore) TouchLastSeen(context.Context, string, time.Time) error { return s.err }

type recordingNotifier struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func (n *recordingNotifier) NotifyNewCustomer(c models.Customer) error {
	n.mu.Lock()
	n.seen = append(n.seen, c.Email)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func TestRegisterTwiceKeepsFirstNamesAndTouchesLastSeen(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	customers := repository.NewCustomerRepository(dbtest.Open(t))
	resolver := NewIdentityResolver(customers, 7*24*time.Hour, WithClock(clock.Now))

	_, err := resolver.Register(ctx, NewMemoryIdentityCache(clock.Now), "e@example.com", "Eva", "Smit")
	require.NoError(t, err)

	clock.Advance(3 * time.Hour)
	second, err := resolver.Register(ctx, NewMemoryIdentityCache(clock.Now), "e@example.com", "Eve", "Smith")
	require.NoError(t, err)
	assert.Equal(t, "Eve", second.FirstName, "submitted names are returned for the session")

	total, err := customers.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	stored, err := customers.Get(ctx, "e@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Eva", stored.FirstName)
	assert.Equal(t, "Smit", stored.LastName)
	assert.True(t, stored.LastSeenAt.Equal(clock.Now()), "last seen %v", stored.LastSeenAt)
}

func TestResolveUsesCacheOnly(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := failingStore{err: errors.New("store must not be called")}
	counted := &countingStore{CustomerStore: store}
	resolver := NewIdentityResolver(counted, time.Hour, WithClock(clock.Now))

	cache := NewMemoryIdentityCache(clock.Now)
	require.NoError(t, cache.Set(ctx, IdentityKeyEmail, "a@example.com", time.Hour))
	require.NoError(t, cache.Set(ctx, IdentityKeyFirstName, "Ana", time.Hour))
	require.NoError(t, cache.Set(ctx, IdentityKeyLastName, "Ng", time.Hour))

	identity, err := resolver.Resolve(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{Email: "a@example.com", FirstName: "Ana", LastName: "Ng"}, identity)
	assert.Zero(t, counted.inserts.Load())
	assert.Zero(t, counted.touches.Load())
}

func TestResolveNeedsRegistration(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	resolver := NewIdentityResolver(failingStore{}, time.Hour, WithClock(clock.Now))

	t.Run("empty cache", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, NewMemoryIdentityCache(clock.Now))
		assert.ErrorIs(t, err, ErrNeedsRegistration)
	})

	t.Run("missing last name", func(t *testing.T) {
		cache := NewMemoryIdentityCache(clock.Now)
		require.NoError(t, cache.Set(ctx, IdentityKeyEmail, "a@example.com", time.Hour))
		require.NoError(t, cache.Set(ctx, IdentityKeyFirstName, "Ana", time.Hour))
		_, err := resolver.Resolve(ctx, cache)
		assert.ErrorIs(t, err, ErrNeedsRegistration)
	})

	t.Run("expired entry", func(t *testing.T) {
		cache := NewMemoryIdentityCache(clock.Now)
		require.NoError(t, cache.Set(ctx, IdentityKeyEmail, "a@example.com", time.Minute))
		require.NoError(t, cache.Set(ctx, IdentityKeyFirstName, "Ana", time.Hour))
		require.NoError(t, cache.Set(ctx, IdentityKeyLastName, "Ng", time.Hour))
		clock.Advance(time.Minute)
		_, err := resolver.Resolve(ctx, cache)
		assert.ErrorIs(t, err, ErrNeedsRegistration)
	})
}

func TestRegisterNewVisitorWritesStoreAndCache(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	customers := repository.NewCustomerRepository(dbtest.Open(t))
	notifier := &recordingNotifier{done: make(chan struct{}, 1)}
	resolver := NewIdentityResolver(customers, 7*24*time.Hour, WithClock(clock.Now), WithCustomerNotifier(notifier))
	cache := NewMemoryIdentityCache(clock.Now)

	identity, err := resolver.Register(ctx, cache, "  a@example.com ", " Ana", "Ng ")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{Email: "a@example.com", FirstName: "Ana", LastName: "Ng"}, identity)

	stored, err := customers.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", stored.FirstName)
	assert.Equal(t, "Ng", stored.LastName)

	resolved, err := resolver.Resolve(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, identity, resolved)

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("new customer notification not sent")
	}
	notifier.mu.Lock()
	assert.Equal(t, []string{"a@example.com"}, notifier.seen)
	notifier.mu.Unlock()

	clock.Advance(7*24*time.Hour - time.Second)
	_, err = resolver.Resolve(ctx, cache)
	assert.NoError(t, err)
	clock.Advance(time.Second)
	_, err = resolver.Resolve(ctx, cache)
	assert.ErrorIs(t, err, ErrNeedsRegistration)
}

func TestRegisterValidation(t *testing.T) {
	counted := &countingStore{CustomerStore: failingStore{err: errors.New("unreachable")}}
	resolver := NewIdentityResolver(counted, time.Hour)
	cache := NewMemoryIdentityCache(nil)

	_, err := resolver.Register(context.Background(), cache, " ", "Ana", "\t")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email", "last_name"}, verr.Fields)
	assert.Zero(t, counted.inserts.Load())

	_, ok, _ := cache.Get(context.Background(), IdentityKeyEmail)
	assert.False(t, ok)
}

func TestRegisterStoreFailureLeavesCacheEmpty(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	for name, store := range map[string]CustomerStore{
		"insert fails": failingStore{err: down},
		"touch fails":  conflictThenFailStore{err: down},
	} {
		t.Run(name, func(t *testing.T) {
			resolver := NewIdentityResolver(store, time.Hour)
			cache := NewMemoryIdentityCache(nil)

			_, err := resolver.Register(ctx, cache, "a@example.com", "Ana", "Ng")
			assert.ErrorIs(t, err, ErrStoreUnavailable)

			for _, key := range IdentityKeys {
				_, ok, err := cache.Get(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok, key)
			}
		})
	}
}

func TestRegisterRacingDevicesLeavesOneRow(t *testing.T) {
	ctx := context.Background()
	customers := repository.NewCustomerRepository(dbtest.Open(t))
	counted := &countingStore{CustomerStore: customers}
	resolver := NewIdentityResolver(counted, time.Hour)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = resolver.Register(ctx, NewMemoryIdentityCache(nil), "b@example.com", "Bo", "Li")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	total, err := customers.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 2, counted.inserts.Load())
	assert.EqualValues(t, 1, counted.touches.Load())
}

func TestForgetClearsIdentity(t *testing.T) {
	ctx := context.Background()
	resolver := NewIdentityResolver(repository.NewCustomerRepository(dbtest.Open(t)), time.Hour)
	cache := NewMemoryIdentityCache(nil)

	_, err := resolver.Register(ctx, cache, "c@example.com", "Cas", "Vos")
	require.NoError(t, err)
	require.NoError(t, resolver.Forget(ctx, cache))

	_, err = resolver.Resolve(ctx, cache)
	assert.ErrorIs(t, err, ErrNeedsRegistration)
}
