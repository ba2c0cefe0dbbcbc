package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/atamsindonesia/aura/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests drive the limiter's notion of time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_AllowDecrementsRemaining(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(5, time.Minute, &ratelimit.Opts{TimeProvider: clock.Now})

	for i := 0; i < 5; i++ {
		allowed, remaining := limiter.Allow("10.0.0.1")
		assert.True(t, allowed)
		assert.Equal(t, 4-i, remaining)
	}

	allowed, remaining := limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestLimiter_DeniedCallsDoNotMutateCount(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(2, time.Minute, &ratelimit.Opts{TimeProvider: clock.Now})

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.1")

	for i := 0; i < 10; i++ {
		allowed, remaining := limiter.Allow("10.0.0.1")
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	}

	// The count did not grow while blocked, so one full window later the
	// client gets a fresh allowance.
	clock.Advance(time.Minute)
	allowed, remaining := limiter.Allow("10.0.0.1")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestLimiter_WindowResetAfterExpiry(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(3, 60*time.Second, &ratelimit.Opts{TimeProvider: clock.Now})

	// Calls at t=0,1,2,3 for one client.
	expected := []struct {
		allowed   bool
		remaining int
	}{
		{true, 2},
		{true, 1},
		{true, 0},
		{false, 0},
	}
	for i, want := range expected {
		allowed, remaining := limiter.Allow("A")
		assert.Equal(t, want.allowed, allowed, "call %d", i)
		assert.Equal(t, want.remaining, remaining, "call %d", i)
		clock.Advance(time.Second)
	}

	// t=61: window fully resets regardless of prior denials.
	clock.Advance(57 * time.Second)
	allowed, remaining := limiter.Allow("A")
	assert.True(t, allowed)
	assert.Equal(t, 2, remaining)
}

func TestLimiter_DistinctClientsAreIndependent(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(1, time.Minute, &ratelimit.Opts{TimeProvider: clock.Now})

	allowed, _ := limiter.Allow("A")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("A")
	assert.False(t, allowed)

	// B is unaffected by A's exhausted window.
	allowed, remaining := limiter.Allow("B")
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestLimiter_ZeroMaxRequestsDeniesEverything(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(0, time.Minute, &ratelimit.Opts{TimeProvider: clock.Now})

	for i := 0; i < 3; i++ {
		allowed, remaining := limiter.Allow("A")
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
		clock.Advance(time.Second)
	}
}

func TestLimiter_ZeroWindowAlwaysAllows(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(2, 0, &ratelimit.Opts{TimeProvider: clock.Now})

	// Every check resets the window, so every request is the first of a
	// fresh window.
	for i := 0; i < 5; i++ {
		allowed, remaining := limiter.Allow("A")
		assert.True(t, allowed)
		assert.Equal(t, 1, remaining)
	}
}

func TestLimiter_SweepRemovesOnlyDoublyStaleEntries(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(5, time.Minute, &ratelimit.Opts{TimeProvider: clock.Now})

	limiter.Allow("stale")
	clock.Advance(90 * time.Second)
	limiter.Allow("fresh")
	limiter.Allow("fresh")

	assert.Equal(t, 2, limiter.Size())

	// "stale" is 2 minutes old, "fresh" only 30 seconds.
	clock.Advance(30 * time.Second)
	limiter.Sweep()
	assert.Equal(t, 1, limiter.Size())

	// Survivor state is untouched: two slots already consumed.
	allowed, remaining := limiter.Allow("fresh")
	assert.True(t, allowed)
	assert.Equal(t, 2, remaining)
}

func TestLimiter_SweptClientStartsOver(t *testing.T) {
	clock := newFakeClock(time.Unix(1740730536, 0))
	limiter := ratelimit.NewLimiter(2, time.Minute, &ratelimit.Opts{TimeProvider: clock.Now})

	limiter.Allow("A")
	limiter.Allow("A")
	clock.Advance(2 * time.Minute)
	limiter.Sweep()
	assert.Equal(t, 0, limiter.Size())

	allowed, remaining := limiter.Allow("A")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestLimiter_ConcurrentAllowNeverOvershoots(t *testing.T) {
	const maxRequests = 50
	const callers = 200

	limiter := ratelimit.NewLimiter(maxRequests, time.Minute, nil)

	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow("burst")
			results <- allowed
		}()
	}
	wg.Wait()
	close(results)

	allowedCount := 0
	for allowed := range results {
		if allowed {
			allowedCount++
		}
	}
	assert.Equal(t, maxRequests, allowedCount)
}

func TestLimiter_ConcurrentSweepIsSafe(t *testing.T) {
	limiter := ratelimit.NewLimiter(100, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				limiter.Allow(string(rune('a' + n)))
			}
		}(i)
		go func() {
			defer wg.Done()
			limiter.Sweep()
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, limiter.Size(), 10)
}
