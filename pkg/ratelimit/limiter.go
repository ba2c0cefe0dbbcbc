package ratelimit

import (
	"sync"
	"time"
)

// clientWindow tracks a single client's request count within its current window.
type clientWindow struct {
	count       int
	windowStart time.Time
}

// Limiter is an in-memory fixed-window rate limiter keyed by client id.
// The window fully resets on the first request after expiry. State is
// per-process only; it is not shared across instances.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]clientWindow
	maxRequests  int
	window       time.Duration
	timeProvider func() time.Time
}

type Opts struct {
	TimeProvider func() time.Time
}

func NewLimiter(maxRequests int, window time.Duration, opts *Opts) *Limiter {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}

	return &Limiter{
		clients:      make(map[string]clientWindow),
		maxRequests:  maxRequests,
		window:       window,
		timeProvider: timeProvider,
	}
}

func (l *Limiter) MaxRequests() int {
	return l.maxRequests
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow reports whether a request from clientID is admitted and how many
// requests remain in its current window. A denied request never mutates the
// client's counter, so repeated calls while blocked keep returning (false, 0)
// until the window elapses.
func (l *Limiter) Allow(clientID string) (bool, int) {
	now := l.timeProvider()

	l.mu.Lock()
	defer l.mu.Unlock()

	cw, ok := l.clients[clientID]
	if !ok {
		cw = clientWindow{count: 0, windowStart: now}
	}

	if now.Sub(cw.windowStart) >= l.window {
		l.clients[clientID] = clientWindow{count: 1, windowStart: now}
		return true, l.maxRequests - 1
	}

	if cw.count >= l.maxRequests {
		return false, 0
	}

	cw.count++
	l.clients[clientID] = cw
	return true, l.maxRequests - cw.count
}

// Sweep removes every entry whose window started at least two full windows
// ago, measured on the same clock Allow uses. A swept client simply starts
// counting from zero on its next request.
func (l *Limiter) Sweep() {
	now := l.timeProvider()

	l.mu.Lock()
	defer l.mu.Unlock()

	for clientID, cw := range l.clients {
		if now.Sub(cw.windowStart) >= 2*l.window {
			delete(l.clients, clientID)
		}
	}
}

// Size returns the number of tracked clients.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
