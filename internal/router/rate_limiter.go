package router

import (
	"sync"
	"time"
)

// RateLimiter bounds how many frames each user may send per minute.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[int64]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing perMinute frames per user.
// A non-positive limit disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		clients:   make(map[int64]*clientWindow),
	}
}

// Allow reports whether userID may send another frame in the current
// minute window.
func (rl *RateLimiter) Allow(userID int64) bool {
	if rl.perMinute <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	window, exists := rl.clients[userID]
	if !exists {
		rl.clients[userID] = &clientWindow{count: 1, windowStart: now}
		return true
	}

	if now.Sub(window.windowStart) >= time.Minute {
		window.count = 1
		window.windowStart = now
		return true
	}

	if window.count >= rl.perMinute {
		return false
	}

	window.count++
	return true
}

// Cleanup removes windows idle for several limit periods. Call
// periodically to keep the map from accumulating departed users.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for userID, window := range rl.clients {
		if now.Sub(window.windowStart) > 5*time.Minute {
			delete(rl.clients, userID)
		}
	}
}
