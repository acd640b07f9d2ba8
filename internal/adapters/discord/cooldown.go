package discord

import (
	"sync"
	"time"
)

// userLimiter throttles how often a single user can run commands.
// Evidence DMs bypass it; only prefix commands are gated.
type userLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
}

func newUserLimiter(win time.Duration) *userLimiter {
	return &userLimiter{next: make(map[string]time.Time), win: win}
}

// Allow reports whether the user may run a command now, and if so,
// starts their next cooldown window.
func (l *userLimiter) Allow(userID string) bool {
	if l.win <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if t, ok := l.next[userID]; ok && now.Before(t) {
		return false
	}
	l.next[userID] = now.Add(l.win)
	return true
}
