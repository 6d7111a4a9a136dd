package tasks

import (
	"sync"
	"time"
)

// failureThrottle spaces out notifications for consecutive failures. After n
// failures the next notification waits cooldownForFailCount(n); a success
// resets the count.
type failureThrottle struct {
	mu            sync.Mutex
	failCount     int
	cooldownUntil time.Time
}

// cooldownForFailCount returns min(max, base * 2^(failCount-1)).
func cooldownForFailCount(base, max time.Duration, failCount int) time.Duration {
	if failCount < 1 {
		return 0
	}
	d := base
	for i := 1; i < failCount; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// failure records a failure at now and reports whether it should be notified.
func (t *failureThrottle) failure(now time.Time, base, max time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failCount++
	if now.Before(t.cooldownUntil) {
		return false
	}
	t.cooldownUntil = now.Add(cooldownForFailCount(base, max, t.failCount))
	return true
}

// success resets the throttle and returns the number of failures it ended.
func (t *failureThrottle) success() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.failCount
	t.failCount = 0
	t.cooldownUntil = time.Time{}
	return n
}
