package procedure

// limiter.go bounds the number of save transactions running at once.
//
// Saves hold a pooled connection for the whole transaction. When every slot
// is taken, new saves wait up to maxWait before failing with ErrTooManySaves.
// WaitForDrain lets shutdown wait for in-flight saves to finish.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManySaves is returned when no save slot frees up within the wait
// time. Clients should retry after a short delay.
var ErrTooManySaves = errors.New("too many concurrent saves")

// DefaultMaxConcurrentSaves is the default limit for parallel save transactions.
const DefaultMaxConcurrentSaves = 5

// DefaultMaxSaveWait is how long a save waits for a slot before rejecting.
const DefaultMaxSaveWait = 10 * time.Second

// SaveLimiter is a weighted semaphore over save transactions.
type SaveLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewSaveLimiter creates a limiter allowing maxConcurrent simultaneous saves.
// Non-positive arguments select the defaults.
func NewSaveLimiter(maxConcurrent int, maxWait time.Duration) *SaveLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSaves
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxSaveWait
	}
	return &SaveLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must call
// Release after a nil return.
func (l *SaveLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManySaves
	}

	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return nil
}

// Release frees a slot taken by Acquire.
func (l *SaveLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	l.sem.Release(1)
}

// ActiveCount returns the number of saves holding a slot.
func (l *SaveLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no save holds a slot or ctx is done.
func (l *SaveLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SaveLimiterStatus is a snapshot of a SaveLimiter.
type SaveLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *SaveLimiter) Status() SaveLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return SaveLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
