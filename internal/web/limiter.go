package web

import (
	"context"
	"errors"
	"time"
)

// ErrTooBusy is returned when no validation slot frees up within the wait
// budget.
var ErrTooBusy = errors.New("too many concurrent uploads, try again shortly")

// uploadLimiter bounds how many validation runs execute at once. Validation
// holds the whole file in memory, so the bound is what keeps a burst of large
// uploads from exhausting the process.
type uploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

func newUploadLimiter(maxConcurrent int, maxWait time.Duration) *uploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &uploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire blocks until a slot is free, the wait budget runs out, or the
// request context is cancelled. The caller must release() on success.
func (l *uploadLimiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrTooBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *uploadLimiter) release() {
	<-l.slots
}
