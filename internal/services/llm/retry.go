package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

type backoff struct {
	attempts int
	first    time.Duration
	ceiling  time.Duration
	sleep    func(time.Duration)
}

func defaultBackoff() backoff {
	return backoff{attempts: 3, first: time.Second, ceiling: 10 * time.Second}
}

func (b backoff) maxAttempts() int {
	if b.attempts < 1 {
		return 1
	}
	return b.attempts
}

// delay doubles from first for each completed attempt, capped at the ceiling.
func (b backoff) delay(attempt int) time.Duration {
	if b.first <= 0 {
		return 0
	}
	d := b.first
	for i := 1; i < attempt && d < b.limit(); i++ {
		d *= 2
	}
	return b.clamp(d)
}

func (b backoff) limit() time.Duration {
	if b.ceiling > 0 {
		return b.ceiling
	}
	return 10 * time.Second
}

func (b backoff) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return min(d, b.limit())
}

func (b backoff) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	if b.sleep != nil {
		b.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable classifies err. The returned duration is a server-provided hint
// and is zero when the regular backoff applies.
func retryable(ctx context.Context, err error) (time.Duration, bool) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return 0, true
	}
	var status *httpStatusError
	if errors.As(err, &status) {
		switch {
		case status.StatusCode == http.StatusRequestTimeout,
			status.StatusCode == http.StatusTooManyRequests,
			status.StatusCode >= http.StatusInternalServerError:
			return status.RetryAfter, true
		}
		return 0, false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 0, true
	}
	return 0, false
}
