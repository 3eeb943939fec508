package email

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled limits the send rate of the wrapped Sender with a token bucket.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottled wraps next so that at most perSecond sends start each
// second, with bursts up to burst. A burst below one is treated as one.
func NewThrottled(next Sender, perSecond float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Send waits for a token, then delegates. It fails without sending when
// ctx ends first.
func (t *Throttled) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email rate limit wait: %w", err)
	}
	return t.next.Send(ctx, to, subject, htmlBody)
}
