package agmarknet

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Retrier wraps a Fetcher with a small bounded-retry policy for transient
// failures (rate limiting, timeouts, network errors). It is meant for the
// cache-warming path only; interactive request paths must not retry.
//
// Backoff is a fixed delay between attempts, not exponential.
type Retrier struct {
	F        Fetcher
	Attempts int
	Backoff  time.Duration
	Log      zerolog.Logger
}

func (r *Retrier) FetchPrices(ctx context.Context, q Query) (*Response, Outcome) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 2
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = 4 * time.Second
	}

	var (
		resp *Response
		out  Outcome
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, out = r.F.FetchPrices(ctx, q)
		if out.OK() || !out.Transient() {
			return resp, out
		}
		if attempt == attempts {
			break
		}
		r.Log.Warn().
			Str("commodity", q.Commodity).
			Str("outcome", out.Class.String()).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("transient failure, backing off before retry")
		if err := Sleep(ctx, backoff); err != nil {
			return nil, Outcome{Class: ClassTimeout, Err: err}
		}
	}
	// Exhausted: hand back the last outcome without raising.
	return resp, out
}

// Sleep waits for d or until ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
