package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryProvider retries transient failures with capped exponential backoff.
type RetryProvider struct {
	inner  Provider
	policy retryPolicy
	logger *zap.Logger
}

// WithRetry wraps p. A config with fewer than one attempt still calls p once.
func WithRetry(p Provider, cfg RetryConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{
		inner:  p,
		policy: retryPolicy{cfg: cfg, jitter: rand.Float64},
		logger: logger,
	}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	state := retryState{}
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		wait, again := r.policy.next(attempt, err, &state)
		if !again {
			return nil, err
		}
		r.logger.Debug("retrying llm request",
			zap.String("purpose", PurposeFrom(ctx)),
			zap.String("session", SessionFrom(ctx)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryState carries what the policy has seen across attempts of one call.
type retryState struct {
	invalidSeen bool
}

type retryPolicy struct {
	cfg    RetryConfig
	jitter func() float64 // uniform in [0, 1)
}

// next decides whether attempt (1-based) should be followed by another,
// and after how long. Malformed structured output gets one more try;
// anything else must be transient.
func (p retryPolicy) next(attempt int, err error, st *retryState) (time.Duration, bool) {
	if attempt >= p.cfg.MaxAttempts {
		return 0, false
	}

	var invalid *ErrInvalidResponse
	switch {
	case errors.As(err, &invalid):
		if st.invalidSeen {
			return 0, false
		}
		st.invalidSeen = true
	case !IsTransient(err):
		return 0, false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return p.backoff(attempt), true
}

// backoff is InitialWait * Multiplier^(attempt-1), capped at MaxWait, with
// ±20% jitter.
func (p retryPolicy) backoff(attempt int) time.Duration {
	base := float64(p.cfg.InitialWait) * math.Pow(p.cfg.Multiplier, float64(attempt-1))
	base = math.Min(base, float64(p.cfg.MaxWait))
	wait := base * (1 + 0.2*(2*p.jitter()-1))
	return time.Duration(math.Max(wait, 0))
}
