package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, initial call included.
	MaxAttempts int `yaml:"max_attempts"`
	// InitialWait is the delay after the first failed attempt.
	InitialWait time.Duration `yaml:"initial_wait"`
	// MaxWait caps a single delay. Zero means uncapped.
	MaxWait time.Duration `yaml:"max_wait"`
	// Multiplier grows the delay between attempts.
	Multiplier float64 `yaml:"multiplier"`
	// Jitter spreads each delay by ±Jitter (fraction). Zero disables it.
	Jitter float64 `yaml:"jitter"`
}

// DefaultRetryConfig returns four attempts with a pure 1s, 2s, 4s schedule.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		InitialWait: 1 * time.Second,
		Multiplier:  2.0,
	}
}

// Backoff runs operations with bounded exponential backoff.
type Backoff struct {
	Config RetryConfig

	// Retryable classifies errors. Defaults to IsRetryable.
	Retryable func(error) bool

	log     *logger.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewBackoff creates a Backoff. log and m may be nil.
func NewBackoff(cfg RetryConfig, log *logger.Logger, m *metrics.Metrics) *Backoff {
	if log == nil {
		log = logger.Nop()
	}
	return &Backoff{
		Config:    cfg,
		Retryable: IsRetryable,
		log:       log.With("component", "backoff"),
		metrics:   m,
		sleep:     sleepCtx,
	}
}

// Delay returns the wait after the failed attempt with the given
// zero-based index.
func (b *Backoff) Delay(attempt int) time.Duration {
	mult := b.Config.Multiplier
	if mult <= 0 {
		mult = 2
	}
	wait := float64(b.Config.InitialWait) * math.Pow(mult, float64(attempt))
	if b.Config.MaxWait > 0 && wait > float64(b.Config.MaxWait) {
		wait = float64(b.Config.MaxWait)
	}
	if b.Config.Jitter > 0 {
		wait += wait * b.Config.Jitter * (2*rand.Float64() - 1)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Execute invokes op until it succeeds, fails with a non-retryable error,
// or MaxAttempts is reached. The last error is returned verbatim.
func Execute[T any](ctx context.Context, b *Backoff, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(b.Config.MaxAttempts, 1)
	classify := b.Retryable
	if classify == nil {
		classify = IsRetryable
	}

	for attempt := range attempts {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !classify(err) {
			return zero, err
		}

		// Last attempt: return without sleeping.
		if attempt == attempts-1 {
			break
		}

		wait := b.Delay(attempt)
		purpose := PurposeFrom(ctx)
		b.log.Warn("retrying LLM call",
			"purpose", purpose,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"delay_ms", wait.Milliseconds(),
			"error", err,
		)
		b.metrics.ObserveRetry(purpose)
		trace.SpanFromContext(ctx).AddEvent("llm.retry", trace.WithAttributes(
			attribute.Int("attempt", attempt+1),
			attribute.Int64("delay_ms", wait.Milliseconds()),
		))

		sleep := b.sleep
		if sleep == nil {
			sleep = sleepCtx
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

// IsRetryable reports whether err is a transient provider failure:
// rate limiting (429), overload (503), truncation at MAX_TOKENS, a network
// error, or an error whose message mentions one of those conditions.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var blocked *ErrContentBlocked
	if errors.As(err, &blocked) {
		return false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) && unavail.Overloaded() {
		return true
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return transientMessage(err.Error())
}

func transientMessage(msg string) bool {
	if strings.Contains(msg, "MAX_TOKENS") {
		return true
	}
	lower := strings.ToLower(msg)
	for _, s := range []string{"overloaded", "timeout", "network"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryProvider is a decorator that retries transient errors through a
// shared Backoff.
type RetryProvider struct {
	inner   Provider
	backoff *Backoff
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, b *Backoff) Provider {
	return &RetryProvider{inner: p, backoff: b}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return Execute(ctx, r.backoff, func(ctx context.Context) (*Response, error) {
		return r.inner.Generate(ctx, req)
	})
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}
