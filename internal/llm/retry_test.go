package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// recordingBackoff returns a Backoff whose sleeps are recorded instead of
// slept.
func recordingBackoff(attempts int) (*Backoff, *[]time.Duration) {
	var slept []time.Duration
	b := NewBackoff(RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		Multiplier:  2,
	}, nil, nil)
	b.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return b, &slept
}

func TestExecute_SucceedsOnFirstAttempt(t *testing.T) {
	b, slept := recordingBackoff(4)
	calls := 0

	v, err := Execute(context.Background(), b, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" || calls != 1 {
		t.Fatalf("got %q after %d calls", v, calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", *slept)
	}
}

func TestExecute_RetryableThenSuccess(t *testing.T) {
	for k := 1; k < 4; k++ {
		t.Run(fmt.Sprintf("%d failures", k), func(t *testing.T) {
			b, slept := recordingBackoff(4)
			calls := 0

			v, err := Execute(context.Background(), b, func(context.Context) (int, error) {
				calls++
				if calls <= k {
					return 0, &ErrRateLimit{Err: errors.New("429")}
				}
				return 42, nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != 42 {
				t.Fatalf("expected 42, got %d", v)
			}
			if calls != k+1 {
				t.Fatalf("expected %d calls, got %d", k+1, calls)
			}

			var total, want time.Duration
			for i, d := range *slept {
				total += d
				want += time.Millisecond << i
			}
			if len(*slept) != k {
				t.Fatalf("expected %d sleeps, got %d", k, len(*slept))
			}
			if total != want {
				t.Fatalf("total sleep = %v, want %v", total, want)
			}
		})
	}
}

func TestExecute_NonRetryableReturnsImmediately(t *testing.T) {
	b, slept := recordingBackoff(4)
	calls := 0
	boom := errors.New("invalid argument")

	_, err := Execute(context.Background(), b, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", *slept)
	}
}

func TestExecute_ExhaustionReturnsLastError(t *testing.T) {
	b, slept := recordingBackoff(4)
	calls := 0

	_, err := Execute(context.Background(), b, func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("model overloaded (attempt %d)", calls)
	})
	if err == nil || err.Error() != "model overloaded (attempt 4)" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *slept)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestExecute_ContentBlockedNotRetried(t *testing.T) {
	b, _ := recordingBackoff(4)
	calls := 0

	_, err := Execute(context.Background(), b, func(context.Context) (int, error) {
		calls++
		return 0, &ErrContentBlocked{Reason: "SAFETY"}
	})
	var blocked *ErrContentBlocked
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ErrContentBlocked, got %T", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecute_ContextCancelledDuringSleep(t *testing.T) {
	b := NewBackoff(RetryConfig{MaxAttempts: 4, InitialWait: time.Hour, Multiplier: 2}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Execute(ctx, b, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, &ErrRateLimit{Err: errors.New("429")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecute_CustomPredicate(t *testing.T) {
	b, _ := recordingBackoff(3)
	b.Retryable = func(error) bool { return true }
	calls := 0

	_, _ = Execute(context.Background(), b, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("anything")
	})
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	b := NewBackoff(RetryConfig{InitialWait: time.Second, Multiplier: 2}, nil, nil)
	for i, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second} {
		if got := b.Delay(i); got != want {
			t.Fatalf("Delay(%d) = %v, want %v", i, got, want)
		}
	}

	b.Config.MaxWait = 3 * time.Second
	if got := b.Delay(5); got != 3*time.Second {
		t.Fatalf("capped Delay = %v, want 3s", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &ErrRateLimit{Err: errors.New("429")}, true},
		{"503", &ErrProviderUnavailable{Status: 503, Err: errors.New("unavailable")}, true},
		{"500", &ErrProviderUnavailable{Status: 500, Err: errors.New("internal")}, false},
		{"max tokens", &ErrMaxTokensExceeded{}, true},
		{"wrapped max tokens", fmt.Errorf("lesson: %w", &ErrMaxTokensExceeded{}), true},
		{"overloaded message", errors.New("The model is Overloaded"), true},
		{"timeout message", errors.New("request timeout"), true},
		{"network message", errors.New("Network unreachable"), true},
		{"MAX_TOKENS message", errors.New("finish reason MAX_TOKENS"), true},
		{"blocked", &ErrContentBlocked{Reason: "SAFETY"}, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("bad request"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryProvider_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Status: 503, Err: errors.New("down")}},
		MockResponse{Text: "hello"},
	)
	b, slept := recordingBackoff(4)
	p := WithRetry(mock, b)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if mock.CallCount() != 2 || len(*slept) != 1 {
		t.Fatalf("expected 2 calls and 1 sleep, got %d and %d", mock.CallCount(), len(*slept))
	}
}

func TestRetryProvider_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), NewBackoff(DefaultRetryConfig(), nil, nil))
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
