package backoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string   { return e.msg }
func (e *statusErr) HTTPStatus() int { return e.code }

type nestedErr struct{ code int }

func (e nestedErr) Error() string  { return "upstream failure" }
func (e nestedErr) ErrorCode() int { return e.code }

func testPolicy(timer *fakeTimer) Policy {
	p := DefaultPolicy()
	p.Timer = timer
	return p
}

func TestDo_RetryBound(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0

	_, err := Do(context.Background(), testPolicy(timer), "text", func(ctx context.Context) (string, error) {
		attempts++
		return "", &statusErr{code: 503, msg: "service unavailable"}
	})

	if err == nil {
		t.Fatal("Do() error = nil, want final error")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(timer.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", timer.waits, want)
	}
	for i := range want {
		if timer.waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, timer.waits[i], want[i])
		}
	}
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("errors.Is(err, ErrGenerationFailed) = false; err = %v", err)
	}
	var se *statusErr
	if !errors.As(err, &se) {
		t.Error("final error should still unwrap to the original error")
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0

	_, err := Do(context.Background(), testPolicy(timer), "image", func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("content was blocked due to safety settings")
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(timer.waits) != 0 {
		t.Errorf("waits = %v, want none", timer.waits)
	}
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("err = %v, want ErrGenerationFailed", err)
	}
	if !strings.HasPrefix(err.Error(), "image generation failed: ") {
		t.Errorf("err.Error() = %q", err.Error())
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0

	got, err := Do(context.Background(), testPolicy(timer), "text", func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &statusErr{code: 429, msg: "too many requests"}
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Do() = %q, want ok", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(timer.waits) != 2 {
		t.Errorf("waits = %v, want 2 entries", timer.waits)
	}
}

func TestDo_QuotaMessage(t *testing.T) {
	_, err := Do(context.Background(), testPolicy(&fakeTimer{}), "text", func(ctx context.Context) (string, error) {
		return "", &statusErr{code: 429, msg: "RESOURCE_EXHAUSTED: quota"}
	})

	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("errors.Is(err, ErrQuotaExceeded) = false; err = %v", err)
	}
	if errors.Is(err, ErrGenerationFailed) {
		t.Error("quota errors should not match ErrGenerationFailed")
	}
	if !strings.Contains(err.Error(), RateLimitDocsURL) {
		t.Errorf("quota message should link the rate limit docs, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "text generation") {
		t.Errorf("quota message should name the service, got %q", err.Error())
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, testPolicy(&fakeTimer{}), "text", func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	var be *Error
	if errors.As(err, &be) {
		t.Error("cancellation should not be normalized")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status 429", &statusErr{code: 429, msg: "x"}, true},
		{"status 500", &statusErr{code: 500, msg: "x"}, true},
		{"status 599", &statusErr{code: 599, msg: "x"}, true},
		{"status 400", &statusErr{code: 400, msg: "bad request"}, false},
		{"status 404", &statusErr{code: 404, msg: "not found"}, false},
		{"nested 503", nestedErr{code: 503}, true},
		{"nested 401", nestedErr{code: 401}, false},
		{"wrapped nested", fmt.Errorf("call: %w", nestedErr{code: 429}), true},
		{"message resource exhausted", errors.New("RESOURCE_EXHAUSTED"), true},
		{"message rate limit", errors.New("Rate limit reached"), true},
		{"message 502", errors.New("got status 502 from upstream"), true},
		{"message server error", errors.New("internal server error"), true},
		{"message backend error", errors.New("Backend Error"), true},
		{"plain", errors.New("invalid argument"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFinalize(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		first := Finalize("text", errors.New("boom"))
		second := Finalize("image", first)
		if first != second {
			t.Error("Finalize() should return an existing *Error unchanged")
		}
	})

	t.Run("generic", func(t *testing.T) {
		err := Finalize("image", errors.New("boom"))
		if err.Quota {
			t.Error("Quota = true for a generic error")
		}
		if err.Error() != "image generation failed: boom" {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}
