package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickRetry(tries uint) RetryConfig {
	return RetryConfig{MaxTries: tries, InitialInterval: time.Millisecond, MaxElapsed: time.Second}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), quickRetry(4), func() (string, error) {
		calls++
		if calls < 3 {
			return "", Transient(errors.New("flaky upstream"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestDo_PermanentErrorAbortsImmediately(t *testing.T) {
	terminal := errors.New("invalid api key")
	calls := 0
	_, err := Do(context.Background(), quickRetry(5), func() (int, error) {
		calls++
		return 0, terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("got %v, want terminal error", err)
	}
	if calls != 1 {
		t.Fatalf("terminal error retried %d times", calls)
	}
}

func TestDo_ExhaustsMaxTries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), quickRetry(3), func() (int, error) {
		calls++
		return 0, Transient(errors.New("still down"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestIsTransient(t *testing.T) {
	base := errors.New("boom")
	if IsTransient(base) {
		t.Fatal("unwrapped error reported transient")
	}
	if !IsTransient(Transient(base)) {
		t.Fatal("wrapped error not reported transient")
	}
	// Wrapping survives further annotation up the call chain.
	annotated := errors.Join(errors.New("search failed"), Transient(base))
	if !IsTransient(annotated) {
		t.Fatal("annotation hid the transient marker")
	}
	if Transient(nil) != nil {
		t.Fatal("Transient(nil) must be nil")
	}
}
