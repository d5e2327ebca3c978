package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
)

// Redis-backed paths need a live server; these tests pin down the disabled
// cache contract the service layer relies on when REDIS_ADDR is unset.

func TestDisabledCache_PassesThrough(t *testing.T) {
	c := New(nil, time.Minute)
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	want := &TopicContent{Videos: []domain.Video{{VideoID: "v1"}}}
	calls := 0
	got, cached, err := c.GetOrCompute(context.Background(), key, func() (*TopicContent, error) {
		calls++
		return want, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if cached {
		t.Fatal("disabled cache reported a hit")
	}
	if got != want || calls != 1 {
		t.Fatalf("got %p after %d calls, want %p once", got, calls, want)
	}

	// Every call recomputes; nothing is stored anywhere.
	if _, ok := c.Get(context.Background(), key); ok {
		t.Fatal("disabled cache returned a value")
	}
}

func TestDisabledCache_PropagatesComputeError(t *testing.T) {
	c := New(nil, time.Minute)
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	boom := errors.New("db down")
	_, _, err := c.GetOrCompute(context.Background(), key, func() (*TopicContent, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want compute error", err)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var c *ContentCache
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	c.Set(context.Background(), key, &TopicContent{})
	c.Invalidate(context.Background(), key)
	if _, ok := c.Get(context.Background(), key); ok {
		t.Fatal("nil cache returned a value")
	}
	if h, m := c.Stats(); h != 0 || m != 0 {
		t.Fatalf("nil cache stats = %d/%d", h, m)
	}
}
