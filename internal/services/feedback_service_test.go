package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/repo"
)

func TestRate(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFeedbackService(db)
	ctx := context.Background()
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	v := mkSvcVideo(key, "fvid")
	if err := repo.UpsertContent(ctx, db, key, []domain.Video{v}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Rate(ctx, v.ID, "u1", 5); !errors.Is(err, ErrInvalidFeedback) {
		t.Fatalf("value 5: got %v, want ErrInvalidFeedback", err)
	}
	if _, err := svc.Rate(ctx, "missing-row", "u1", 1); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("missing video: got %v, want ErrVideoNotFound", err)
	}

	score, err := svc.Rate(ctx, v.ID, "u1", 1)
	if err != nil || score != 1 {
		t.Fatalf("first rating: score=%d err=%v", score, err)
	}
	if _, err := svc.Rate(ctx, v.ID, "u1", -1); !errors.Is(err, ErrDuplicateFeedback) {
		t.Fatalf("re-rating: got %v, want ErrDuplicateFeedback", err)
	}
	score, err = svc.Rate(ctx, v.ID, "u2", -1)
	if err != nil || score != 0 {
		t.Fatalf("second user: score=%d err=%v", score, err)
	}

	got, err := svc.Score(ctx, v.ID)
	if err != nil || got != 0 {
		t.Fatalf("Score: %d, %v", got, err)
	}
	if _, err := svc.Score(ctx, "missing-row"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("Score missing: got %v, want ErrVideoNotFound", err)
	}
}
