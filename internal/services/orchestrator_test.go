package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/providers"
	"github.com/tbourn/go-learnhub-backend/internal/repo"
)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.Video{}, &domain.Quiz{}, &domain.Feedback{},
		&domain.GenerationRequest{}, &domain.GenerationLog{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// --- provider fakes ---

type fakeSearcher struct {
	fn func(ctx context.Context, term string, limit int) ([]providers.VideoCandidate, error)
}

func (f *fakeSearcher) Search(ctx context.Context, term string, limit int) ([]providers.VideoCandidate, error) {
	return f.fn(ctx, term, limit)
}

type fakeStats struct {
	fn func(ctx context.Context, ids []string) (map[string]providers.VideoStats, error)
}

func (f *fakeStats) Stats(ctx context.Context, ids []string) (map[string]providers.VideoStats, error) {
	return f.fn(ctx, ids)
}

type fakeSummarizer struct {
	fn func(ctx context.Context, v providers.VideoCandidate, goal string) (providers.Summary, error)
}

func (f *fakeSummarizer) Summarize(ctx context.Context, v providers.VideoCandidate, goal string) (providers.Summary, error) {
	return f.fn(ctx, v, goal)
}

type fakeQuizGen struct {
	fn func(ctx context.Context, v providers.VideoCandidate, goal string, n int) ([]providers.QuizItem, error)
}

func (f *fakeQuizGen) Quiz(ctx context.Context, v providers.VideoCandidate, goal string, n int) ([]providers.QuizItem, error) {
	return f.fn(ctx, v, goal, n)
}

func candidates(ids ...string) []providers.VideoCandidate {
	out := make([]providers.VideoCandidate, len(ids))
	for i, id := range ids {
		out[i] = providers.VideoCandidate{
			ID:          id,
			Title:       "Video " + id,
			URL:         "https://www.youtube.com/watch?v=" + id,
			PublishedAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
		}
	}
	return out
}

func happyOrchestrator(t *testing.T, db *gorm.DB) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(db,
		&fakeSearcher{fn: func(ctx context.Context, term string, limit int) ([]providers.VideoCandidate, error) {
			return candidates("a", "b", "c"), nil
		}},
		&fakeStats{fn: func(ctx context.Context, ids []string) (map[string]providers.VideoStats, error) {
			return map[string]providers.VideoStats{
				"a": {Views: 1_000_000, Likes: 80_000, Comments: 9_000},
				"b": {Views: 50_000, Likes: 4_000, Comments: 400},
				"c": {Views: 500, Likes: 20, Comments: 2},
			}, nil
		}},
		&fakeSummarizer{fn: func(ctx context.Context, v providers.VideoCandidate, goal string) (providers.Summary, error) {
			return providers.Summary{Text: "summary of " + v.ID, Level: goal}, nil
		}},
		&fakeQuizGen{fn: func(ctx context.Context, v providers.VideoCandidate, goal string, n int) ([]providers.QuizItem, error) {
			items := make([]providers.QuizItem, n)
			for i := range items {
				items[i] = providers.QuizItem{
					Question:   fmt.Sprintf("q%d about %s", i+1, v.ID),
					Answer:     "a",
					Difficulty: "easy",
				}
			}
			return items, nil
		}},
	)
	o.TopK = 2
	o.QuizPerVideo = 2
	o.Retry = providers.RetryConfig{MaxTries: 2, InitialInterval: time.Millisecond, MaxElapsed: time.Second}
	return o
}

func TestOrchestratorRun_PersistsRankedContent(t *testing.T) {
	db := newSvcDB(t)
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	o := happyOrchestrator(t, db)
	videos, quizzes, err := o.Run(context.Background(), key)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if videos != 2 || quizzes != 4 {
		t.Fatalf("counts = %d videos / %d quizzes, want 2/4", videos, quizzes)
	}

	stored, err := repo.FindVideos(context.Background(), db, key)
	if err != nil {
		t.Fatalf("FindVideos: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d videos, want top 2 of 3", len(stored))
	}
	// Highest-engagement candidate must rank first.
	if stored[0].VideoID != "a" || stored[0].Rank != 1 {
		t.Fatalf("rank 1 = %s (rank %d), want a", stored[0].VideoID, stored[0].Rank)
	}
	if stored[0].Summary != "summary of a" || stored[0].ViewCount != 1_000_000 {
		t.Fatalf("enrichment missing: %+v", stored[0])
	}
}

func TestOrchestratorRun_NoCandidates(t *testing.T) {
	db := newSvcDB(t)
	key := normalize.TopicKey{SearchTerm: "nonexistent", LearningGoal: "beginner"}

	o := happyOrchestrator(t, db)
	o.Searcher = &fakeSearcher{fn: func(ctx context.Context, term string, limit int) ([]providers.VideoCandidate, error) {
		return nil, nil
	}}

	_, _, err := o.Run(context.Background(), key)
	if !errors.Is(err, ErrNoContentFound) {
		t.Fatalf("got %v, want ErrNoContentFound", err)
	}
	stored, _ := repo.FindVideos(context.Background(), db, key)
	if len(stored) != 0 {
		t.Fatal("empty search must persist nothing")
	}
}

func TestOrchestratorRun_SearchRetriesTransient(t *testing.T) {
	db := newSvcDB(t)
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	o := happyOrchestrator(t, db)
	calls := 0
	o.Searcher = &fakeSearcher{fn: func(ctx context.Context, term string, limit int) ([]providers.VideoCandidate, error) {
		calls++
		if calls == 1 {
			return nil, providers.Transient(errors.New("rate limited"))
		}
		return candidates("a"), nil
	}}

	if _, _, err := o.Run(context.Background(), key); err != nil {
		t.Fatalf("Run after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("search called %d times, want 2", calls)
	}
}

func TestOrchestratorRun_StatsFailureFailsRun(t *testing.T) {
	db := newSvcDB(t)
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	o := happyOrchestrator(t, db)
	o.Stats = &fakeStats{fn: func(ctx context.Context, ids []string) (map[string]providers.VideoStats, error) {
		return nil, errors.New("api key revoked")
	}}

	if _, _, err := o.Run(context.Background(), key); err == nil {
		t.Fatal("stats failure must fail the run")
	}
	stored, _ := repo.FindVideos(context.Background(), db, key)
	if len(stored) != 0 {
		t.Fatal("failed run must persist nothing")
	}
}

func TestOrchestratorRun_LLMFailureDegradesToFallback(t *testing.T) {
	db := newSvcDB(t)
	key := normalize.TopicKey{SearchTerm: "go", LearningGoal: "beginner"}

	o := happyOrchestrator(t, db)
	o.Summarize = &fakeSummarizer{fn: func(ctx context.Context, v providers.VideoCandidate, goal string) (providers.Summary, error) {
		return providers.Summary{}, errors.New("model overloaded")
	}}
	o.QuizGen = &fakeQuizGen{fn: func(ctx context.Context, v providers.VideoCandidate, goal string, n int) ([]providers.QuizItem, error) {
		return nil, errors.New("model overloaded")
	}}

	videos, quizzes, err := o.Run(context.Background(), key)
	if err != nil {
		t.Fatalf("LLM failure must not fail the run: %v", err)
	}
	if videos != 2 || quizzes == 0 {
		t.Fatalf("counts = %d/%d, want full video set with fallback quizzes", videos, quizzes)
	}

	stored, err := repo.FindVideos(context.Background(), db, key)
	if err != nil {
		t.Fatalf("FindVideos: %v", err)
	}
	for _, v := range stored {
		if v.Summary == "" {
			t.Fatalf("video %s has no summary after degradation", v.VideoID)
		}
		if strings.Contains(v.Summary, "summary of") {
			t.Fatalf("expected fallback text, got LLM text: %q", v.Summary)
		}
		if v.Level != key.LearningGoal {
			t.Fatalf("fallback level = %q, want requested goal", v.Level)
		}
	}
}
