// Package services – Orchestrator
//
// The Orchestrator runs one complete content-generation pass for a canonical
// topic pair: search for candidate videos, fetch engagement statistics, rank
// and keep the best, enrich each with an LLM summary and quiz questions, and
// persist the assembled set atomically.
//
// It owns none of the concurrency bookkeeping: the caller (LearnService)
// acquires the generation lease and writes the log entries. Provider calls
// retry transient failures; LLM failures degrade to templated fallback
// content so a search that found videos never produces an empty topic.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/providers"
	"github.com/tbourn/go-learnhub-backend/internal/rank"
	"github.com/tbourn/go-learnhub-backend/internal/repo"
)

// Orchestrator assembles topic content from the external providers and
// persists it. All collaborator fields must be set; Weights, SearchLimit,
// TopK, QuizPerVideo and Retry have working defaults applied by
// NewOrchestrator.
type Orchestrator struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	Searcher  providers.VideoSearcher
	Stats     providers.StatsProvider
	Summarize providers.Summarizer
	QuizGen   providers.QuizGenerator

	Weights      rank.Weights
	SearchLimit  int
	TopK         int
	QuizPerVideo int
	Retry        providers.RetryConfig

	// Now is injectable for tests; defaults to time.Now().UTC.
	Now func() time.Time
}

// NewOrchestrator constructs an Orchestrator with production defaults.
func NewOrchestrator(db *gorm.DB, search providers.VideoSearcher, stats providers.StatsProvider, sum providers.Summarizer, quiz providers.QuizGenerator) *Orchestrator {
	return &Orchestrator{
		DB:           db,
		Searcher:     search,
		Stats:        stats,
		Summarize:    sum,
		QuizGen:      quiz,
		Weights:      rank.DefaultWeights(),
		SearchLimit:  20,
		TopK:         5,
		QuizPerVideo: 3,
		Retry:        providers.DefaultRetry,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one generation pass for key and returns the number of videos
// and quizzes persisted.
//
// Failure semantics:
//   - search yields nothing usable: ErrNoContentFound, nothing persisted;
//   - search or stats fail after retries: the wrapped provider error;
//   - LLM summarize/quiz failures never fail the run; the affected video
//     gets templated fallback content instead.
func (o *Orchestrator) Run(ctx context.Context, key normalize.TopicKey) (videosN, quizzesN int, err error) {
	now := o.Now()

	candidates, err := providers.Do(ctx, o.Retry, func() ([]providers.VideoCandidate, error) {
		return o.Searcher.Search(ctx, key.SearchTerm, o.SearchLimit)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("video search: %w", err)
	}
	if len(candidates) == 0 {
		return 0, 0, ErrNoContentFound
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	stats, err := providers.Do(ctx, o.Retry, func() (map[string]providers.VideoStats, error) {
		return o.Stats.Stats(ctx, ids)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("video stats: %w", err)
	}

	scored := make([]rank.Candidate, len(candidates))
	for i, c := range candidates {
		scored[i] = rank.Candidate{VideoCandidate: c, Stats: stats[c.ID]}
	}
	top := rank.TopK(scored, o.TopK, now, o.Weights)

	videos := make([]domain.Video, 0, len(top))
	quizzes := make([]domain.Quiz, 0, len(top)*o.QuizPerVideo)
	for i, c := range top {
		rowID := uuid.NewString()
		summary := o.summarizeWithFallback(ctx, key, c.VideoCandidate)
		videos = append(videos, domain.Video{
			ID:           rowID,
			SearchTerm:   key.SearchTerm,
			LearningGoal: key.LearningGoal,
			VideoID:      c.ID,
			Title:        c.Title,
			ChannelTitle: c.ChannelTitle,
			URL:          c.URL,
			Thumbnail:    c.Thumbnail,
			Description:  c.Description,
			Summary:      summary.Text,
			Level:        summary.Level,
			Rank:         i + 1,
			Score:        rank.Score(c, now, o.Weights),
			ViewCount:    c.Stats.Views,
			LikeCount:    c.Stats.Likes,
			CommentCount: c.Stats.Comments,
			PublishedAt:  c.PublishedAt,
		})

		for pos, q := range o.quizWithFallback(ctx, key, c.VideoCandidate) {
			quizzes = append(quizzes, domain.Quiz{
				ID:           uuid.NewString(),
				VideoRowID:   rowID,
				SearchTerm:   key.SearchTerm,
				LearningGoal: key.LearningGoal,
				Question:     q.Question,
				Answer:       q.Answer,
				Difficulty:   q.Difficulty,
				Position:     pos + 1,
			})
		}
	}

	if err := repo.UpsertContent(ctx, o.DB, key, videos, quizzes); err != nil {
		return 0, 0, fmt.Errorf("persist content: %w", err)
	}
	return len(videos), len(quizzes), nil
}

func (o *Orchestrator) summarizeWithFallback(ctx context.Context, key normalize.TopicKey, v providers.VideoCandidate) providers.Summary {
	summary, err := providers.Do(ctx, o.Retry, func() (providers.Summary, error) {
		return o.Summarize.Summarize(ctx, v, key.LearningGoal)
	})
	if err != nil {
		log.Warn().Err(err).
			Str("video_id", v.ID).
			Str("topic", key.String()).
			Msg("summarize failed, using fallback")
		return fallbackSummary(key, v)
	}
	return summary
}

func (o *Orchestrator) quizWithFallback(ctx context.Context, key normalize.TopicKey, v providers.VideoCandidate) []providers.QuizItem {
	items, err := providers.Do(ctx, o.Retry, func() ([]providers.QuizItem, error) {
		return o.QuizGen.Quiz(ctx, v, key.LearningGoal, o.QuizPerVideo)
	})
	if err != nil {
		log.Warn().Err(err).
			Str("video_id", v.ID).
			Str("topic", key.String()).
			Msg("quiz generation failed, using fallback")
		return fallbackQuiz(key, v, o.QuizPerVideo)
	}
	return items
}

// fallbackSummary produces templated study text when the LLM is unavailable.
// It is honest about its nature rather than pretending to summarize.
func fallbackSummary(key normalize.TopicKey, v providers.VideoCandidate) providers.Summary {
	text := fmt.Sprintf("%q by %s covers %s. Watch the video for a %s-level walkthrough of the topic.",
		v.Title, v.ChannelTitle, normalize.Title(key.SearchTerm), key.LearningGoal)
	return providers.Summary{Text: text, Level: key.LearningGoal}
}

// fallbackQuiz produces n generic recall prompts tied to the video.
func fallbackQuiz(key normalize.TopicKey, v providers.VideoCandidate, n int) []providers.QuizItem {
	templates := []providers.QuizItem{
		{
			Question: fmt.Sprintf("What are the main concepts of %s covered in %q?", normalize.Title(key.SearchTerm), v.Title),
			Answer:   "Review the video and list the key concepts it introduces.",
		},
		{
			Question: fmt.Sprintf("Summarize in your own words what %q teaches about %s.", v.Title, normalize.Title(key.SearchTerm)),
			Answer:   "A short recap of the video's core lesson in your own words.",
		},
		{
			Question: fmt.Sprintf("Which part of %q would you re-watch to solidify your %s-level understanding, and why?", v.Title, key.LearningGoal),
			Answer:   "Identify the section that was hardest to follow and explain what it covers.",
		},
	}
	if n > len(templates) {
		n = len(templates)
	}
	out := make([]providers.QuizItem, n)
	for i := 0; i < n; i++ {
		out[i] = templates[i]
		out[i].Difficulty = "medium"
	}
	return out
}
