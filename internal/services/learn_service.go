// Package services – LearnService
//
// LearnService is the entry point for topic learning requests. For each
// request it normalizes the raw inputs into the canonical topic pair, serves
// existing content when available, and otherwise coordinates exactly one
// generation run per topic across all processes:
//
//  1. normalize inputs into the canonical key;
//  2. look up existing content (cache first, then database);
//  3. on a miss, acquire the generation lease; losing the race means the
//     request reports "in_progress" instead of starting a duplicate run;
//  4. the lease winner appends a log entry, runs the orchestrator, writes
//     the terminal log update, and releases the lease.
//
// The generation run is detached from the caller's cancellation: an impatient
// client disconnecting must not strand a half-finished run holding the lease.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-learnhub-backend/internal/cache"
	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/observability"
	"github.com/tbourn/go-learnhub-backend/internal/repo"
)

// Learn request outcome states.
const (
	// ResultExists: content was already available, nothing was generated.
	ResultExists = "exists"
	// ResultInProgress: another caller holds the generation lease.
	ResultInProgress = "in_progress"
	// ResultSuccess: this call ran generation and produced the content.
	ResultSuccess = "success"
)

// LearnResult is the outcome of one learning request.
type LearnResult struct {
	Status       string
	SearchTerm   string
	LearningGoal string
	Content      *cache.TopicContent

	// Set only for ResultSuccess.
	VideosGenerated  int
	QuizzesGenerated int
	LogID            string

	// Set only for ResultInProgress: whole minutes the running lease has
	// been held.
	MinutesElapsed int64
}

// StatusInfo describes the most recent generation activity for a topic.
type StatusInfo struct {
	SearchTerm       string
	LearningGoal     string
	State            string
	StartedAt        time.Time
	CompletedAt      *time.Time
	VideosGenerated  int
	QuizzesGenerated int
	ErrorMessage     string
	ElapsedSeconds   int64 // only while a lease is live
}

// ContentGenerator runs one generation pass for a topic. Implemented by
// Orchestrator; faked in tests.
type ContentGenerator interface {
	Run(ctx context.Context, key normalize.TopicKey) (videos, quizzes int, err error)
}

// LearnService coordinates lookup, deduplication, and generation.
type LearnService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cache is the optional read-through content cache; nil disables it.
	Cache *cache.ContentCache
	// Generator runs the actual content generation.
	Generator ContentGenerator

	// LockTTL is the lease lifetime before a stale holder may be taken over.
	LockTTL time.Duration
	// Now is injectable for tests; defaults to time.Now().UTC.
	Now func() time.Time
}

// NewLearnService constructs a LearnService with production defaults.
func NewLearnService(db *gorm.DB, c *cache.ContentCache, gen ContentGenerator, lockTTL time.Duration) *LearnService {
	return &LearnService{
		DB:        db,
		Cache:     c,
		Generator: gen,
		LockTTL:   lockTTL,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Request handles one learning request for the raw (searchTerm, learningGoal)
// pair. Input validation errors from normalization are returned unwrapped so
// handlers can map them to 400s.
func (s *LearnService) Request(ctx context.Context, searchTerm, learningGoal string) (*LearnResult, error) {
	key, err := normalize.MakeKey(searchTerm, learningGoal)
	if err != nil {
		return nil, err
	}

	if content, ok := s.lookup(ctx, key); ok {
		return &LearnResult{
			Status:       ResultExists,
			SearchTerm:   key.SearchTerm,
			LearningGoal: key.LearningGoal,
			Content:      content,
		}, nil
	}

	now := s.Now()
	lease, err := repo.AcquireLock(ctx, s.DB, key, now, s.LockTTL)
	if errors.Is(err, repo.ErrGenerationInFlight) {
		res := &LearnResult{
			Status:       ResultInProgress,
			SearchTerm:   key.SearchTerm,
			LearningGoal: key.LearningGoal,
		}
		// AcquireLock always returns a holder row with this error; the nil
		// check keeps a repo regression from turning into a panic here.
		if lease != nil {
			res.MinutesElapsed = int64(now.Sub(lease.CreatedAt).Minutes())
		}
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	// Between our miss and winning the lease, a finishing run may have
	// published content. Re-check before spending provider quota.
	if content, ok := s.lookup(ctx, key); ok {
		s.release(key)
		return &LearnResult{
			Status:       ResultExists,
			SearchTerm:   key.SearchTerm,
			LearningGoal: key.LearningGoal,
			Content:      content,
		}, nil
	}

	return s.generate(ctx, key)
}

// generate runs the orchestrator while holding the lease and maintains the
// log lifecycle around it.
func (s *LearnService) generate(ctx context.Context, key normalize.TopicKey) (*LearnResult, error) {
	defer s.release(key)

	// The run must survive the caller hanging up; bookkeeping below uses the
	// same detached context.
	runCtx := context.WithoutCancel(ctx)
	started := s.Now()

	entry, err := repo.StartLog(runCtx, s.DB, key, started)
	if err != nil {
		return nil, err
	}
	if err := repo.MarkLogRunning(runCtx, s.DB, entry.ID); err != nil {
		log.Warn().Err(err).Str("topic", key.String()).Msg("log progress update failed")
	}

	videos, quizzes, genErr := s.Generator.Run(runCtx, key)
	if genErr != nil {
		s.completeLog(runCtx, entry.ID, false, 0, 0, genErr.Error())
		if errors.Is(genErr, ErrNoContentFound) {
			observability.ObserveGenerationRun(observability.GenOutcomeNoContent, s.Now().Sub(started), 0, 0)
			return nil, ErrNoContentFound
		}
		observability.ObserveGenerationRun(observability.GenOutcomeFailed, s.Now().Sub(started), 0, 0)
		log.Error().Err(genErr).Str("topic", key.String()).Msg("generation run failed")
		return nil, errors.Join(ErrGenerationFailed, genErr)
	}
	s.completeLog(runCtx, entry.ID, true, videos, quizzes, "")
	observability.ObserveGenerationRun(observability.GenOutcomeSuccess, s.Now().Sub(started), videos, quizzes)

	// Stored content changed; a stale cache entry must not outlive it.
	s.Cache.Invalidate(runCtx, key)

	content, err := s.loadContent(runCtx, key)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("topic", key.String()).
		Int("videos", videos).
		Int("quizzes", quizzes).
		Msg("generation run completed")
	return &LearnResult{
		Status:           ResultSuccess,
		SearchTerm:       key.SearchTerm,
		LearningGoal:     key.LearningGoal,
		Content:          content,
		VideosGenerated:  videos,
		QuizzesGenerated: quizzes,
		LogID:            entry.ID,
	}, nil
}

// Status reports the most recent generation activity for the raw topic pair.
// A live lease always wins over log history; a topic that was never requested
// yields ErrStatusUnknown.
func (s *LearnService) Status(ctx context.Context, searchTerm, learningGoal string) (*StatusInfo, error) {
	key, err := normalize.MakeKey(searchTerm, learningGoal)
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{SearchTerm: key.SearchTerm, LearningGoal: key.LearningGoal}

	if lease, err := repo.LockHolder(ctx, s.DB, key); err == nil {
		info.State = ResultInProgress
		info.StartedAt = lease.CreatedAt
		info.ElapsedSeconds = int64(s.Now().Sub(lease.CreatedAt).Seconds())
		return info, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	entry, err := repo.LatestLog(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrStatusUnknown
	}
	if err != nil {
		return nil, err
	}
	info.State = entry.Status
	info.StartedAt = entry.StartedAt
	info.CompletedAt = entry.CompletedAt
	info.VideosGenerated = entry.VideosGenerated
	info.QuizzesGenerated = entry.QuizzesGenerated
	info.ErrorMessage = entry.ErrorMessage
	return info, nil
}

// Content returns the stored content for the raw topic pair, or
// ErrNoContentFound when the topic has no videos yet. Reads go through the
// cache; concurrent misses collapse to one database lookup.
func (s *LearnService) Content(ctx context.Context, searchTerm, learningGoal string) (*cache.TopicContent, error) {
	key, err := normalize.MakeKey(searchTerm, learningGoal)
	if err != nil {
		return nil, err
	}
	content, _, err := s.Cache.GetOrCompute(ctx, key, func() (*cache.TopicContent, error) {
		return s.loadContent(ctx, key)
	})
	return content, err
}

// lookup is the non-generating read path: cache, then database. A database
// hit back-fills the cache.
func (s *LearnService) lookup(ctx context.Context, key normalize.TopicKey) (*cache.TopicContent, bool) {
	if content, ok := s.Cache.Get(ctx, key); ok {
		return content, true
	}
	content, err := s.loadContent(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNoContentFound) {
			log.Warn().Err(err).Str("topic", key.String()).Msg("content lookup failed")
		}
		return nil, false
	}
	s.Cache.Set(ctx, key, content)
	return content, true
}

func (s *LearnService) loadContent(ctx context.Context, key normalize.TopicKey) (*cache.TopicContent, error) {
	videos, err := repo.FindVideos(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, ErrNoContentFound
	}
	quizzes, err := repo.FindQuizzes(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	return &cache.TopicContent{Videos: videos, Quizzes: quizzes}, nil
}

func (s *LearnService) completeLog(ctx context.Context, id string, ok bool, videos, quizzes int, errMsg string) {
	status := domain.GenStatusFailed
	if ok {
		status = domain.GenStatusSuccess
	}
	if err := repo.CompleteLog(ctx, s.DB, id, status, videos, quizzes, errMsg, s.Now()); err != nil {
		log.Warn().Err(err).Str("log_id", id).Msg("terminal log update failed")
	}
}

// release drops the lease with a background context so cleanup survives
// caller cancellation.
func (s *LearnService) release(key normalize.TopicKey) {
	if err := repo.ReleaseLock(context.Background(), s.DB, key); err != nil {
		log.Error().Err(err).Str("topic", key.String()).Msg("lease release failed")
	}
}
