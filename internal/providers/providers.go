// Package providers defines the external collaborator contracts consumed by
// the generation orchestrator (video search, engagement statistics, and LLM
// summarization/quiz generation) together with the transient-error
// classification that drives retry behavior.
//
// Implementations live in the youtube and gemini subpackages; tests use
// hand-written fakes. The orchestrator depends only on these interfaces.
package providers

import (
	"context"
	"errors"
	"time"
)

// VideoCandidate is one search hit prior to ranking and enrichment.
type VideoCandidate struct {
	ID           string
	Title        string
	ChannelTitle string
	Description  string
	URL          string
	Thumbnail    string
	PublishedAt  time.Time
}

// VideoStats is the engagement data used by the ranking formula.
type VideoStats struct {
	Views    int64
	Likes    int64
	Comments int64
}

// Summary is an LLM-produced study summary plus a difficulty estimate
// ("beginner", "intermediate", or "advanced").
type Summary struct {
	Text  string
	Level string
}

// QuizItem is one generated question/answer pair.
type QuizItem struct {
	Question   string
	Answer     string
	Difficulty string
}

// VideoSearcher finds candidate videos for a canonical search term.
type VideoSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]VideoCandidate, error)
}

// StatsProvider fetches engagement statistics for a batch of video ids.
// Ids absent from the result simply had no statistics available.
type StatsProvider interface {
	Stats(ctx context.Context, ids []string) (map[string]VideoStats, error)
}

// Summarizer produces a study summary for a video, tuned to the learner's
// goal level.
type Summarizer interface {
	Summarize(ctx context.Context, v VideoCandidate, goal string) (Summary, error)
}

// QuizGenerator produces n quiz questions for a video at the goal level.
type QuizGenerator interface {
	Quiz(ctx context.Context, v VideoCandidate, goal string, n int) ([]QuizItem, error)
}

// transientError marks provider failures that are worth retrying
// (network errors, 5xx, rate limiting). Everything else, such as
// quota-permanent 4xx or malformed responses, is terminal for the attempt.
type transientError struct {
	err error
}

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

// Transient wraps err so IsTransient reports true. Wrapping nil returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err (anywhere in its chain) was marked
// retryable by a provider.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
