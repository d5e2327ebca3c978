package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/go-learnhub-backend/internal/config"
	"github.com/tbourn/go-learnhub-backend/internal/services"
)

type fakeLearn struct {
	mu       sync.Mutex
	calls    []string
	errs     map[string]error
	statuses map[string]string
}

func (f *fakeLearn) Request(ctx context.Context, term, goal string) (*services.LearnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, term+"|"+goal)
	if err := f.errs[term]; err != nil {
		return nil, err
	}
	status := services.ResultSuccess
	if s := f.statuses[term]; s != "" {
		status = s
	}
	return &services.LearnResult{Status: status, SearchTerm: term, LearningGoal: goal}, nil
}

func topics(pairs ...[2]string) []config.TopicPair {
	out := make([]config.TopicPair, len(pairs))
	for i, p := range pairs {
		out[i] = config.TopicPair{SearchTerm: p[0], LearningGoal: p[1]}
	}
	return out
}

func TestRunOnce_WalksAllTopics(t *testing.T) {
	learn := &fakeLearn{}
	p := NewPrepopulator(learn, topics([2]string{"go", "beginner"}, [2]string{"react", "advanced"}), "@daily")

	p.RunOnce(context.Background())
	if len(learn.calls) != 2 {
		t.Fatalf("calls = %v, want both topics", learn.calls)
	}
}

func TestRunOnce_SkipsFailingTopic(t *testing.T) {
	learn := &fakeLearn{errs: map[string]error{
		"niche": services.ErrNoContentFound,
		"flaky": errors.New("providers down"),
	}}
	p := NewPrepopulator(learn, topics(
		[2]string{"niche", "beginner"},
		[2]string{"flaky", "beginner"},
		[2]string{"go", "beginner"},
	), "@daily")

	p.RunOnce(context.Background())
	// Failures must not stop the walk.
	if len(learn.calls) != 3 {
		t.Fatalf("calls = %v, want all 3 topics attempted", learn.calls)
	}
}

// A topic another process is already generating reports in_progress, not an
// error; the walk treats it as handled and moves on.
func TestRunOnce_InProgressTopicCountsAsHandled(t *testing.T) {
	learn := &fakeLearn{statuses: map[string]string{"react": services.ResultInProgress}}
	p := NewPrepopulator(learn, topics(
		[2]string{"react", "beginner"},
		[2]string{"go", "beginner"},
	), "@daily")

	p.RunOnce(context.Background())
	if len(learn.calls) != 2 {
		t.Fatalf("calls = %v, want both topics", learn.calls)
	}
}

func TestRunOnce_HonorsCancellation(t *testing.T) {
	learn := &fakeLearn{}
	p := NewPrepopulator(learn, topics([2]string{"go", "beginner"}), "@daily")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.RunOnce(ctx)
	if len(learn.calls) != 0 {
		t.Fatalf("cancelled run made %d calls", len(learn.calls))
	}
}

func TestStart_EmptyScheduleIsNoop(t *testing.T) {
	p := NewPrepopulator(&fakeLearn{}, topics([2]string{"go", "beginner"}), "")
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop() // must not panic without a scheduler
}

func TestStart_BadSchedule(t *testing.T) {
	p := NewPrepopulator(&fakeLearn{}, topics([2]string{"go", "beginner"}), "not a cron spec")
	if err := p.Start(); err == nil {
		t.Fatal("invalid schedule accepted")
	}
}
