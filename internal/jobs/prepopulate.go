// Package jobs hosts background maintenance work. The pre-populator keeps a
// configured list of popular topics generated ahead of user demand, running
// on a cron schedule so the first learner of the day gets a warm topic
// instead of waiting on a full generation pass.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-learnhub-backend/internal/config"
	"github.com/tbourn/go-learnhub-backend/internal/services"
)

// LearnRequester is the slice of LearnService the job needs.
type LearnRequester interface {
	Request(ctx context.Context, searchTerm, learningGoal string) (*services.LearnResult, error)
}

// Prepopulator schedules generation runs for a fixed topic list.
type Prepopulator struct {
	learn    LearnRequester
	topics   []config.TopicPair
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

// NewPrepopulator builds a Prepopulator. schedule is a standard 5-field cron
// expression (or a descriptor like "@daily"); an empty schedule produces a
// no-op job.
func NewPrepopulator(learn LearnRequester, topics []config.TopicPair, schedule string) *Prepopulator {
	return &Prepopulator{
		learn:    learn,
		topics:   topics,
		schedule: schedule,
		timeout:  30 * time.Minute,
	}
}

// Start registers the cron entry and launches the scheduler. Panics in the
// job body are recovered and logged instead of killing the process.
func (p *Prepopulator) Start() error {
	if p.schedule == "" || len(p.topics) == 0 {
		log.Info().Msg("topic pre-population disabled")
		return nil
	}

	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		)),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.RunOnce(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	p.cron = c
	log.Info().
		Str("schedule", p.schedule).
		Int("topics", len(p.topics)).
		Msg("topic pre-population scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (p *Prepopulator) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
}

// RunOnce walks the topic list sequentially. Per-topic failures are logged
// and skipped; a topic already being generated elsewhere counts as handled.
func (p *Prepopulator) RunOnce(ctx context.Context) {
	for _, topic := range p.topics {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("pre-population aborted")
			return
		}
		res, err := p.learn.Request(ctx, topic.SearchTerm, topic.LearningGoal)
		if err != nil {
			if errors.Is(err, services.ErrNoContentFound) {
				log.Warn().
					Str("search_term", topic.SearchTerm).
					Str("learning_goal", topic.LearningGoal).
					Msg("pre-population found no content for topic")
				continue
			}
			log.Error().Err(err).
				Str("search_term", topic.SearchTerm).
				Str("learning_goal", topic.LearningGoal).
				Msg("pre-population failed for topic")
			continue
		}
		log.Info().
			Str("search_term", res.SearchTerm).
			Str("learning_goal", res.LearningGoal).
			Str("status", res.Status).
			Msg("pre-population topic handled")
	}
}
