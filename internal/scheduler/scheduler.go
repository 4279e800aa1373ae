package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/pipeline"
	"github.com/i474232898/weather-reader/internal/store"
)

// Scheduler periodically runs the download pipeline and records summaries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pipeline  *pipeline.Pipeline
	store     *store.MemoryStore
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(p *pipeline.Pipeline, st *store.MemoryStore, interval time.Duration, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		pipeline:  p,
		store:     st,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run fires immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	// Each run gets a deadline slightly inside the interval so a stuck run
	// cannot pile up behind the next one.
	timeout := s.interval - 30*time.Second
	if timeout <= 0 {
		timeout = s.interval
	}

	_, err := s.scheduler.Every(minutes).Minutes().StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		summary, err := s.pipeline.Run(ctx)
		if err != nil {
			s.logger.Error("scheduled run failed", zap.Error(err))
			return
		}
		s.store.SaveRun(summary)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
