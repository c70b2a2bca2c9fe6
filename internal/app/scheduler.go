package app

import (
	"context"
	"time"
)

// DefaultTickInterval is how often the scheduler looks for expired questions.
const DefaultTickInterval = 500 * time.Millisecond

// Scheduler advances quizzes whose question deadline has passed, independently of any request.
type Scheduler struct {
	service  *QuizService
	interval time.Duration
}

func NewScheduler(service *QuizService, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{service: service, interval: interval}
}

// Run ticks until ctx is cancelled. A due session is advanced within one interval of its deadline.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.service.logger.Info("scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.service.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one expiry pass at the service clock's current time.
func (s *Scheduler) Tick(ctx context.Context) int {
	return s.service.Expire(ctx, s.service.now())
}
