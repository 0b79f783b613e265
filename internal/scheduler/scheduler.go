// Package scheduler runs the periodic monitoring jobs. The scheduler is an
// explicit value owned by the process lifecycle: main starts it with a
// context and cancellation stops every job loop, so there is no mutable
// module-level handle to start or stop.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is one periodic task. Run receives the scheduler's context and should
// return promptly once it is cancelled.
type Job struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool // fire once immediately instead of waiting a full interval
	Run        func(ctx context.Context) error
}

// Scheduler drives a set of Jobs on independent tickers.
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

// New creates a scheduler for the given jobs.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start launches one goroutine per job. It returns immediately; call Wait
// after cancelling the context to block until every job loop has exited.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
}

// Wait blocks until all job loops have stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	log.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("Scheduled job started")

	if job.RunAtStart {
		s.runOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("job", job.Name).Msg("Scheduled job stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

// runOnce executes one tick. Errors are logged and swallowed: every job in
// this service is idempotent and safe to retry on the next tick.
func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Str("job", job.Name).Msg("Scheduled job run failed")
		return
	}
	log.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("Scheduled job run completed")
}
