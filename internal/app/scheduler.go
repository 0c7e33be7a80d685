/**
 * @description
 * Cron scheduler for the daily spending-reset job. The engine also rolls each
 * accumulator lazily inside ProcessPayment, so the job is an accounting sweep
 * rather than a correctness requirement.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the engine's periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	schedule string
}

// NewScheduler creates a scheduler that resets daily budgets on the given cron
// schedule, evaluated in UTC to match the engine's day boundary.
func NewScheduler(service *Service, schedule string) *Scheduler {
	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Scheduler{
		cron:     c,
		service:  service,
		schedule: schedule,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDailyReset); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("level=info component=scheduler msg=\"scheduled daily budget reset\" schedule=%q", s.schedule)
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runDailyReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	touched, err := s.service.ResetDailyBudgets(ctx)
	if err != nil {
		log.Printf("level=error component=scheduler job=daily_reset msg=\"reset failed\" err=%v", err)
		return
	}
	log.Printf("level=info component=scheduler job=daily_reset profiles_reset=%d", touched)
}
