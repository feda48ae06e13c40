package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
)

// FireFunc is called when a reminder comes due.
type FireFunc func(reminder model.ReminderTime)

// CronRunner delivers reminders on a cron scheduler, one daily job per
// reminder minute. ReplaceReminders swaps the whole job set under a lock.
type CronRunner struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    []cron.EntryID
	fire    FireFunc
	logger  hydro.Logger
	running bool
}

var _ hydro.Notifier = (*CronRunner)(nil)

// NewCronRunner creates a runner that evaluates schedules in loc.
func NewCronRunner(loc *time.Location, fire FireFunc, logger hydro.Logger) *CronRunner {
	return &CronRunner{
		cron:   cron.New(cron.WithLocation(loc)),
		fire:   fire,
		logger: logger,
	}
}

// CronSpec returns the standard five-field spec firing daily at the reminder's minute.
func CronSpec(r model.ReminderTime) (string, error) {
	if r.Minute < 0 || r.Minute >= 24*60 {
		return "", fmt.Errorf("%w: reminder minute %d out of range", hydro.ErrInvalidInput, r.Minute)
	}
	return fmt.Sprintf("%d %d * * *", r.Minute%60, r.Minute/60), nil
}

// ReplaceReminders installs the new job set and then drops the old one.
// If any new job cannot be scheduled the previous set stays in place.
func (c *CronRunner) ReplaceReminders(ctx context.Context, reminders []model.ReminderTime) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := make([]cron.EntryID, 0, len(reminders))
	for _, r := range reminders {
		spec, err := CronSpec(r)
		if err == nil {
			var id cron.EntryID
			id, err = c.cron.AddJob(spec, c.job(r))
			added = append(added, id)
		}
		if err != nil {
			for _, id := range added {
				c.cron.Remove(id)
			}
			return fmt.Errorf("scheduling reminder at %s: %w", hydro.FormatClock(r.Minute), err)
		}
	}

	for _, id := range c.jobs {
		c.cron.Remove(id)
	}
	c.jobs = added
	c.logger.Debug("reminders scheduled", "count", len(added))
	return nil
}

func (c *CronRunner) job(r model.ReminderTime) cron.Job {
	return cron.FuncJob(func() {
		c.logger.Info("reminder due", "at", hydro.FormatClock(r.Minute), "target_ml", r.PacingTargetML)
		c.fire(r)
	})
}

// Len returns the number of scheduled reminder jobs.
func (c *CronRunner) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

// Next returns the next fire time across all jobs, or the zero time.
func (c *CronRunner) Next() time.Time {
	var next time.Time
	for _, e := range c.cron.Entries() {
		if !e.Next.IsZero() && (next.IsZero() || e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (c *CronRunner) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("cron runner already running")
	}
	c.running = true
	c.mu.Unlock()

	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	return nil
}
