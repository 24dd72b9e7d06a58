// Package worker runs the ledger's background processes: the periodic
// amortization, billing and reminder jobs, and the consumer of ledger
// tasks published by the API.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finledger/internal/core"
	"finledger/internal/joblock"
	"finledger/internal/log"
	"finledger/internal/services"
)

// Job names, also used in lock keys.
const (
	JobAmortize = "amortize"
	JobBill     = "bill"
	JobRemind   = "remind"
)

// Amortizer books the monthly share of prepaid expenses.
type Amortizer interface {
	Run(ctx context.Context, month *core.Month) (services.AmortizationResult, error)
}

// Biller bills due subscriptions and looks ahead for reminders.
type Biller interface {
	ProcessBills(ctx context.Context, today core.Date) (services.BillingResult, error)
	CheckReminders(ctx context.Context, today core.Date, daysAhead int) ([]services.Reminder, error)
}

// Notifier delivers a reminder to its owner.
type Notifier interface {
	Notify(ctx context.Context, r services.Reminder) error
}

// SchedulerConfig holds configuration for the job scheduler
type SchedulerConfig struct {
	// Interval is how often amortization and billing run (default: 1h)
	Interval time.Duration

	// ReminderDaysAhead is how far ahead reminders look (default: 2)
	ReminderDaysAhead int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:          time.Hour,
		ReminderDaysAhead: services.DefaultReminderDaysAhead,
	}
}

// JobScheduler runs the periodic jobs. Every run is safe to repeat:
// amortization and billing skip what is already booked, and reminders go
// out once per day per process.
type JobScheduler struct {
	amortizer Amortizer
	biller    Biller
	notifier  Notifier
	locker    joblock.Locker
	logger    *log.StructuredLogger
	config    SchedulerConfig
	now       func() time.Time

	remindedOn string

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewJobScheduler builds a scheduler. A nil locker takes no locks and a nil
// notifier only logs reminders.
func NewJobScheduler(amortizer Amortizer, biller Biller, notifier Notifier, locker joblock.Locker, logger *log.Logger, config SchedulerConfig) *JobScheduler {
	defaults := DefaultSchedulerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.ReminderDaysAhead <= 0 {
		config.ReminderDaysAhead = defaults.ReminderDaysAhead
	}
	if locker == nil {
		locker = joblock.Noop{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &JobScheduler{
		amortizer: amortizer,
		biller:    biller,
		notifier:  notifier,
		locker:    locker,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentScheduler)),
		config:    config,
		now:       time.Now,
	}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *JobScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("job scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)
	return nil
}

// Stop stops the loop and waits for the current run to finish. It is safe
// to call from several goroutines; each waits for the same loop to exit.
func (s *JobScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	if !s.stopping {
		s.stopping = true
		close(s.stopCh)
	}
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	if s.doneCh == doneCh {
		s.running = false
		s.stopping = false
	}
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the scheduling loop is active
func (s *JobScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *JobScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.RunOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job for the current clock. Reminders are sent at most
// once per calendar day.
func (s *JobScheduler) RunOnce(ctx context.Context) {
	today := core.DateOf(s.now())

	s.Amortize(ctx, today.Period())
	s.Bill(ctx, today)

	if s.remindedOn != today.String() {
		if err := s.Remind(ctx, today); err == nil {
			s.remindedOn = today.String()
		}
	}
}

// Amortize runs amortization for month under the job lock.
func (s *JobScheduler) Amortize(ctx context.Context, month core.Month) (services.AmortizationResult, error) {
	var result services.AmortizationResult
	_, err := joblock.Run(ctx, s.locker, joblock.Key(JobAmortize, month.String()), func(ctx context.Context) error {
		var err error
		result, err = s.amortizer.Run(ctx, &month)
		return err
	})
	s.logger.LogJob(ctx, JobAmortize, result.Processed, result.Total, err)
	return result, err
}

// Bill bills the subscriptions due on day under the job lock.
func (s *JobScheduler) Bill(ctx context.Context, day core.Date) (services.BillingResult, error) {
	var result services.BillingResult
	_, err := joblock.Run(ctx, s.locker, joblock.Key(JobBill, day.String()), func(ctx context.Context) error {
		var err error
		result, err = s.biller.ProcessBills(ctx, day)
		return err
	})
	s.logger.LogJob(ctx, JobBill, result.Processed, result.Total, err)
	return result, err
}

// Remind notifies owners of bills due ReminderDaysAhead days after day.
// A failed delivery is logged and does not stop the others.
func (s *JobScheduler) Remind(ctx context.Context, day core.Date) error {
	sent, total := 0, 0
	_, err := joblock.Run(ctx, s.locker, joblock.Key(JobRemind, day.String()), func(ctx context.Context) error {
		reminders, err := s.biller.CheckReminders(ctx, day, s.config.ReminderDaysAhead)
		if err != nil {
			return err
		}
		total = len(reminders)
		for _, r := range reminders {
			if err := s.notifier.Notify(ctx, r); err != nil {
				s.logger.LogError(ctx, "Failed to deliver reminder", err, log.ComponentScheduler, log.OpRemind,
					log.NewFields().WithPeriod(r.DueOn.Period().String(), r.OwnerID))
				continue
			}
			sent++
		}
		return nil
	})
	s.logger.LogJob(ctx, JobRemind, sent, total, err)
	return err
}
