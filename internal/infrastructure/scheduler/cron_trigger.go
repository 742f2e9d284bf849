// Package scheduler runs the reminder job on a business-hours schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/assetflow/backend/internal/application/reminder"
	"go.uber.org/zap"
)

// Runner performs one reminder pass
type Runner interface {
	Run(ctx context.Context) (reminder.RunResult, error)
}

// TriggerConfig holds configuration for the reminder trigger
type TriggerConfig struct {
	// Interval is the spacing between passes, aligned to the clock (hourly by default)
	Interval time.Duration
	// StartHour is the first business hour (inclusive), EndHour the last (exclusive)
	StartHour int
	EndHour   int
	// WeekdaysOnly skips Saturday and Sunday
	WeekdaysOnly bool
	Location     *time.Location
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
	// RunTimeout bounds a single pass
	RunTimeout time.Duration
}

// DefaultTriggerConfig returns hourly passes from 9 to 18 on weekdays
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		Interval:      time.Hour,
		StartHour:     9,
		EndHour:       18,
		WeekdaysOnly:  true,
		Location:      time.Local,
		CheckInterval: time.Minute,
		RunTimeout:    5 * time.Minute,
	}
}

// Validate checks the window and intervals
func (c TriggerConfig) Validate() error {
	if c.Interval <= 0 || c.CheckInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	}
	if c.StartHour < 0 || c.EndHour > 24 || c.StartHour >= c.EndHour {
		return fmt.Errorf("%w: business hours %d-%d", ErrInvalidConfig, c.StartHour, c.EndHour)
	}
	return nil
}

// InBusinessHours reports whether t falls inside the configured window
func (c TriggerConfig) InBusinessHours(t time.Time) bool {
	if c.Location != nil {
		t = t.In(c.Location)
	}
	if c.WeekdaysOnly && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
		return false
	}
	return t.Hour() >= c.StartHour && t.Hour() < c.EndHour
}

// ReminderTrigger fires the reminder job once per interval slot during
// business hours.
type ReminderTrigger struct {
	config TriggerConfig
	runner Runner
	logger *zap.Logger
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool
	lastSlot  time.Time
}

// NewReminderTrigger creates a new reminder trigger
func NewReminderTrigger(config TriggerConfig, runner Runner, logger *zap.Logger) (*ReminderTrigger, error) {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 5 * time.Minute
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReminderTrigger{config: config, runner: runner, logger: logger, now: time.Now}, nil
}

// Start starts the trigger loop
func (c *ReminderTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Reminder trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Int("start_hour", c.config.StartHour),
		zap.Int("end_hour", c.config.EndHour),
		zap.Bool("weekdays_only", c.config.WeekdaysOnly),
	)
	return nil
}

// Stop stops the trigger and waits for a running pass or ctx expiry
func (c *ReminderTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Reminder trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ReminderTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs a pass when the current slot is inside business hours
// and has not fired yet. It reports whether a pass ran.
func (c *ReminderTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now().In(c.config.Location)
	if !c.config.InBusinessHours(now) {
		return false
	}
	slot := now.Truncate(c.config.Interval)

	c.mu.Lock()
	if !c.lastSlot.IsZero() && !slot.After(c.lastSlot) {
		c.mu.Unlock()
		return false
	}
	c.lastSlot = slot
	c.mu.Unlock()

	if _, err := c.RunNow(ctx); err != nil {
		c.logger.Error("Reminder pass failed", zap.Error(err))
	}
	return true
}

// RunNow runs a pass immediately unless one is already in progress
func (c *ReminderTrigger) RunNow(ctx context.Context) (reminder.RunResult, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return reminder.RunResult{}, ErrAlreadyRunning
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.RunTimeout)
	defer cancel()
	return c.runner.Run(ctx)
}
