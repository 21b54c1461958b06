package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsClassifier/internal/ports"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronScheduler drives one named cycle on its own robfig/cron instance.
// The job runs once on Start and then on every tick; overlapping ticks are skipped.
type CronScheduler struct {
	name     string
	schedule cron.Schedule
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	initial sync.WaitGroup
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses a standard five-field cron expression or a descriptor such as "@every 1h".
func NewCronScheduler(name, spec string, loc *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse %s schedule %q: %w", name, spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{
		name:     name,
		schedule: schedule,
		location: loc,
		logger:   logger,
	}, nil
}

// Start registers job and runs it immediately in the background.
// Every invocation receives the cycle context, which Stop cancels.
func (c *CronScheduler) Start(ctx context.Context, job func(context.Context, time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return fmt.Errorf("%s cycle already started", c.name)
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	log := cronLogger{logger: c.logger.With("cycle", c.name)}
	wrapped := cron.NewChain(cron.Recover(log), cron.SkipIfStillRunning(log)).Then(cron.FuncJob(func() {
		if cycleCtx.Err() != nil {
			return
		}
		job(cycleCtx, time.Now().In(c.location))
	}))

	engine := cron.New(cron.WithLocation(c.location), cron.WithParser(parser))
	engine.Schedule(c.schedule, wrapped)
	engine.Start()

	c.cron = engine
	c.cancel = cancel

	c.initial.Add(1)
	go func() {
		defer c.initial.Done()
		wrapped.Run()
	}()

	c.logger.Info("cycle started", "cycle", c.name, "next_run", c.schedule.Next(time.Now().In(c.location)))
	return nil
}

// Stop cancels the cycle context and waits for in-flight runs until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	engine, cancel := c.cron, c.cancel
	c.cron, c.cancel = nil, nil
	c.mu.Unlock()

	if engine == nil {
		return nil
	}

	cancel()
	cronDone := engine.Stop()

	initialDone := make(chan struct{})
	go func() {
		c.initial.Wait()
		close(initialDone)
	}()

	for _, done := range []<-chan struct{}{cronDone.Done(), initialDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("stop %s cycle: %w", c.name, ctx.Err())
		}
	}
	c.logger.Info("cycle stopped", "cycle", c.name)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if err == nil {
		err = errors.New("unknown")
	}
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
