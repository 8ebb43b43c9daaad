package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"poolArbitrage/internal/model"
)

// DefaultSchedule fires every 30 seconds.
const DefaultSchedule = "*/30 * * * * *"

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a cron expression with an optional seconds field.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule: %w", model.ErrConfiguration)
	}
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w: %w", spec, model.ErrConfiguration, err)
	}
	return schedule, nil
}

// Ticker is the unit of work the scheduler fires.
type Ticker interface {
	Tick(ctx context.Context) (Result, error)
}

// Scheduler fires ticks on a cron schedule and never overlaps them.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	ticker   Ticker
	logger   *zap.Logger
}

func NewScheduler(spec string, ticker Ticker, logger *zap.Logger) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	if ticker == nil {
		return nil, fmt.Errorf("scheduler: ticker is nil: %w", model.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{schedule: schedule, spec: spec, ticker: ticker, logger: logger}, nil
}

// Run blocks until ctx is cancelled, then waits for a running tick to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	cronLogger := zapCronLogger{logger: s.logger.Sugar()}
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ticker.Tick(ctx); err != nil {
			s.logger.Warn("tick error", zap.Error(err))
		}
	}))

	s.logger.Info("scheduler start", zap.String("schedule", s.spec))
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
