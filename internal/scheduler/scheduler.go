package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CycleFunc runs one fetch cycle at its scheduled time.
type CycleFunc func(ctx context.Context, scheduled time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
}

// Scheduler drives fetch cycles at a fixed cadence. A failed cycle is
// logged and the next one runs on schedule; the pipeline's watermark makes
// retries safe.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the cycle function at each interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context, cycle CycleFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	next := s.nextRun(time.Now().UTC())
	for {
		if time.Until(next) < 0 {
			next = s.nextRun(time.Now().UTC())
		}

		s.logger.Debug().Time("next_run", next).Msg("waiting for next cycle")
		if err := sleep(ctx, time.Until(next)); err != nil {
			return err
		}

		s.logger.Info().Time("scheduled", next).Msg("executing fetch cycle")
		if err := cycle(ctx, next); err != nil {
			s.logger.Error().Err(err).Time("scheduled", next).Msg("fetch cycle failed")
		}

		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) nextRun(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	aligned := now.Truncate(s.opts.Interval)
	if !aligned.After(now) {
		aligned = aligned.Add(s.opts.Interval)
	}
	return aligned
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
