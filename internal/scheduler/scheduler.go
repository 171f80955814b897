package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/zodac/folding-stats/internal/config"
	"github.com/zodac/folding-stats/internal/service"
)

type StatsUpdater interface {
	UpdateStats(ctx context.Context) error
}

type StatsResetter interface {
	Reset(ctx context.Context) error
}

type ResultStorer interface {
	StoreIfLastDayOfMonth(ctx context.Context, now time.Time) error
}

// Scheduler runs the periodic stats jobs. A job that is still running when
// its next slot comes up is skipped for that slot.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

func New(cfg *config.Config, parser *service.StatsParser, resetter *service.ResetCoordinator, results *service.ResultsService, logger zerolog.Logger) (*Scheduler, error) {
	return newScheduler(cfg, parser, resetter, results, logger)
}

func newScheduler(cfg *config.Config, updater StatsUpdater, resetter StatsResetter, results ResultStorer, logger zerolog.Logger) (*Scheduler, error) {
	cronLog := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger: logger,
	}

	jobs := []struct {
		enabled bool
		name    string
		spec    string
		run     func(ctx context.Context) error
	}{
		{cfg.EnableStatsParsing, "stats_parsing", cfg.StatsParsingCron, updater.UpdateStats},
		{cfg.EnableStatsReset, "stats_reset", cfg.StatsResetCron, resetter.Reset},
		{cfg.EnableResultStorage, "monthly_result", cfg.ResultStorageCron, func(ctx context.Context) error {
			return results.StoreIfLastDayOfMonth(ctx, time.Now().UTC())
		}},
	}

	for _, job := range jobs {
		if !job.enabled {
			logger.Info().Str("job", job.name).Msg("scheduled job disabled")
			continue
		}
		if _, err := s.cron.AddJob(job.spec, s.wrap(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", job.spec, job.name, err)
		}
		logger.Info().Str("job", job.name).Str("schedule", job.spec).Msg("scheduled job registered")
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) cron.Job {
	return cron.FuncJob(func() {
		start := time.Now()
		s.logger.Info().Str("job", name).Msg("scheduled job started")

		err := run(context.Background())
		switch {
		case errors.Is(err, service.ErrUpdateInProgress), errors.Is(err, service.ErrResetInProgress):
			s.logger.Info().Err(err).Str("job", name).Msg("scheduled job skipped")
		case err != nil:
			s.logger.Error().Err(err).Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job failed")
		default:
			s.logger.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job completed")
		}
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func Register(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
