package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zodac/folding-stats/internal/config"
	"github.com/zodac/folding-stats/internal/constants"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

var ErrUpdateInProgress = errors.New("stats update already in progress")

// StatsParser pulls the latest totals of every user from the stats source and
// turns them into competition stats.
type StatsParser struct {
	users       UserStore
	hardware    HardwareStore
	source      StatsSource
	stats       *StatsService
	state       *state.Holder
	concurrency int
	logger      zerolog.Logger

	pullMu  sync.Mutex
	running atomic.Bool
}

func NewStatsParser(cfg *config.Config, users UserStore, hardware HardwareStore, source StatsSource, stats *StatsService, st *state.Holder, logger zerolog.Logger) *StatsParser {
	return &StatsParser{
		users:       users,
		hardware:    hardware,
		source:      source,
		stats:       stats,
		state:       st,
		concurrency: cfg.StatsParseConcurrency,
		logger:      logger,
	}
}

// UpdateStats is the scheduled hourly update. It moves the system state
// through UPDATING_STATS to WRITE_EXECUTED so the next read rebuilds the
// summary. Overlapping calls are rejected with ErrUpdateInProgress, and calls
// made while a reset is running with ErrResetInProgress.
func (p *StatsParser) UpdateStats(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrUpdateInProgress
	}
	defer p.running.Store(false)

	if !p.state.TransitionFrom(domain.StateUpdatingStats, domain.StateStarting, domain.StateAvailable, domain.StateWriteExecuted) {
		return ErrResetInProgress
	}
	err := p.PullAll(ctx)
	// a reset that started meanwhile owns the state until it finishes
	p.state.TransitionFrom(domain.StateWriteExecuted, domain.StateUpdatingStats)
	return err
}

// UpdateStatsAsync starts UpdateStats in the background and returns at once.
func (p *StatsParser) UpdateStatsAsync() {
	go func() {
		if err := p.UpdateStats(context.Background()); err != nil {
			p.logger.Warn().Err(err).Msg("background stats update failed")
		}
	}()
}

// PullAll fetches and stores stats for every user, returning only once every
// user has been processed. It does not touch the system state. A user whose
// stats cannot be fetched keeps their previous value.
func (p *StatsParser) PullAll(ctx context.Context) error {
	p.pullMu.Lock()
	defer p.pullMu.Unlock()

	runID, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate run id: %w", err)
	}
	logger := p.logger.With().Str("run_id", runID).Logger()
	start := time.Now()

	users, err := p.users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		logger.Warn().Msg("no users configured, no stats to pull")
		return nil
	}

	hardware, err := p.hardwareByID(ctx)
	if err != nil {
		return err
	}

	var updated, skipped atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, user := range users {
		g.Go(func() error {
			hw, ok := hardware[user.HardwareID]
			if !ok {
				logger.Warn().Int("user_id", user.ID).Int("hardware_id", user.HardwareID).Msg("user has unknown hardware, skipping")
				skipped.Add(1)
				return nil
			}
			if err := p.pullUser(gCtx, logger, user, hw); err != nil {
				logger.Warn().Err(err).Int("user_id", user.ID).Str("folding_username", user.FoldingUserName).Msg("failed to update user stats")
				skipped.Add(1)
				return nil
			}
			updated.Add(1)
			return nil
		})
	}
	// per-user failures are logged and never returned
	_ = g.Wait()

	logger.Info().
		Int("users", len(users)).
		Int64("updated", updated.Load()).
		Int64("skipped", skipped.Load()).
		Dur("duration", time.Since(start)).
		Msg("stats pull completed")
	return nil
}

func (p *StatsParser) pullUser(ctx context.Context, logger zerolog.Logger, user domain.User, hw domain.Hardware) error {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	raw, err := p.source.GetTotalStats(apiCtx, user)
	if err != nil {
		return fmt.Errorf("failed to fetch total stats: %w", err)
	}

	total := domain.UserStats{UserID: user.ID, Timestamp: time.Now().UTC(), Stats: raw}
	if err := p.stats.RecordTotal(ctx, total); err != nil {
		return err
	}

	current, err := p.stats.Reconcile(ctx, user, hw, total)
	if err != nil {
		return err
	}
	if err := p.stats.Record(ctx, current); err != nil {
		return err
	}

	logger.Debug().
		Int("user_id", user.ID).
		Int64("points", current.Points).
		Int64("multiplied_points", current.MultipliedPoints).
		Int64("units", current.Units).
		Msg("user stats updated")
	return nil
}

func (p *StatsParser) hardwareByID(ctx context.Context) (map[int]domain.Hardware, error) {
	all, err := p.hardware.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hardware: %w", err)
	}
	byID := make(map[int]domain.Hardware, len(all))
	for _, h := range all {
		byID[h.ID] = h
	}
	return byID, nil
}
