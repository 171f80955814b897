package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/cache"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

var ErrResetInProgress = errors.New("stats reset already in progress")

// StatsPuller is the blocking stats pull the reset relies on.
type StatsPuller interface {
	PullAll(ctx context.Context) error
}

// ResetCoordinator runs the start-of-month reset that begins a new
// competition period.
type ResetCoordinator struct {
	puller StatsPuller
	users  UserStore
	store  StatsStore
	stats  *StatsService
	caches *cache.Caches
	state  *state.Holder
	logger zerolog.Logger

	running atomic.Bool
}

func NewResetCoordinator(puller *StatsParser, users UserStore, store StatsStore, stats *StatsService, caches *cache.Caches, st *state.Holder, logger zerolog.Logger) *ResetCoordinator {
	return newResetCoordinator(puller, users, store, stats, caches, st, logger)
}

func newResetCoordinator(puller StatsPuller, users UserStore, store StatsStore, stats *StatsService, caches *cache.Caches, st *state.Holder, logger zerolog.Logger) *ResetCoordinator {
	return &ResetCoordinator{
		puller: puller,
		users:  users,
		store:  store,
		stats:  stats,
		caches: caches,
		state:  st,
		logger: logger,
	}
}

type resetStep struct {
	name string
	run  func(ctx context.Context) error
}

// Reset pulls final stats, makes the latest totals everyone's new baseline,
// clears offsets and retired users, drops all caches and pulls again so the
// new period starts visibly at zero. A failing step stops the reset; steps
// already applied are not rolled back.
func (c *ResetCoordinator) Reset(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrResetInProgress
	}
	defer c.running.Store(false)

	start := time.Now()
	c.logger.Info().Msg("starting monthly stats reset")
	c.state.Transition(domain.StateResettingStats)
	// whatever happens, the next read must rebuild from the database
	defer c.state.Transition(domain.StateWriteExecuted)

	steps := []resetStep{
		{name: "final stats pull", run: c.puller.PullAll},
		{name: "reset initial stats", run: c.resetBaselines},
		{name: "clear offsets", run: c.stats.ClearOffsets},
		{name: "delete retired users", run: c.deleteRetiredUsers},
		{name: "invalidate caches", run: c.invalidateCaches},
		{name: "post-reset stats pull", run: c.puller.PullAll},
	}

	for i, step := range steps {
		c.logger.Debug().Int("step", i+1).Str("name", step.name).Msg("running reset step")
		if err := step.run(ctx); err != nil {
			c.logger.Warn().
				Err(err).
				Int("step", i+1).
				Str("name", step.name).
				Int("completed_steps", i).
				Msg("stats reset aborted, partially applied, manual re-run required")
			return fmt.Errorf("reset step %q: %w", step.name, err)
		}
	}

	c.logger.Info().Dur("duration", time.Since(start)).Msg("monthly stats reset completed")
	return nil
}

func (c *ResetCoordinator) resetBaselines(ctx context.Context) error {
	users, err := c.users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		c.logger.Error().Msg("no users configured, no initial stats to reset")
		return nil
	}

	n, err := c.stats.ResetBaselines(ctx, users)
	if err != nil {
		return err
	}
	c.logger.Info().Int("users", len(users)).Int("baselines", n).Msg("initial stats reset")
	return nil
}

func (c *ResetCoordinator) deleteRetiredUsers(ctx context.Context) error {
	n, err := c.store.DeleteAllRetiredUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete retired users: %w", err)
	}
	c.logger.Info().Int64("count", n).Msg("retired users deleted")
	return nil
}

func (c *ResetCoordinator) invalidateCaches(context.Context) error {
	c.caches.InvalidateAll()
	c.logger.Info().Msg("caches invalidated")
	return nil
}
