package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/cache"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

// StatsService produces a user's current competition stats from the stored
// baseline, latest total, offset and hardware multiplier.
type StatsService struct {
	store    StatsStore
	users    UserStore
	hardware HardwareStore
	caches   *cache.Caches
	state    *state.Holder
	logger   zerolog.Logger
}

func NewStatsService(store StatsStore, users UserStore, hardware HardwareStore, caches *cache.Caches, st *state.Holder, logger zerolog.Logger) *StatsService {
	return &StatsService{store: store, users: users, hardware: hardware, caches: caches, state: st, logger: logger}
}

// Reconcile computes competition stats for the given raw total. A user seen
// for the first time gets the total as baseline, so their first delta is zero.
func (s *StatsService) Reconcile(ctx context.Context, user domain.User, hw domain.Hardware, total domain.UserStats) (domain.CompetitionStats, error) {
	initial, err := s.initialStats(ctx, user.ID)
	if errors.Is(err, domain.ErrNotFound) {
		initial = domain.UserStats{UserID: user.ID, Timestamp: total.Timestamp, Stats: total.Stats}
		if err := s.store.UpsertInitialStats(ctx, initial); err != nil {
			return domain.CompetitionStats{}, fmt.Errorf("failed to store initial stats: %w", err)
		}
		s.caches.InitialStats.Put(user.ID, initial)
		s.logger.Info().
			Int("user_id", user.ID).
			Int64("points", initial.Stats.Points).
			Int64("units", initial.Stats.Units).
			Msg("initial stats established")
	} else if err != nil {
		return domain.CompetitionStats{}, err
	}

	offset, err := s.Offset(ctx, user.ID)
	if err != nil {
		return domain.CompetitionStats{}, err
	}

	return domain.Reconcile(total, initial, hw.Multiplier, offset), nil
}

// CurrentStats returns the latest known competition stats of a user, cache
// first, then the newest hourly entry, then a reconcile of the stored total.
// A user with no stats at all gets an empty value.
func (s *StatsService) CurrentStats(ctx context.Context, user domain.User, hw domain.Hardware) (domain.CompetitionStats, error) {
	if cached, ok := s.caches.CompetitionStats.Get(user.ID); ok {
		return cached, nil
	}

	latest, err := s.store.GetLatestHourlyStats(ctx, user.ID)
	if err == nil {
		s.caches.CompetitionStats.Put(user.ID, latest)
		return latest, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.CompetitionStats{}, err
	}

	total, err := s.totalStats(ctx, user.ID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug().Int("user_id", user.ID).Msg("no stats recorded yet for user")
		return domain.EmptyCompetitionStats(user.ID), nil
	}
	if err != nil {
		return domain.CompetitionStats{}, err
	}

	current, err := s.Reconcile(ctx, user, hw, total)
	if err != nil {
		return domain.CompetitionStats{}, err
	}
	s.caches.CompetitionStats.Put(user.ID, current)
	return current, nil
}

// Record persists freshly reconciled stats and makes them visible to readers.
func (s *StatsService) Record(ctx context.Context, stats domain.CompetitionStats) error {
	if err := s.store.CreateHourlyStats(ctx, stats); err != nil {
		return err
	}
	s.caches.CompetitionStats.Put(stats.UserID, stats)
	return nil
}

func (s *StatsService) Offset(ctx context.Context, userID int) (domain.StatsOffset, error) {
	if cached, ok := s.caches.Offsets.Get(userID); ok {
		return cached, nil
	}
	offset, err := s.store.GetOffset(ctx, userID)
	if err != nil {
		return domain.StatsOffset{}, err
	}
	s.caches.Offsets.Put(userID, offset)
	return offset, nil
}

// SetOffset stores a manual offset for a user, completed with the user's
// hardware multiplier, and re-applies it to the user's latest total.
func (s *StatsService) SetOffset(ctx context.Context, userID int, offset domain.StatsOffset) (domain.CompetitionStats, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.CompetitionStats{}, err
	}
	hw, err := s.hardware.Get(ctx, user.HardwareID)
	if err != nil {
		return domain.CompetitionStats{}, err
	}

	offset = offset.WithHardwareMultiplier(hw.Multiplier)
	if err := s.store.UpsertOffset(ctx, userID, offset); err != nil {
		return domain.CompetitionStats{}, fmt.Errorf("failed to store offset: %w", err)
	}
	s.caches.Offsets.Put(userID, offset)
	s.caches.CompetitionStats.Delete(userID)

	s.logger.Info().
		Int("user_id", userID).
		Int64("points_offset", offset.PointsOffset).
		Int64("multiplied_points_offset", offset.MultipliedPointsOffset).
		Int64("units_offset", offset.UnitsOffset).
		Msg("stats offset updated")

	current := domain.EmptyCompetitionStats(userID)
	total, err := s.totalStats(ctx, userID)
	switch {
	case err == nil:
		total.Timestamp = time.Now().UTC()
		current, err = s.Reconcile(ctx, user, hw, total)
		if err != nil {
			return domain.CompetitionStats{}, err
		}
		if err := s.Record(ctx, current); err != nil {
			return domain.CompetitionStats{}, err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return domain.CompetitionStats{}, err
	}

	s.state.Transition(domain.StateWriteExecuted)
	return current, nil
}

// ClearOffsets removes every manual offset.
func (s *StatsService) ClearOffsets(ctx context.Context) error {
	n, err := s.store.DeleteAllOffsets(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear offsets: %w", err)
	}
	s.caches.Offsets.Clear()
	s.logger.Info().Int64("count", n).Msg("stats offsets cleared")
	return nil
}

func (s *StatsService) RecordTotal(ctx context.Context, total domain.UserStats) error {
	if err := s.store.UpsertTotalStats(ctx, total); err != nil {
		return fmt.Errorf("failed to store total stats: %w", err)
	}
	s.caches.TotalStats.Put(total.UserID, total)
	return nil
}

func (s *StatsService) totalStats(ctx context.Context, userID int) (domain.UserStats, error) {
	if cached, ok := s.caches.TotalStats.Get(userID); ok {
		return cached, nil
	}
	total, err := s.store.GetTotalStats(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	s.caches.TotalStats.Put(userID, total)
	return total, nil
}

func (s *StatsService) initialStats(ctx context.Context, userID int) (domain.UserStats, error) {
	if cached, ok := s.caches.InitialStats.Get(userID); ok {
		return cached, nil
	}
	initial, err := s.store.GetInitialStats(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	s.caches.InitialStats.Put(userID, initial)
	return initial, nil
}

// UserStats returns the current competition stats of one user.
func (s *StatsService) UserStats(ctx context.Context, userID int) (domain.CompetitionStats, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.CompetitionStats{}, err
	}
	hw, err := s.hardware.Get(ctx, user.HardwareID)
	if err != nil {
		return domain.CompetitionStats{}, err
	}
	return s.CurrentStats(ctx, user, hw)
}

// ResetBaselines makes each user's latest raw total their new initial stats,
// which zeroes their competition delta. Users without a total are skipped.
func (s *StatsService) ResetBaselines(ctx context.Context, users []domain.User) (int, error) {
	now := time.Now().UTC()
	baselines := make([]domain.UserStats, 0, len(users))

	for _, user := range users {
		total, err := s.totalStats(ctx, user.ID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Int("user_id", user.ID).Msg("no total stats for user, baseline left unchanged")
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read total stats for user %d: %w", user.ID, err)
		}
		baselines = append(baselines, domain.UserStats{UserID: user.ID, Timestamp: now, Stats: total.Stats})
	}

	if err := s.store.ReplaceInitialStats(ctx, baselines); err != nil {
		return 0, fmt.Errorf("failed to store initial stats: %w", err)
	}
	for _, b := range baselines {
		s.caches.InitialStats.Put(b.UserID, b)
		// readers must not fall back to last period's hourly stats
		if err := s.Record(ctx, domain.NewCompetitionStats(b.UserID, now, 0, 0, 0)); err != nil {
			return 0, fmt.Errorf("failed to zero stats for user %d: %w", b.UserID, err)
		}
	}
	return len(baselines), nil
}
