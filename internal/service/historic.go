package service

import (
	"context"
	"errors"
	"time"

	"github.com/zodac/folding-stats/internal/domain"
)

type HistoricStats struct {
	Start            time.Time `json:"start"`
	Points           int64     `json:"points"`
	MultipliedPoints int64     `json:"multipliedPoints"`
	Units            int64     `json:"units"`
}

// HistoricStatsService rolls the hourly competition stats of a user up into
// per-hour, per-day and per-month contributions.
type HistoricStatsService struct {
	users UserStore
	store StatsStore
}

func NewHistoricStatsService(users UserStore, store StatsStore) *HistoricStatsService {
	return &HistoricStatsService{users: users, store: store}
}

func (s *HistoricStatsService) Hourly(ctx context.Context, userID int, day time.Time) ([]HistoricStats, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return s.rollup(ctx, userID, from, from.AddDate(0, 0, 1), func(t time.Time) time.Time {
		return t.Truncate(time.Hour)
	})
}

func (s *HistoricStatsService) Daily(ctx context.Context, userID int, year int, month time.Month) ([]HistoricStats, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.rollup(ctx, userID, from, from.AddDate(0, 1, 0), func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
}

func (s *HistoricStatsService) Monthly(ctx context.Context, userID int, year int) ([]HistoricStats, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return s.rollup(ctx, userID, from, from.AddDate(1, 0, 0), func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	})
}

func (s *HistoricStatsService) rollup(ctx context.Context, userID int, from, to time.Time, bucket func(time.Time) time.Time) ([]HistoricStats, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListHourlyStats(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.GetHourlyStatsBefore(ctx, userID, from)
	if errors.Is(err, domain.ErrNotFound) {
		previous = domain.EmptyCompetitionStats(userID)
	} else if err != nil {
		return nil, err
	}

	return rollupEntries(entries, previous, bucket), nil
}

// rollupEntries takes the last cumulative entry of each bucket and reports the
// change from the bucket before it. A drop means a new competition period
// started, so the new cumulative value is the contribution.
func rollupEntries(entries []domain.CompetitionStats, previous domain.CompetitionStats, bucket func(time.Time) time.Time) []HistoricStats {
	result := []HistoricStats{}
	if len(entries) == 0 {
		return result
	}

	var lasts []domain.CompetitionStats
	var starts []time.Time
	for _, e := range entries {
		start := bucket(e.Timestamp.UTC())
		if n := len(starts); n > 0 && starts[n-1].Equal(start) {
			lasts[n-1] = e
			continue
		}
		starts = append(starts, start)
		lasts = append(lasts, e)
	}

	for i, last := range lasts {
		result = append(result, HistoricStats{
			Start:            starts[i],
			Points:           contribution(last.Points, previous.Points, last.MultipliedPoints < previous.MultipliedPoints),
			MultipliedPoints: contribution(last.MultipliedPoints, previous.MultipliedPoints, last.MultipliedPoints < previous.MultipliedPoints),
			Units:            contribution(last.Units, previous.Units, last.MultipliedPoints < previous.MultipliedPoints),
		})
		previous = last
	}
	return result
}

func contribution(current, previous int64, periodReset bool) int64 {
	if periodReset {
		return current
	}
	return max(current-previous, 0)
}
