package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
)

type MonthlyResult struct {
	Year         int                           `json:"year"`
	Month        time.Month                    `json:"month"`
	Summary      *domain.CompetitionSummary    `json:"summary"`
	Teams        []domain.TeamLeaderboardEntry `json:"teamLeaderboard"`
	Categories   []CategoryLeaderboard         `json:"userCategoryLeaderboard"`
	RecordedTime time.Time                     `json:"recordedTime"`
}

// ResultsService archives the final standings of each month.
type ResultsService struct {
	results   ResultsStore
	summaries *SummaryBuilder
	logger    zerolog.Logger
}

func NewResultsService(results ResultsStore, summaries *SummaryBuilder, logger zerolog.Logger) *ResultsService {
	return &ResultsService{results: results, summaries: summaries, logger: logger}
}

// StoreIfLastDayOfMonth lets a "28-31" day-of-month schedule behave like a
// last-day-of-month one.
func (s *ResultsService) StoreIfLastDayOfMonth(ctx context.Context, now time.Time) error {
	if now.AddDate(0, 0, 1).Day() != 1 {
		s.logger.Debug().Time("now", now).Msg("not the last day of the month, skipping result storage")
		return nil
	}
	return s.Store(ctx, now)
}

// Store saves the current standings as the result of the month containing now.
func (s *ResultsService) Store(ctx context.Context, now time.Time) error {
	summary, err := s.summaries.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}

	result := MonthlyResult{
		Year:         now.Year(),
		Month:        now.Month(),
		Summary:      summary,
		Teams:        TeamLeaderboard(summary),
		Categories:   CategoryLeaderboards(summary),
		RecordedTime: time.Now().UTC(),
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := s.results.Save(ctx, result.Year, result.Month, payload); err != nil {
		return err
	}
	s.logger.Info().Int("year", result.Year).Str("month", result.Month.String()).Msg("monthly result stored")
	return nil
}

func (s *ResultsService) Get(ctx context.Context, year int, month time.Month) (json.RawMessage, error) {
	if month < time.January || month > time.December {
		return nil, domain.NewValidationError("month", "must be between 1 and 12, got %d", month)
	}
	payload, err := s.results.Get(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}
