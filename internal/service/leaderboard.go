package service

import (
	"context"

	"github.com/zodac/folding-stats/internal/domain"
)

type CategoryLeaderboard struct {
	Category domain.Category                       `json:"category"`
	Users    []domain.UserCategoryLeaderboardEntry `json:"users"`
}

// LeaderboardService ranks the cached competition summary.
type LeaderboardService struct {
	summaries *SummaryBuilder
}

func NewLeaderboardService(summaries *SummaryBuilder) *LeaderboardService {
	return &LeaderboardService{summaries: summaries}
}

func (s *LeaderboardService) Teams(ctx context.Context) ([]domain.TeamLeaderboardEntry, error) {
	summary, err := s.summaries.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return TeamLeaderboard(summary), nil
}

func (s *LeaderboardService) Categories(ctx context.Context) ([]CategoryLeaderboard, error) {
	summary, err := s.summaries.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return CategoryLeaderboards(summary), nil
}

func TeamLeaderboard(summary *domain.CompetitionSummary) []domain.TeamLeaderboardEntry {
	return domain.Rank(summary.Teams, func(t domain.TeamSummary) int64 {
		return t.MultipliedPoints
	})
}

// CategoryLeaderboards ranks active users within each category independently.
// Every category is present, even with no users in it.
func CategoryLeaderboards(summary *domain.CompetitionSummary) []CategoryLeaderboard {
	byCategory := make(map[domain.Category][]domain.CategoryUser)
	for _, team := range summary.Teams {
		for _, user := range team.ActiveUsers {
			byCategory[user.Category] = append(byCategory[user.Category], domain.CategoryUser{
				User:     user,
				TeamName: team.TeamName,
			})
		}
	}

	result := make([]CategoryLeaderboard, 0, len(byCategory))
	for _, category := range domain.Categories() {
		result = append(result, CategoryLeaderboard{
			Category: category,
			Users: domain.Rank(byCategory[category], func(u domain.CategoryUser) int64 {
				return u.User.MultipliedPoints
			}),
		})
	}
	return result
}
