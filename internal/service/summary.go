package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/cache"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

// SummaryBuilder serves the competition-wide summary. Reads are answered
// from the cache unless a stats write has happened since it was built.
type SummaryBuilder struct {
	teams    TeamStore
	users    UserStore
	hardware HardwareStore
	store    StatsStore
	stats    *StatsService
	caches   *cache.Caches
	state    *state.Holder
	logger   zerolog.Logger

	mu sync.Mutex
}

func NewSummaryBuilder(teams TeamStore, users UserStore, hardware HardwareStore, store StatsStore, stats *StatsService, caches *cache.Caches, st *state.Holder, logger zerolog.Logger) *SummaryBuilder {
	return &SummaryBuilder{
		teams:    teams,
		users:    users,
		hardware: hardware,
		store:    store,
		stats:    stats,
		caches:   caches,
		state:    st,
		logger:   logger,
	}
}

func (b *SummaryBuilder) Summary(ctx context.Context) (*domain.CompetitionSummary, error) {
	if summary, ok := b.cached(); ok {
		return summary, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// another reader may have rebuilt it while we waited
	if summary, ok := b.cached(); ok {
		return summary, nil
	}
	return b.build(ctx)
}

func (b *SummaryBuilder) cached() (*domain.CompetitionSummary, bool) {
	if b.state.Current() == domain.StateWriteExecuted {
		return nil, false
	}
	return b.caches.GetSummary()
}

func (b *SummaryBuilder) build(ctx context.Context) (*domain.CompetitionSummary, error) {
	start := time.Now()
	generation := b.state.Generation()

	teams, err := b.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	users, err := b.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	retired, err := b.store.ListRetiredUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list retired users: %w", err)
	}
	hardware, err := b.hardware.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hardware: %w", err)
	}

	hardwareByID := make(map[int]domain.Hardware, len(hardware))
	for _, h := range hardware {
		hardwareByID[h.ID] = h
	}
	usersByTeam := make(map[int][]domain.User, len(teams))
	for _, u := range users {
		usersByTeam[u.TeamID] = append(usersByTeam[u.TeamID], u)
	}
	retiredByTeam := make(map[int][]domain.RetiredUserStats, len(teams))
	for _, r := range retired {
		retiredByTeam[r.TeamID] = append(retiredByTeam[r.TeamID], r)
	}

	teamSummaries := make([]domain.TeamSummary, 0, len(teams))
	for _, team := range teams {
		summary, err := b.teamSummary(ctx, team, usersByTeam[team.ID], retiredByTeam[team.ID], hardwareByID)
		if err != nil {
			return nil, err
		}
		teamSummaries = append(teamSummaries, summary)
	}

	summary := domain.NewCompetitionSummary(teamSummaries, time.Now().UTC())

	// cache before state, so AVAILABLE is never seen next to a stale summary.
	// A write that landed during the build keeps WRITE_EXECUTED for the next read.
	b.caches.PutSummary(summary)
	if !b.state.TransitionFromGeneration(generation, domain.StateAvailable, domain.StateWriteExecuted, domain.StateStarting) {
		b.logger.Debug().Str("state", string(b.state.Current())).Msg("summary built but not marked available")
	}

	b.logger.Info().
		Int("teams", len(teamSummaries)).
		Int("users", len(users)).
		Int("retired_users", len(retired)).
		Dur("duration", time.Since(start)).
		Msg("competition summary built")
	return summary, nil
}

func (b *SummaryBuilder) teamSummary(ctx context.Context, team domain.Team, users []domain.User, retired []domain.RetiredUserStats, hardware map[int]domain.Hardware) (domain.TeamSummary, error) {
	active := make([]domain.UserSummary, 0, len(users))
	captainName := ""

	for _, user := range users {
		hw, ok := hardware[user.HardwareID]
		if !ok {
			return domain.TeamSummary{}, domain.NotFound("hardware", user.HardwareID)
		}
		stats, err := b.stats.CurrentStats(ctx, user, hw)
		if err != nil {
			return domain.TeamSummary{}, fmt.Errorf("failed to get stats for user %d: %w", user.ID, err)
		}
		active = append(active, domain.NewUserSummary(user, hw, stats))

		if user.IsCaptain {
			captainName = user.DisplayName
		}
	}

	if captainName == "" {
		b.logger.Warn().Int("team_id", team.ID).Str("team", team.Name).Msg("no captain found for team")
	}

	retiredSummaries := make([]domain.RetiredUserSummary, 0, len(retired))
	for _, r := range retired {
		retiredSummaries = append(retiredSummaries, domain.NewRetiredUserSummary(r))
	}

	return domain.NewTeamSummary(team, captainName, active, retiredSummaries), nil
}
