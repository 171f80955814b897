package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

type TeamService struct {
	teams  TeamStore
	state  *state.Holder
	logger zerolog.Logger
}

func NewTeamService(teams TeamStore, st *state.Holder, logger zerolog.Logger) *TeamService {
	return &TeamService{teams: teams, state: st, logger: logger}
}

func (s *TeamService) List(ctx context.Context) ([]domain.Team, error) {
	return s.teams.List(ctx)
}

func (s *TeamService) Get(ctx context.Context, id int) (domain.Team, error) {
	return s.teams.Get(ctx, id)
}

func (s *TeamService) Create(ctx context.Context, team domain.Team) (domain.Team, error) {
	team.ID = 0
	if strings.TrimSpace(team.Name) == "" {
		return domain.Team{}, domain.NewValidationError("teamName", "must not be empty")
	}
	created, err := s.teams.Create(ctx, team)
	if err != nil {
		return domain.Team{}, err
	}
	s.logger.Info().Int("team_id", created.ID).Str("name", created.Name).Msg("team created")
	s.state.Transition(domain.StateWriteExecuted)
	return created, nil
}

func (s *TeamService) Update(ctx context.Context, team domain.Team) (domain.Team, error) {
	if strings.TrimSpace(team.Name) == "" {
		return domain.Team{}, domain.NewValidationError("teamName", "must not be empty")
	}
	updated, err := s.teams.Update(ctx, team)
	if err != nil {
		return domain.Team{}, err
	}
	s.state.Transition(domain.StateWriteExecuted)
	return updated, nil
}

// Delete fails with ErrConflict while users still belong to the team.
func (s *TeamService) Delete(ctx context.Context, id int) error {
	if err := s.teams.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int("team_id", id).Msg("team deleted")
	s.state.Transition(domain.StateWriteExecuted)
	return nil
}
