package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/cache"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

var passkeyPattern = regexp.MustCompile(`^[a-zA-Z0-9]{32}$`)

type UserService struct {
	users    UserStore
	teams    TeamStore
	hardware HardwareStore
	stats    *StatsService
	caches   *cache.Caches
	state    *state.Holder
	logger   zerolog.Logger
}

func NewUserService(users UserStore, teams TeamStore, hardware HardwareStore, stats *StatsService, caches *cache.Caches, st *state.Holder, logger zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		teams:    teams,
		hardware: hardware,
		stats:    stats,
		caches:   caches,
		state:    st,
		logger:   logger,
	}
}

// List returns all users with their passkeys masked.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].WithoutPasskey()
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int) (domain.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return user.WithoutPasskey(), nil
}

func (s *UserService) Create(ctx context.Context, user domain.User) (domain.User, error) {
	user.ID = 0
	if err := s.validate(ctx, user); err != nil {
		return domain.User{}, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.Info().Int("user_id", created.ID).Str("folding_username", created.FoldingUserName).Int("team_id", created.TeamID).Msg("user created")
	s.state.Transition(domain.StateWriteExecuted)
	return created.WithoutPasskey(), nil
}

// Update replaces a user. Moving a user to another team or hardware keeps
// their baseline, so stats already earned follow them.
func (s *UserService) Update(ctx context.Context, user domain.User) (domain.User, error) {
	existing, err := s.users.Get(ctx, user.ID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Passkey == "" || user.Passkey == existing.MaskedPasskey() {
		user.Passkey = existing.Passkey
	}
	if err := s.validate(ctx, user); err != nil {
		return domain.User{}, err
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	if existing.HardwareID != updated.HardwareID || existing.Passkey != updated.Passkey {
		s.caches.CompetitionStats.Delete(updated.ID)
	}
	s.logger.Info().Int("user_id", updated.ID).Msg("user updated")
	s.state.Transition(domain.StateWriteExecuted)
	return updated.WithoutPasskey(), nil
}

// Delete removes a user. Their last competition stats are archived against
// their team in the same write, unless they never earned anything.
func (s *UserService) Delete(ctx context.Context, id int) error {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	hw, err := s.hardware.Get(ctx, user.HardwareID)
	if err != nil {
		return err
	}

	stats, err := s.stats.CurrentStats(ctx, user, hw)
	if err != nil {
		return fmt.Errorf("failed to read stats of user %d: %w", id, err)
	}

	if stats.IsEmpty() {
		s.logger.Warn().Int("user_id", id).Msg("no stats for deleted user, nothing to retire")
		if err := s.users.Delete(ctx, id); err != nil {
			return err
		}
	} else {
		retired, err := s.users.Retire(ctx, id, domain.NewRetiredUserStats(user.TeamID, user.DisplayName, stats))
		if err != nil {
			return fmt.Errorf("failed to retire user %d: %w", id, err)
		}
		s.logger.Info().
			Int("user_id", id).
			Int("retired_user_id", retired.ID).
			Int("team_id", retired.TeamID).
			Int64("multiplied_points", retired.Stats.MultipliedPoints).
			Msg("user retired")
	}

	s.caches.InvalidateUser(id)
	s.state.Transition(domain.StateWriteExecuted)
	return nil
}

func (s *UserService) validate(ctx context.Context, user domain.User) error {
	if strings.TrimSpace(user.FoldingUserName) == "" {
		return domain.NewValidationError("foldingUserName", "must not be empty")
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return domain.NewValidationError("displayName", "must not be empty")
	}
	if !passkeyPattern.MatchString(user.Passkey) {
		return domain.NewValidationError("passkey", "must be 32 alphanumeric characters")
	}
	if _, ok := domain.ParseCategory(string(user.Category)); !ok {
		return domain.NewValidationError("category", "unknown category %q", user.Category)
	}

	if _, err := s.teams.Get(ctx, user.TeamID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("teamId", "team %d does not exist", user.TeamID)
		}
		return err
	}

	hw, err := s.hardware.Get(ctx, user.HardwareID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("hardwareId", "hardware %d does not exist", user.HardwareID)
		}
		return err
	}
	if !user.Category.PermitsHardware(hw) {
		return domain.NewValidationError("category", "%s does not permit %s %s hardware", user.Category, hw.Make, hw.Type)
	}

	teammates, err := s.users.ListByTeam(ctx, user.TeamID)
	if err != nil {
		return err
	}
	return validateTeamComposition(user, teammates)
}

// validateTeamComposition checks the roster size, per-category caps and the
// single captain rule, ignoring the user's own current entry.
func validateTeamComposition(user domain.User, teammates []domain.User) error {
	others := make([]domain.User, 0, len(teammates))
	for _, t := range teammates {
		if t.ID != user.ID {
			others = append(others, t)
		}
	}

	if len(others) >= domain.MaximumPermittedAmountForAllCategories() {
		return domain.NewValidationError("teamId", "team already has the maximum of %d users", domain.MaximumPermittedAmountForAllCategories())
	}

	inCategory := 0
	for _, o := range others {
		if o.Category == user.Category {
			inCategory++
		}
		if user.IsCaptain && o.IsCaptain {
			return fmt.Errorf("team already has captain %q: %w", o.DisplayName, domain.ErrConflict)
		}
	}
	if inCategory >= user.Category.MaxPerTeam() {
		return domain.NewValidationError("category", "team already has %d %s user(s)", inCategory, user.Category)
	}
	return nil
}
