package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zodac/folding-stats/internal/domain"
)

func TestUserService_Delete_RetiresStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.stats.Record(ctx, domain.NewCompetitionStats(1, f.now(), 500, 1000, 10)))

	require.NoError(t, f.userService().Delete(ctx, 1))

	retired, err := f.store.ListRetiredUsers(ctx)
	require.NoError(t, err)
	require.Len(t, retired, 1)
	assert.Equal(t, 1, retired[0].TeamID)
	assert.Equal(t, "Alpha AMD", retired[0].DisplayName)
	assert.Equal(t, int64(500), retired[0].Stats.Points)
	assert.Equal(t, int64(1000), retired[0].Stats.MultipliedPoints)
	assert.Equal(t, int64(10), retired[0].Stats.Units)
	assert.True(t, retired[0].IsPersisted())

	_, err = f.users.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.StateWriteExecuted, f.state.Current())

	summary, err := f.summaries.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), summary.Teams[0].MultipliedPoints, "retired stats still count for the team")
	assert.Empty(t, summary.Teams[0].ActiveUsers)
}

func TestUserService_Delete_FailedDeleteKeepsNoArchive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.stats.Record(ctx, domain.NewCompetitionStats(1, f.now(), 500, 1000, 10)))
	f.state.Transition(domain.StateAvailable)

	deleteErr := errors.New("database is locked")
	f.users.DeleteFunc = func(context.Context, int) error {
		return deleteErr
	}

	err := f.userService().Delete(ctx, 1)
	assert.ErrorIs(t, err, deleteErr)

	retired, err := f.store.ListRetiredUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, retired, "user still active, stats must not be archived as well")

	_, err = f.users.Get(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateAvailable, f.state.Current())
}

func TestUserService_Delete_NoStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.userService().Delete(ctx, 2))

	assert.NotContains(t, f.store.Trace(), "CreateRetiredUser")
	_, err := f.users.Get(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Delete_Unknown(t *testing.T) {
	f := newFixture()

	assert.ErrorIs(t, f.userService().Delete(context.Background(), 42), domain.ErrNotFound)
}

func TestUserService_Create(t *testing.T) {
	valid := domain.User{
		FoldingUserName: "alpha_wild",
		DisplayName:     "Alpha Wildcard",
		Passkey:         testPasskey,
		Category:        domain.CategoryWildcard,
		HardwareID:      2,
		TeamID:          1,
	}

	tests := []struct {
		name    string
		mutate  func(u *domain.User)
		wantErr error
	}{
		{name: "valid", mutate: func(*domain.User) {}},
		{name: "empty folding name", mutate: func(u *domain.User) { u.FoldingUserName = " " }, wantErr: domain.ErrValidation},
		{name: "short passkey", mutate: func(u *domain.User) { u.Passkey = "abc" }, wantErr: domain.ErrValidation},
		{name: "unknown category", mutate: func(u *domain.User) { u.Category = "INTEL_GPU" }, wantErr: domain.ErrValidation},
		{name: "unknown team", mutate: func(u *domain.User) { u.TeamID = 9 }, wantErr: domain.ErrValidation},
		{name: "unknown hardware", mutate: func(u *domain.User) { u.HardwareID = 9 }, wantErr: domain.ErrValidation},
		{name: "category does not permit hardware", mutate: func(u *domain.User) { u.Category = domain.CategoryAMDGPU }, wantErr: domain.ErrValidation},
		{name: "second captain", mutate: func(u *domain.User) { u.IsCaptain = true }, wantErr: domain.ErrConflict},
		{name: "category full", mutate: func(u *domain.User) {
			u.Category = domain.CategoryAMDGPU
			u.HardwareID = 1
		}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			user := valid
			tt.mutate(&user)

			created, err := f.userService().Create(context.Background(), user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, created.ID)
			assert.Equal(t, "01234567"+"************************", created.Passkey)
			assert.Equal(t, domain.StateWriteExecuted, f.state.Current())
		})
	}
}

func TestUserService_Update_KeepsMaskedPasskey(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.userService()

	user, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	user.DisplayName = "Renamed"

	_, err = svc.Update(ctx, user)
	require.NoError(t, err)

	stored, err := f.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testPasskey, stored.Passkey)
	assert.Equal(t, "Renamed", stored.DisplayName)
}

func TestValidateTeamComposition(t *testing.T) {
	captain := domain.User{ID: 1, DisplayName: "cap", Category: domain.CategoryAMDGPU, IsCaptain: true}
	nvidia := domain.User{ID: 2, Category: domain.CategoryNvidiaGPU}
	wildcard := domain.User{ID: 3, Category: domain.CategoryWildcard}

	tests := []struct {
		name      string
		user      domain.User
		teammates []domain.User
		wantErr   error
	}{
		{name: "empty team", user: captain},
		{name: "updating self is not a conflict", user: captain, teammates: []domain.User{captain, nvidia}},
		{name: "full roster", user: domain.User{ID: 4, Category: domain.CategoryWildcard}, teammates: []domain.User{captain, nvidia, wildcard}, wantErr: domain.ErrValidation},
		{name: "captain taken", user: domain.User{ID: 4, Category: domain.CategoryWildcard, IsCaptain: true}, teammates: []domain.User{captain}, wantErr: domain.ErrConflict},
		{name: "category taken", user: domain.User{ID: 4, Category: domain.CategoryNvidiaGPU}, teammates: []domain.User{nvidia}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTeamComposition(tt.user, tt.teammates)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTeamService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := NewTeamService(f.teams, f.state, zerolog.Nop())

	_, err := svc.Create(ctx, domain.Team{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	created, err := svc.Create(ctx, domain.Team{Name: "Gamma"})
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)
	assert.Equal(t, domain.StateWriteExecuted, f.state.Current())

	assert.ErrorIs(t, svc.Delete(ctx, 99), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, created.ID))
}
