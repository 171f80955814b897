package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zodac/folding-stats/internal/domain"
)

func seedStats(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	f.source.set("alpha_amd", 1000, 10)
	f.source.set("beta_nvidia", 1000, 10)
	require.NoError(t, f.parser.PullAll(ctx))
	f.source.set("alpha_amd", 1050, 12)
	f.source.set("beta_nvidia", 1040, 11)
	require.NoError(t, f.parser.PullAll(ctx))
}

func TestSummaryBuilder_Summary(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedStats(t, f)
	_, err := f.store.CreateRetiredUser(ctx, domain.NewRetiredUserStats(2, "gone", domain.NewCompetitionStats(9, time.Now().UTC(), 500, 1000, 10)))
	require.NoError(t, err)

	summary, err := f.summaries.Summary(ctx)
	require.NoError(t, err)

	require.Len(t, summary.Teams, 2)
	alpha, beta := summary.Teams[0], summary.Teams[1]

	assert.Equal(t, "Alpha", alpha.TeamName)
	assert.Equal(t, "Alpha AMD", alpha.CaptainName)
	assert.Equal(t, int64(100), alpha.MultipliedPoints)
	assert.Equal(t, int64(2), alpha.Units)
	require.Len(t, alpha.ActiveUsers, 1)
	assert.Empty(t, alpha.RetiredUsers)

	assert.Equal(t, int64(1040), beta.MultipliedPoints)
	assert.Equal(t, int64(540), beta.Points)
	require.Len(t, beta.RetiredUsers, 1)
	assert.Equal(t, "gone", beta.RetiredUsers[0].DisplayName)

	assert.Equal(t, int64(1140), summary.MultipliedPoints)
	assert.Equal(t, domain.StateAvailable, f.state.Current())
}

func TestSummaryBuilder_Summary_CachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedStats(t, f)

	first, err := f.summaries.Summary(ctx)
	require.NoError(t, err)
	second, err := f.summaries.Summary(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	f.state.Transition(domain.StateWriteExecuted)
	third, err := f.summaries.Summary(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.MultipliedPoints, third.MultipliedPoints)
	assert.Equal(t, domain.StateAvailable, f.state.Current())
}

func TestSummaryBuilder_Summary_DoesNotLeaveUpdatingState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.state.Transition(domain.StateUpdatingStats)
	_, err := f.summaries.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StateUpdatingStats, f.state.Current())
}

func TestSummaryBuilder_Summary_WriteDuringBuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedStats(t, f)

	// beta is deleted after the builder has listed users but before it lists
	// retired users
	f.store.ListRetiredUsersFunc = func(ctx context.Context) ([]domain.RetiredUserStats, error) {
		f.store.ListRetiredUsersFunc = nil
		if err := f.userService().Delete(ctx, 2); err != nil {
			return nil, err
		}
		return f.store.ListRetiredUsers(ctx)
	}

	_, err := f.summaries.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateWriteExecuted, f.state.Current(), "build must not hide the concurrent write")

	summary, err := f.summaries.Summary(ctx)
	require.NoError(t, err)
	beta := summary.Teams[1]
	assert.Empty(t, beta.ActiveUsers)
	require.Len(t, beta.RetiredUsers, 1)
	assert.Equal(t, "Beta NVIDIA", beta.RetiredUsers[0].DisplayName)
	assert.Equal(t, int64(40), beta.MultipliedPoints)
	assert.Equal(t, domain.StateAvailable, f.state.Current())
}

func TestSummaryBuilder_Summary_MissingCaptain(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user, _ := f.users.Get(ctx, 2)
	user.IsCaptain = false
	_, err := f.users.Update(ctx, user)
	require.NoError(t, err)

	var buf bytes.Buffer
	builder := NewSummaryBuilder(f.teams, f.users, f.hardware, f.store, f.stats, f.caches, f.state, zerolog.New(&buf))

	summary, err := builder.Summary(ctx)
	require.NoError(t, err)

	assert.Empty(t, summary.Teams[1].CaptainName)
	assert.Contains(t, buf.String(), "no captain found for team")
}

func TestLeaderboards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedStats(t, f)
	leaderboards := NewLeaderboardService(f.summaries)

	teams, err := leaderboards.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Alpha", teams[0].Entity.TeamName)
	assert.Equal(t, 1, teams[0].Rank)
	assert.Equal(t, "Beta", teams[1].Entity.TeamName)
	assert.Equal(t, 2, teams[1].Rank)
	assert.Equal(t, int64(60), teams[1].DiffToLeader)
	assert.Equal(t, int64(60), teams[1].DiffToNext)

	categories, err := leaderboards.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, len(domain.Categories()))

	byCategory := map[domain.Category]CategoryLeaderboard{}
	for _, c := range categories {
		byCategory[c.Category] = c
	}
	require.Len(t, byCategory[domain.CategoryAMDGPU].Users, 1)
	assert.Equal(t, "Alpha", byCategory[domain.CategoryAMDGPU].Users[0].Entity.TeamName)
	assert.Equal(t, "Alpha AMD", byCategory[domain.CategoryAMDGPU].Users[0].Entity.User.DisplayName)
	assert.NotNil(t, byCategory[domain.CategoryWildcard].Users)
	assert.Empty(t, byCategory[domain.CategoryWildcard].Users)
}
