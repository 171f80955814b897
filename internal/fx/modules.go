package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/zodac/folding-stats/internal/api"
	"github.com/zodac/folding-stats/internal/cache"
	"github.com/zodac/folding-stats/internal/config"
	"github.com/zodac/folding-stats/internal/database"
	"github.com/zodac/folding-stats/internal/logger"
	"github.com/zodac/folding-stats/internal/repository"
	"github.com/zodac/folding-stats/internal/scheduler"
	"github.com/zodac/folding-stats/internal/server"
	"github.com/zodac/folding-stats/internal/service"
	"github.com/zodac/folding-stats/internal/state"
)

type serverParams struct {
	fx.In

	Summaries    *service.SummaryBuilder
	Leaderboards *service.LeaderboardService
	Stats        *service.StatsService
	Parser       *service.StatsParser
	Resetter     *service.ResetCoordinator
	Historic     *service.HistoricStatsService
	Results      *service.ResultsService
	Users        *service.UserService
	Teams        *service.TeamService
	Hardware     *service.HardwareService
	State        *state.Holder
	Logger       zerolog.Logger
}

func ProvideStatsServer(p serverParams) *server.StatsServer {
	return server.NewStatsServer(server.Services{
		Summaries:    p.Summaries,
		Leaderboards: p.Leaderboards,
		Stats:        p.Stats,
		Parser:       p.Parser,
		Resetter:     p.Resetter,
		Historic:     p.Historic,
		Results:      p.Results,
		Users:        p.Users,
		Teams:        p.Teams,
		Hardware:     p.Hardware,
	}, p.State, p.Logger)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Invoke(database.Register),
	fx.Provide(cache.NewCaches),
	fx.Provide(state.NewHolder),
	// repos
	fx.Provide(fx.Annotate(repository.NewHardwareRepository, fx.As(new(service.HardwareStore)))),
	fx.Provide(fx.Annotate(repository.NewTeamRepository, fx.As(new(service.TeamStore)))),
	fx.Provide(fx.Annotate(repository.NewUserRepository, fx.As(new(service.UserStore)))),
	fx.Provide(fx.Annotate(repository.NewStatsRepository, fx.As(new(service.StatsStore)))),
	fx.Provide(fx.Annotate(repository.NewResultsRepository, fx.As(new(service.ResultsStore)))),
	// api clients
	fx.Provide(fx.Annotate(api.NewFoldingClient, fx.As(new(service.StatsSource)))),
	fx.Provide(fx.Annotate(api.NewHardwareFeedClient, fx.As(new(service.HardwareSource)))),
	// svc
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewStatsParser),
	fx.Provide(service.NewSummaryBuilder),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewResetCoordinator),
	fx.Provide(service.NewHistoricStatsService),
	fx.Provide(service.NewResultsService),
	fx.Provide(service.NewUserService),
	fx.Provide(service.NewTeamService),
	fx.Provide(service.NewHardwareService),
	// scheduler
	fx.Provide(scheduler.New),
	fx.Invoke(scheduler.Register),
	// server
	fx.Provide(ProvideStatsServer),
)
