package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/api"
	"github.com/zodac/folding-stats/internal/constants"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/service"
	"github.com/zodac/folding-stats/internal/state"
)

type StatsServer struct {
	summaries    *service.SummaryBuilder
	leaderboards *service.LeaderboardService
	stats        *service.StatsService
	parser       *service.StatsParser
	resetter     *service.ResetCoordinator
	historic     *service.HistoricStatsService
	results      *service.ResultsService
	users        *service.UserService
	teams        *service.TeamService
	hardware     *service.HardwareService
	state        *state.Holder
	logger       zerolog.Logger
}

type Services struct {
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
}

func NewStatsServer(svc Services, st *state.Holder, logger zerolog.Logger) *StatsServer {
	return &StatsServer{
		summaries:    svc.Summaries,
		leaderboards: svc.Leaderboards,
		stats:        svc.Stats,
		parser:       svc.Parser,
		resetter:     svc.Resetter,
		historic:     svc.Historic,
		results:      svc.Results,
		users:        svc.Users,
		teams:        svc.Teams,
		hardware:     svc.Hardware,
		state:        st,
		logger:       logger,
	}
}

func (s *StatsServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /stats/summary", s.getSummary)
	mux.HandleFunc("GET /stats/leaderboard/teams", s.getTeamLeaderboard)
	mux.HandleFunc("GET /stats/leaderboard/categories", s.getCategoryLeaderboard)
	mux.HandleFunc("GET /stats/users/{id}", s.getUserStats)
	mux.HandleFunc("PATCH /stats/users/{id}/offset", s.patchUserOffset)
	mux.HandleFunc("POST /stats/manual/update", s.manualUpdate)
	mux.HandleFunc("POST /stats/manual/reset", s.manualReset)
	mux.HandleFunc("GET /stats/historic/users/{id}/{year}", s.getMonthlyHistory)
	mux.HandleFunc("GET /stats/historic/users/{id}/{year}/{month}", s.getDailyHistory)
	mux.HandleFunc("GET /stats/historic/users/{id}/{year}/{month}/{day}", s.getHourlyHistory)
	mux.HandleFunc("GET /results/{year}/{month}", s.getMonthlyResult)

	mux.HandleFunc("GET /teams", s.listTeams)
	mux.HandleFunc("GET /teams/{id}", s.getTeam)
	mux.HandleFunc("POST /teams", s.createTeam)
	mux.HandleFunc("PUT /teams/{id}", s.updateTeam)
	mux.HandleFunc("DELETE /teams/{id}", s.deleteTeam)

	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /users/{id}", s.getUser)
	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("PUT /users/{id}", s.updateUser)
	mux.HandleFunc("DELETE /users/{id}", s.deleteUser)

	mux.HandleFunc("GET /hardware", s.listHardware)
	mux.HandleFunc("GET /hardware/{id}", s.getHardware)
	mux.HandleFunc("POST /hardware", s.createHardware)
	mux.HandleFunc("PUT /hardware/{id}", s.updateHardware)
	mux.HandleFunc("DELETE /hardware/{id}", s.deleteHardware)
	mux.HandleFunc("POST /hardware/sync", s.syncHardware)

	return mux
}

func (s *StatsServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  string(s.state.Current()),
	})
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), constants.RequestTimeout)
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer, got %q", r.PathValue(name))
	}
	return v, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "%v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *StatsServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, service.ErrUpdateInProgress),
		errors.Is(err, service.ErrResetInProgress):
		status = http.StatusConflict
	case errors.Is(err, api.ErrFeedNotConfigured), errors.Is(err, api.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	logger := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
