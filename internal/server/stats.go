package server

import (
	"net/http"
	"time"

	"github.com/zodac/folding-stats/internal/domain"
)

func (s *StatsServer) getSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	summary, err := s.summaries.Summary(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *StatsServer) getTeamLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	entries, err := s.leaderboards.Teams(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *StatsServer) getCategoryLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	leaderboards, err := s.leaderboards.Categories(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboards)
}

func (s *StatsServer) getUserStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	stats, err := s.stats.UserStats(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type offsetRequest struct {
	PointsOffset           int64 `json:"pointsOffset"`
	MultipliedPointsOffset int64 `json:"multipliedPointsOffset"`
	UnitsOffset            int64 `json:"unitsOffset"`
}

func (s *StatsServer) patchUserOffset(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req offsetRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	offset := domain.NewStatsOffset(req.PointsOffset, req.MultipliedPointsOffset, req.UnitsOffset)
	stats, err := s.stats.SetOffset(ctx, id, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// manualUpdate runs a stats update. With ?async=true it returns 202 at once.
func (s *StatsServer) manualUpdate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		s.parser.UpdateStatsAsync()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
		return
	}

	// a full pull can outlast the default request timeout
	if err := s.parser.UpdateStats(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *StatsServer) manualReset(w http.ResponseWriter, r *http.Request) {
	if err := s.resetter.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *StatsServer) getMonthlyHistory(w http.ResponseWriter, r *http.Request) {
	id, year, _, _, err := historicPath(r, false, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	history, err := s.historic.Monthly(ctx, id, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *StatsServer) getDailyHistory(w http.ResponseWriter, r *http.Request) {
	id, year, month, _, err := historicPath(r, true, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	history, err := s.historic.Daily(ctx, id, year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *StatsServer) getHourlyHistory(w http.ResponseWriter, r *http.Request) {
	id, year, month, day, err := historicPath(r, true, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	history, err := s.historic.Hourly(ctx, id, time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func historicPath(r *http.Request, withMonth, withDay bool) (id, year int, month time.Month, day int, err error) {
	if id, err = pathInt(r, "id"); err != nil {
		return
	}
	if year, err = pathInt(r, "year"); err != nil {
		return
	}
	if withMonth {
		if month, err = pathMonth(r); err != nil {
			return
		}
	}
	if withDay {
		if day, err = pathInt(r, "day"); err != nil {
			return
		}
		if day < 1 || day > daysIn(year, month) {
			err = domain.NewValidationError("day", "must be between 1 and %d, got %d", daysIn(year, month), day)
		}
	}
	return
}

func (s *StatsServer) getMonthlyResult(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := pathMonth(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := s.results.Get(ctx, year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func pathMonth(r *http.Request) (time.Month, error) {
	m, err := pathInt(r, "month")
	if err != nil {
		return 0, err
	}
	if m < 1 || m > 12 {
		return 0, domain.NewValidationError("month", "must be between 1 and 12, got %d", m)
	}
	return time.Month(m), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
