package server

import (
	"net/http"

	"github.com/zodac/folding-stats/internal/domain"
)

func (s *StatsServer) listTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	teams, err := s.teams.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *StatsServer) getTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	team, err := s.teams.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *StatsServer) createTeam(w http.ResponseWriter, r *http.Request) {
	var team domain.Team
	if err := decode(r, &team); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := s.teams.Create(ctx, team)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *StatsServer) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var team domain.Team
	if err := decode(r, &team); err != nil {
		s.writeError(w, r, err)
		return
	}
	team.ID = id

	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := s.teams.Update(ctx, team)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *StatsServer) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.teams.Delete(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StatsServer) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	users, err := s.users.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *StatsServer) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := s.users.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *StatsServer) createUser(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := decode(r, &user); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := s.users.Create(ctx, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *StatsServer) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var user domain.User
	if err := decode(r, &user); err != nil {
		s.writeError(w, r, err)
		return
	}
	user.ID = id

	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *StatsServer) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.users.Delete(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StatsServer) listHardware(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	hardware, err := s.hardware.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hardware)
}

func (s *StatsServer) getHardware(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	hw, err := s.hardware.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hw)
}

func (s *StatsServer) createHardware(w http.ResponseWriter, r *http.Request) {
	var hw domain.Hardware
	if err := decode(r, &hw); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := s.hardware.Create(ctx, hw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *StatsServer) updateHardware(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var hw domain.Hardware
	if err := decode(r, &hw); err != nil {
		s.writeError(w, r, err)
		return
	}
	hw.ID = id

	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := s.hardware.Update(ctx, hw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *StatsServer) deleteHardware(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.hardware.Delete(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StatsServer) syncHardware(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := s.hardware.Sync(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
