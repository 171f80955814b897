package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
)

type TeamRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTeamRepository(sqlDB *sql.DB, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{db: sqlDB, logger: logger}
}

func (r *TeamRepository) Create(ctx context.Context, t domain.Team) (domain.Team, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (name, description, forum_link) VALUES (?, ?, ?)`,
		t.Name, t.Description, t.ForumLink)
	if err != nil {
		return domain.Team{}, translate(err, "team", t.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Team{}, err
	}
	t.ID = int(id)
	r.logger.Debug().Int("team_id", t.ID).Str("name", t.Name).Msg("team created")
	return t, nil
}

func (r *TeamRepository) Get(ctx context.Context, id int) (domain.Team, error) {
	var t domain.Team
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, forum_link FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.ForumLink)
	return t, translate(err, "team", id)
}

func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, forum_link FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Team{}
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.ForumLink); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *TeamRepository) Update(ctx context.Context, t domain.Team) (domain.Team, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE teams SET name = ?, description = ?, forum_link = ? WHERE id = ?`,
		t.Name, t.Description, t.ForumLink, t.ID)
	if err != nil {
		return domain.Team{}, translate(err, "team", t.ID)
	}
	return t, expectAffected(res, "team", t.ID)
}

func (r *TeamRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return translate(err, "team", id)
	}
	return expectAffected(res, "team", id)
}
