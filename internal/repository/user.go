package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
)

const userColumns = `id, folding_username, display_name, passkey, category, profile_link, live_stats_link, hardware_id, team_id, is_captain`

type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(sqlDB *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{db: sqlDB, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) (domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (folding_username, display_name, passkey, category, profile_link, live_stats_link, hardware_id, team_id, is_captain)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.FoldingUserName, u.DisplayName, u.Passkey, u.Category, u.ProfileLink, u.LiveStatsLink, u.HardwareID, u.TeamID, u.IsCaptain)
	if err != nil {
		return domain.User{}, translate(err, "user", u.FoldingUserName)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}
	u.ID = int(id)
	r.logger.Debug().Int("user_id", u.ID).Str("folding_username", u.FoldingUserName).Msg("user created")
	return u, nil
}

func (r *UserRepository) Get(ctx context.Context, id int) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	return u, translate(err, "user", id)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

func (r *UserRepository) ListByTeam(ctx context.Context, teamID int) ([]domain.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE team_id = ? ORDER BY id`, teamID)
}

func (r *UserRepository) Update(ctx context.Context, u domain.User) (domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET folding_username = ?, display_name = ?, passkey = ?, category = ?, profile_link = ?,
		 live_stats_link = ?, hardware_id = ?, team_id = ?, is_captain = ? WHERE id = ?`,
		u.FoldingUserName, u.DisplayName, u.Passkey, u.Category, u.ProfileLink, u.LiveStatsLink, u.HardwareID, u.TeamID, u.IsCaptain, u.ID)
	if err != nil {
		return domain.User{}, translate(err, "user", u.ID)
	}
	return u, expectAffected(res, "user", u.ID)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return translate(err, "user", id)
	}
	return expectAffected(res, "user", id)
}

// Retire archives the user's stats and deletes the user in one transaction.
// Neither change is kept if the other fails.
func (r *UserRepository) Retire(ctx context.Context, id int, retired domain.RetiredUserStats) (domain.RetiredUserStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.RetiredUserStats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	persisted, err := insertRetiredUser(ctx, tx, retired)
	if err != nil {
		return domain.RetiredUserStats{}, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return domain.RetiredUserStats{}, translate(err, "user", id)
	}
	if err := expectAffected(res, "user", id); err != nil {
		return domain.RetiredUserStats{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.RetiredUserStats{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.Debug().Int("user_id", id).Int("retired_user_id", persisted.ID).Msg("user retired")
	return persisted, nil
}

func (r *UserRepository) query(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.FoldingUserName, &u.DisplayName, &u.Passkey, &u.Category,
		&u.ProfileLink, &u.LiveStatsLink, &u.HardwareID, &u.TeamID, &u.IsCaptain)
	return u, err
}
