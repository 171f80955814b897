package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
)

// StatsRepository stores every per-user stats table: the initial baseline, the
// latest raw total, manual offsets, hourly competition stats and the retired
// user archive.
type StatsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStatsRepository(sqlDB *sql.DB, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{db: sqlDB, logger: logger}
}

func (r *StatsRepository) GetInitialStats(ctx context.Context, userID int) (domain.UserStats, error) {
	return r.getUserStats(ctx, "user_initial_stats", userID)
}

func (r *StatsRepository) UpsertInitialStats(ctx context.Context, stats domain.UserStats) error {
	return r.upsertUserStats(ctx, r.db, "user_initial_stats", stats)
}

// ReplaceInitialStats writes every baseline in one transaction.
func (r *StatsRepository) ReplaceInitialStats(ctx context.Context, stats []domain.UserStats) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, s := range stats {
		if err := r.upsertUserStats(ctx, tx, "user_initial_stats", s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *StatsRepository) GetTotalStats(ctx context.Context, userID int) (domain.UserStats, error) {
	return r.getUserStats(ctx, "user_total_stats", userID)
}

func (r *StatsRepository) UpsertTotalStats(ctx context.Context, stats domain.UserStats) error {
	return r.upsertUserStats(ctx, r.db, "user_total_stats", stats)
}

// GetOffset returns an empty offset when none has been stored for the user.
func (r *StatsRepository) GetOffset(ctx context.Context, userID int) (domain.StatsOffset, error) {
	var o domain.StatsOffset
	err := r.db.QueryRowContext(ctx,
		`SELECT points_offset, multiplied_points_offset, units_offset FROM user_offset_stats WHERE user_id = ?`, userID).
		Scan(&o.PointsOffset, &o.MultipliedPointsOffset, &o.UnitsOffset)
	if err == sql.ErrNoRows {
		return domain.EmptyStatsOffset(), nil
	}
	return o, translate(err, "offset", userID)
}

func (r *StatsRepository) UpsertOffset(ctx context.Context, userID int, offset domain.StatsOffset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_offset_stats (user_id, points_offset, multiplied_points_offset, units_offset) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   points_offset = excluded.points_offset,
		   multiplied_points_offset = excluded.multiplied_points_offset,
		   units_offset = excluded.units_offset`,
		userID, offset.PointsOffset, offset.MultipliedPointsOffset, offset.UnitsOffset)
	return translate(err, "offset", userID)
}

func (r *StatsRepository) DeleteAllOffsets(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_offset_stats`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *StatsRepository) CreateHourlyStats(ctx context.Context, stats domain.CompetitionStats) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_tc_stats_hourly (user_id, utc_timestamp, points, multiplied_points, units) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, utc_timestamp) DO UPDATE SET
		   points = excluded.points,
		   multiplied_points = excluded.multiplied_points,
		   units = excluded.units`,
		stats.UserID, dbTime(stats.Timestamp), stats.Points, stats.MultipliedPoints, stats.Units)
	return translate(err, "hourly stats", stats.UserID)
}

func (r *StatsRepository) GetLatestHourlyStats(ctx context.Context, userID int) (domain.CompetitionStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, utc_timestamp, points, multiplied_points, units FROM user_tc_stats_hourly
		 WHERE user_id = ? ORDER BY utc_timestamp DESC LIMIT 1`, userID)
	s, err := scanCompetitionStats(row)
	return s, translate(err, "hourly stats", userID)
}

// GetHourlyStatsBefore returns the newest entry strictly before t.
func (r *StatsRepository) GetHourlyStatsBefore(ctx context.Context, userID int, t time.Time) (domain.CompetitionStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, utc_timestamp, points, multiplied_points, units FROM user_tc_stats_hourly
		 WHERE user_id = ? AND utc_timestamp < ? ORDER BY utc_timestamp DESC LIMIT 1`, userID, dbTime(t))
	s, err := scanCompetitionStats(row)
	return s, translate(err, "hourly stats", userID)
}

// ListHourlyStats returns entries in [from, to) in ascending time order.
func (r *StatsRepository) ListHourlyStats(ctx context.Context, userID int, from, to time.Time) ([]domain.CompetitionStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, utc_timestamp, points, multiplied_points, units FROM user_tc_stats_hourly
		 WHERE user_id = ? AND utc_timestamp >= ? AND utc_timestamp < ? ORDER BY utc_timestamp`,
		userID, dbTime(from), dbTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CompetitionStats{}
	for rows.Next() {
		s, err := scanCompetitionStats(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func insertRetiredUser(ctx context.Context, db execer, retired domain.RetiredUserStats) (domain.RetiredUserStats, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO retired_user_stats (team_id, display_name, utc_timestamp, points, multiplied_points, units) VALUES (?, ?, ?, ?, ?, ?)`,
		retired.TeamID, retired.DisplayName, dbTime(retired.Stats.Timestamp),
		retired.Stats.Points, retired.Stats.MultipliedPoints, retired.Stats.Units)
	if err != nil {
		return domain.RetiredUserStats{}, translate(err, "retired user", retired.DisplayName)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.RetiredUserStats{}, err
	}
	return retired.WithID(int(id)), nil
}

func (r *StatsRepository) ListRetiredUsers(ctx context.Context) ([]domain.RetiredUserStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT retired_user_id, team_id, display_name, utc_timestamp, points, multiplied_points, units
		 FROM retired_user_stats ORDER BY retired_user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RetiredUserStats{}
	for rows.Next() {
		var rs domain.RetiredUserStats
		if err := rows.Scan(&rs.ID, &rs.TeamID, &rs.DisplayName, &rs.Stats.Timestamp,
			&rs.Stats.Points, &rs.Stats.MultipliedPoints, &rs.Stats.Units); err != nil {
			return nil, err
		}
		rs.Stats.UserID = rs.ID
		result = append(result, rs)
	}
	return result, rows.Err()
}

func (r *StatsRepository) DeleteAllRetiredUsers(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM retired_user_stats`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// table is one of the two fixed stats tables, never user input
func (r *StatsRepository) getUserStats(ctx context.Context, table string, userID int) (domain.UserStats, error) {
	var s domain.UserStats
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, utc_timestamp, points, units FROM `+table+` WHERE user_id = ?`, userID).
		Scan(&s.UserID, &s.Timestamp, &s.Stats.Points, &s.Stats.Units)
	return s, translate(err, table, userID)
}

func (r *StatsRepository) upsertUserStats(ctx context.Context, db execer, table string, stats domain.UserStats) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, utc_timestamp, points, units) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   utc_timestamp = excluded.utc_timestamp,
		   points = excluded.points,
		   units = excluded.units`,
		stats.UserID, dbTime(stats.Timestamp), stats.Stats.Points, stats.Stats.Units)
	return translate(err, table, stats.UserID)
}

func scanCompetitionStats(s scanner) (domain.CompetitionStats, error) {
	var cs domain.CompetitionStats
	err := s.Scan(&cs.UserID, &cs.Timestamp, &cs.Points, &cs.MultipliedPoints, &cs.Units)
	return cs, err
}
