package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ResultsRepository keeps the archived end-of-month competition results as
// opaque JSON documents.
type ResultsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewResultsRepository(sqlDB *sql.DB, logger zerolog.Logger) *ResultsRepository {
	return &ResultsRepository{db: sqlDB, logger: logger}
}

func (r *ResultsRepository) Save(ctx context.Context, year int, month time.Month, result []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_results (year, month, utc_timestamp, result) VALUES (?, ?, ?, ?)
		 ON CONFLICT (year, month) DO UPDATE SET utc_timestamp = excluded.utc_timestamp, result = excluded.result`,
		year, int(month), dbTime(time.Now()), string(result))
	if err != nil {
		return translate(err, "monthly result", fmt.Sprintf("%d-%02d", year, month))
	}
	r.logger.Debug().Int("year", year).Int("month", int(month)).Msg("monthly result saved")
	return nil
}

func (r *ResultsRepository) Get(ctx context.Context, year int, month time.Month) ([]byte, error) {
	var result string
	err := r.db.QueryRowContext(ctx,
		`SELECT result FROM monthly_results WHERE year = ? AND month = ?`, year, int(month)).
		Scan(&result)
	if err != nil {
		return nil, translate(err, "monthly result", fmt.Sprintf("%d-%02d", year, month))
	}
	return []byte(result), nil
}
