package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/domain"
)

const hardwareColumns = `id, name, display_name, make, type, multiplier, average_ppd`

type HardwareRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewHardwareRepository(sqlDB *sql.DB, logger zerolog.Logger) *HardwareRepository {
	return &HardwareRepository{db: sqlDB, logger: logger}
}

func (r *HardwareRepository) Create(ctx context.Context, h domain.Hardware) (domain.Hardware, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hardware (name, display_name, make, type, multiplier, average_ppd) VALUES (?, ?, ?, ?, ?, ?)`,
		h.Name, h.DisplayName, h.Make, h.Type, h.Multiplier, h.AveragePPD)
	if err != nil {
		return domain.Hardware{}, translate(err, "hardware", h.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Hardware{}, err
	}
	h.ID = int(id)
	r.logger.Debug().Int("hardware_id", h.ID).Str("name", h.Name).Msg("hardware created")
	return h, nil
}

func (r *HardwareRepository) Get(ctx context.Context, id int) (domain.Hardware, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+hardwareColumns+` FROM hardware WHERE id = ?`, id)
	h, err := scanHardware(row)
	return h, translate(err, "hardware", id)
}

func (r *HardwareRepository) GetByName(ctx context.Context, name string) (domain.Hardware, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+hardwareColumns+` FROM hardware WHERE name = ?`, name)
	h, err := scanHardware(row)
	return h, translate(err, "hardware", name)
}

func (r *HardwareRepository) List(ctx context.Context) ([]domain.Hardware, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hardwareColumns+` FROM hardware ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Hardware{}
	for rows.Next() {
		h, err := scanHardware(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *HardwareRepository) Update(ctx context.Context, h domain.Hardware) (domain.Hardware, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE hardware SET name = ?, display_name = ?, make = ?, type = ?, multiplier = ?, average_ppd = ? WHERE id = ?`,
		h.Name, h.DisplayName, h.Make, h.Type, h.Multiplier, h.AveragePPD, h.ID)
	if err != nil {
		return domain.Hardware{}, translate(err, "hardware", h.ID)
	}
	return h, expectAffected(res, "hardware", h.ID)
}

func (r *HardwareRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hardware WHERE id = ?`, id)
	if err != nil {
		return translate(err, "hardware", id)
	}
	return expectAffected(res, "hardware", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHardware(s scanner) (domain.Hardware, error) {
	var h domain.Hardware
	err := s.Scan(&h.ID, &h.Name, &h.DisplayName, &h.Make, &h.Type, &h.Multiplier, &h.AveragePPD)
	return h, err
}
