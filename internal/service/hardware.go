package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/api"
	"github.com/zodac/folding-stats/internal/constants"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

type HardwareService struct {
	hardware HardwareStore
	source   HardwareSource
	state    *state.Holder
	logger   zerolog.Logger
}

func NewHardwareService(hardware HardwareStore, source HardwareSource, st *state.Holder, logger zerolog.Logger) *HardwareService {
	return &HardwareService{hardware: hardware, source: source, state: st, logger: logger}
}

func (s *HardwareService) List(ctx context.Context) ([]domain.Hardware, error) {
	return s.hardware.List(ctx)
}

func (s *HardwareService) Get(ctx context.Context, id int) (domain.Hardware, error) {
	return s.hardware.Get(ctx, id)
}

func (s *HardwareService) Create(ctx context.Context, h domain.Hardware) (domain.Hardware, error) {
	h.ID = 0
	if err := validateHardware(h); err != nil {
		return domain.Hardware{}, err
	}
	created, err := s.hardware.Create(ctx, h)
	if err != nil {
		return domain.Hardware{}, err
	}
	s.logger.Info().Int("hardware_id", created.ID).Str("name", created.Name).Float64("multiplier", created.Multiplier).Msg("hardware created")
	return created, nil
}

func (s *HardwareService) Update(ctx context.Context, h domain.Hardware) (domain.Hardware, error) {
	if err := validateHardware(h); err != nil {
		return domain.Hardware{}, err
	}
	updated, err := s.hardware.Update(ctx, h)
	if err != nil {
		return domain.Hardware{}, err
	}
	s.state.Transition(domain.StateWriteExecuted)
	return updated, nil
}

// Delete fails with ErrConflict while users still use the hardware.
func (s *HardwareService) Delete(ctx context.Context, id int) error {
	return s.hardware.Delete(ctx, id)
}

type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Sync refreshes the catalog from the hardware feed. Multipliers are relative
// to the fastest hardware in the feed. Each record is applied on its own and a
// failing record is logged and skipped.
func (s *HardwareService) Sync(ctx context.Context) (SyncResult, error) {
	records, err := s.source.GetHardware(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to fetch hardware: %w", err)
	}

	var bestPPD int64
	for _, r := range records {
		bestPPD = max(bestPPD, r.AveragePPD)
	}

	var result SyncResult
	for _, record := range records {
		created, err := s.syncRecord(ctx, record, bestPPD)
		if err != nil {
			result.Failed++
			s.logger.Warn().Err(err).Str("name", record.Name).Msg("failed to sync hardware")
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if result.Updated > 0 {
		s.state.Transition(domain.StateWriteExecuted)
	}
	s.logger.Info().
		Int("records", len(records)).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("hardware sync completed")
	return result, nil
}

func (s *HardwareService) syncRecord(ctx context.Context, record api.HardwareRecord, bestPPD int64) (bool, error) {
	h, err := hardwareFromRecord(record, bestPPD)
	if err != nil {
		return false, err
	}

	existing, err := s.hardware.GetByName(ctx, h.Name)
	if errors.Is(err, domain.ErrNotFound) {
		_, err := s.hardware.Create(ctx, h)
		return true, err
	}
	if err != nil {
		return false, err
	}

	h.ID = existing.ID
	_, err = s.hardware.Update(ctx, h)
	return false, err
}

func hardwareFromRecord(record api.HardwareRecord, bestPPD int64) (domain.Hardware, error) {
	if record.AveragePPD <= 0 {
		return domain.Hardware{}, domain.NewValidationError("averagePpd", "must be positive, got %d", record.AveragePPD)
	}

	displayName := record.DisplayName
	if displayName == "" {
		displayName = record.Name
	}

	h := domain.Hardware{
		Name:        record.Name,
		DisplayName: displayName,
		Make:        domain.HardwareMake(strings.ToUpper(strings.TrimSpace(record.Make))),
		Type:        domain.HardwareType(strings.ToUpper(strings.TrimSpace(record.Type))),
		Multiplier:  multiplierFor(bestPPD, record.AveragePPD),
		AveragePPD:  record.AveragePPD,
	}
	return h, validateHardware(h)
}

func multiplierFor(bestPPD, ppd int64) float64 {
	scale := math.Pow10(constants.HardwareMultiplierPrecision)
	return math.Round(float64(bestPPD)/float64(ppd)*scale) / scale
}

func validateHardware(h domain.Hardware) error {
	if strings.TrimSpace(h.Name) == "" {
		return domain.NewValidationError("hardwareName", "must not be empty")
	}
	if strings.TrimSpace(h.DisplayName) == "" {
		return domain.NewValidationError("displayName", "must not be empty")
	}
	switch h.Make {
	case domain.MakeAMD, domain.MakeNvidia, domain.MakeIntel:
	default:
		return domain.NewValidationError("hardwareMake", "unknown make %q", h.Make)
	}
	switch h.Type {
	case domain.TypeCPU, domain.TypeGPU:
	default:
		return domain.NewValidationError("hardwareType", "unknown type %q", h.Type)
	}
	if !(h.Multiplier > 0) {
		return domain.NewValidationError("multiplier", "must be greater than 0")
	}
	return nil
}
