package service

import (
	"context"
	"time"

	"github.com/zodac/folding-stats/internal/api"
	"github.com/zodac/folding-stats/internal/domain"
)

type StatsSource interface {
	GetTotalStats(ctx context.Context, user domain.User) (domain.Stats, error)
}

type HardwareSource interface {
	GetHardware(ctx context.Context) ([]api.HardwareRecord, error)
}

type HardwareStore interface {
	Create(ctx context.Context, h domain.Hardware) (domain.Hardware, error)
	Get(ctx context.Context, id int) (domain.Hardware, error)
	GetByName(ctx context.Context, name string) (domain.Hardware, error)
	List(ctx context.Context) ([]domain.Hardware, error)
	Update(ctx context.Context, h domain.Hardware) (domain.Hardware, error)
	Delete(ctx context.Context, id int) error
}

type TeamStore interface {
	Create(ctx context.Context, t domain.Team) (domain.Team, error)
	Get(ctx context.Context, id int) (domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
	Update(ctx context.Context, t domain.Team) (domain.Team, error)
	Delete(ctx context.Context, id int) error
}

type UserStore interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id int) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByTeam(ctx context.Context, teamID int) ([]domain.User, error)
	Update(ctx context.Context, u domain.User) (domain.User, error)
	Delete(ctx context.Context, id int) error
	Retire(ctx context.Context, id int, retired domain.RetiredUserStats) (domain.RetiredUserStats, error)
}

type StatsStore interface {
	GetInitialStats(ctx context.Context, userID int) (domain.UserStats, error)
	UpsertInitialStats(ctx context.Context, stats domain.UserStats) error
	ReplaceInitialStats(ctx context.Context, stats []domain.UserStats) error
	GetTotalStats(ctx context.Context, userID int) (domain.UserStats, error)
	UpsertTotalStats(ctx context.Context, stats domain.UserStats) error
	GetOffset(ctx context.Context, userID int) (domain.StatsOffset, error)
	UpsertOffset(ctx context.Context, userID int, offset domain.StatsOffset) error
	DeleteAllOffsets(ctx context.Context) (int64, error)
	CreateHourlyStats(ctx context.Context, stats domain.CompetitionStats) error
	GetLatestHourlyStats(ctx context.Context, userID int) (domain.CompetitionStats, error)
	GetHourlyStatsBefore(ctx context.Context, userID int, t time.Time) (domain.CompetitionStats, error)
	ListHourlyStats(ctx context.Context, userID int, from, to time.Time) ([]domain.CompetitionStats, error)
	ListRetiredUsers(ctx context.Context) ([]domain.RetiredUserStats, error)
	DeleteAllRetiredUsers(ctx context.Context) (int64, error)
}

type ResultsStore interface {
	Save(ctx context.Context, year int, month time.Month, result []byte) error
	Get(ctx context.Context, year int, month time.Month) ([]byte, error)
}
