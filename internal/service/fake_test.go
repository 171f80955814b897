package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zodac/folding-stats/internal/api"
	"github.com/zodac/folding-stats/internal/cache"
	"github.com/zodac/folding-stats/internal/config"
	"github.com/zodac/folding-stats/internal/domain"
	"github.com/zodac/folding-stats/internal/state"
)

// ------------------------
// Fake Hardware Store
// ------------------------

type fakeHardwareStore struct {
	mu     sync.Mutex
	nextID int
	items  map[int]domain.Hardware

	UpdateFunc func(ctx context.Context, h domain.Hardware) (domain.Hardware, error)
}

func newFakeHardwareStore(items ...domain.Hardware) *fakeHardwareStore {
	f := &fakeHardwareStore{items: map[int]domain.Hardware{}}
	for _, h := range items {
		f.nextID = max(f.nextID, h.ID)
		f.items[h.ID] = h
	}
	return f
}

func (f *fakeHardwareStore) Create(_ context.Context, h domain.Hardware) (domain.Hardware, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Name == h.Name {
			return domain.Hardware{}, domain.ErrConflict
		}
	}
	f.nextID++
	h.ID = f.nextID
	f.items[h.ID] = h
	return h, nil
}

func (f *fakeHardwareStore) Get(_ context.Context, id int) (domain.Hardware, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.items[id]
	if !ok {
		return domain.Hardware{}, domain.NotFound("hardware", id)
	}
	return h, nil
}

func (f *fakeHardwareStore) GetByName(_ context.Context, name string) (domain.Hardware, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.items {
		if h.Name == name {
			return h, nil
		}
	}
	return domain.Hardware{}, domain.NotFound("hardware", name)
}

func (f *fakeHardwareStore) List(context.Context) ([]domain.Hardware, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.items), nil
}

func (f *fakeHardwareStore) Update(ctx context.Context, h domain.Hardware) (domain.Hardware, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, h)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[h.ID]; !ok {
		return domain.Hardware{}, domain.NotFound("hardware", h.ID)
	}
	f.items[h.ID] = h
	return h, nil
}

func (f *fakeHardwareStore) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.NotFound("hardware", id)
	}
	delete(f.items, id)
	return nil
}

// ------------------------
// Fake Team Store
// ------------------------

type fakeTeamStore struct {
	mu     sync.Mutex
	nextID int
	items  map[int]domain.Team
}

func newFakeTeamStore(items ...domain.Team) *fakeTeamStore {
	f := &fakeTeamStore{items: map[int]domain.Team{}}
	for _, t := range items {
		f.nextID = max(f.nextID, t.ID)
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTeamStore) Create(_ context.Context, t domain.Team) (domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTeamStore) Get(_ context.Context, id int) (domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return domain.Team{}, domain.NotFound("team", id)
	}
	return t, nil
}

func (f *fakeTeamStore) List(context.Context) ([]domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.items), nil
}

func (f *fakeTeamStore) Update(_ context.Context, t domain.Team) (domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[t.ID]; !ok {
		return domain.Team{}, domain.NotFound("team", t.ID)
	}
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTeamStore) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.NotFound("team", id)
	}
	delete(f.items, id)
	return nil
}

// ------------------------
// Fake User Store
// ------------------------

type fakeUserStore struct {
	mu      sync.Mutex
	nextID  int
	items   map[int]domain.User
	archive *fakeStatsStore

	DeleteFunc func(ctx context.Context, id int) error
}

func newFakeUserStore(items ...domain.User) *fakeUserStore {
	f := &fakeUserStore{items: map[int]domain.User{}}
	for _, u := range items {
		f.nextID = max(f.nextID, u.ID)
		f.items[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.items[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) Get(_ context.Context, id int) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return domain.User{}, domain.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserStore) List(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedValues(f.items), nil
}

func (f *fakeUserStore) ListByTeam(_ context.Context, teamID int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range sortedValues(f.items) {
		if u.TeamID == teamID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[u.ID]; !ok {
		return domain.User{}, domain.NotFound("user", u.ID)
	}
	f.items[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id int) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.NotFound("user", id)
	}
	delete(f.items, id)
	return nil
}

// Retire deletes first so a failed delete never reaches the archive.
func (f *fakeUserStore) Retire(ctx context.Context, id int, retired domain.RetiredUserStats) (domain.RetiredUserStats, error) {
	if err := f.Delete(ctx, id); err != nil {
		return domain.RetiredUserStats{}, err
	}
	return f.archive.CreateRetiredUser(ctx, retired)
}

// ------------------------
// Fake Stats Store
// ------------------------

type fakeStatsStore struct {
	mu      sync.Mutex
	trace   []string
	initial map[int]domain.UserStats
	total   map[int]domain.UserStats
	offsets map[int]domain.StatsOffset
	hourly  map[int][]domain.CompetitionStats
	retired []domain.RetiredUserStats
	nextID  int

	DeleteAllRetiredUsersFunc func(ctx context.Context) (int64, error)
	ListRetiredUsersFunc      func(ctx context.Context) ([]domain.RetiredUserStats, error)
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{
		initial: map[int]domain.UserStats{},
		total:   map[int]domain.UserStats{},
		offsets: map[int]domain.StatsOffset{},
		hourly:  map[int][]domain.CompetitionStats{},
	}
}

// Trace returns the sequence of mutating calls made to the fake.
func (f *fakeStatsStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

func (f *fakeStatsStore) record(call string) {
	f.trace = append(f.trace, call)
}

func (f *fakeStatsStore) GetInitialStats(_ context.Context, userID int) (domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.initial[userID]
	if !ok {
		return domain.UserStats{}, domain.NotFound("initial stats", userID)
	}
	return s, nil
}

func (f *fakeStatsStore) UpsertInitialStats(_ context.Context, stats domain.UserStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertInitialStats")
	f.initial[stats.UserID] = stats
	return nil
}

func (f *fakeStatsStore) ReplaceInitialStats(_ context.Context, stats []domain.UserStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReplaceInitialStats")
	for _, s := range stats {
		f.initial[s.UserID] = s
	}
	return nil
}

func (f *fakeStatsStore) GetTotalStats(_ context.Context, userID int) (domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.total[userID]
	if !ok {
		return domain.UserStats{}, domain.NotFound("total stats", userID)
	}
	return s, nil
}

func (f *fakeStatsStore) UpsertTotalStats(_ context.Context, stats domain.UserStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total[stats.UserID] = stats
	return nil
}

func (f *fakeStatsStore) GetOffset(_ context.Context, userID int) (domain.StatsOffset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offsets[userID], nil
}

func (f *fakeStatsStore) UpsertOffset(_ context.Context, userID int, offset domain.StatsOffset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertOffset")
	f.offsets[userID] = offset
	return nil
}

func (f *fakeStatsStore) DeleteAllOffsets(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteAllOffsets")
	n := int64(len(f.offsets))
	f.offsets = map[int]domain.StatsOffset{}
	return n, nil
}

func (f *fakeStatsStore) CreateHourlyStats(_ context.Context, stats domain.CompetitionStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hourly[stats.UserID] = append(f.hourly[stats.UserID], stats)
	return nil
}

func (f *fakeStatsStore) GetLatestHourlyStats(_ context.Context, userID int) (domain.CompetitionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.hourly[userID]
	if len(entries) == 0 {
		return domain.CompetitionStats{}, domain.NotFound("hourly stats", userID)
	}
	return entries[len(entries)-1], nil
}

func (f *fakeStatsStore) GetHourlyStatsBefore(_ context.Context, userID int, t time.Time) (domain.CompetitionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *domain.CompetitionStats
	for i, e := range f.hourly[userID] {
		if e.Timestamp.Before(t) {
			found = &f.hourly[userID][i]
		}
	}
	if found == nil {
		return domain.CompetitionStats{}, domain.NotFound("hourly stats", userID)
	}
	return *found, nil
}

func (f *fakeStatsStore) ListHourlyStats(_ context.Context, userID int, from, to time.Time) ([]domain.CompetitionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CompetitionStats
	for _, e := range f.hourly[userID] {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStatsStore) CreateRetiredUser(_ context.Context, retired domain.RetiredUserStats) (domain.RetiredUserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateRetiredUser")
	f.nextID++
	persisted := retired.WithID(f.nextID)
	f.retired = append(f.retired, persisted)
	return persisted, nil
}

func (f *fakeStatsStore) ListRetiredUsers(ctx context.Context) ([]domain.RetiredUserStats, error) {
	if f.ListRetiredUsersFunc != nil {
		return f.ListRetiredUsersFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.retired), nil
}

func (f *fakeStatsStore) DeleteAllRetiredUsers(ctx context.Context) (int64, error) {
	if f.DeleteAllRetiredUsersFunc != nil {
		return f.DeleteAllRetiredUsersFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteAllRetiredUsers")
	n := int64(len(f.retired))
	f.retired = nil
	return n, nil
}

// ------------------------
// Fake Results Store
// ------------------------

type resultKey struct {
	year  int
	month time.Month
}

type fakeResultsStore struct {
	mu    sync.Mutex
	saved map[resultKey][]byte
}

func newFakeResultsStore() *fakeResultsStore {
	return &fakeResultsStore{saved: map[resultKey][]byte{}}
}

func (f *fakeResultsStore) Save(_ context.Context, year int, month time.Month, result []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[resultKey{year, month}] = result
	return nil
}

func (f *fakeResultsStore) Get(_ context.Context, year int, month time.Month) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[resultKey{year, month}]
	if !ok {
		return nil, domain.NotFound("monthly result", year)
	}
	return r, nil
}

// ------------------------
// Fake Sources
// ------------------------

type fakeStatsSource struct {
	mu     sync.Mutex
	totals map[string]domain.Stats
	errs   map[string]error
	calls  int
}

func newFakeStatsSource() *fakeStatsSource {
	return &fakeStatsSource{totals: map[string]domain.Stats{}, errs: map[string]error{}}
}

func (f *fakeStatsSource) set(foldingUserName string, points, units int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[foldingUserName] = domain.Stats{Points: points, Units: units}
}

func (f *fakeStatsSource) GetTotalStats(_ context.Context, user domain.User) (domain.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[user.FoldingUserName]; err != nil {
		return domain.Stats{}, err
	}
	return f.totals[user.FoldingUserName], nil
}

type fakeHardwareSource struct {
	records []api.HardwareRecord
	err     error
}

func (f *fakeHardwareSource) GetHardware(context.Context) ([]api.HardwareRecord, error) {
	return f.records, f.err
}

func sortedValues[V any](m map[int]V) []V {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// ------------------------
// Fixture
// ------------------------

const testPasskey = "0123456789abcdef0123456789abcdef"

type fixture struct {
	hardware *fakeHardwareStore
	teams    *fakeTeamStore
	users    *fakeUserStore
	store    *fakeStatsStore
	results  *fakeResultsStore
	source   *fakeStatsSource
	caches   *cache.Caches
	state    *state.Holder

	stats     *StatsService
	parser    *StatsParser
	summaries *SummaryBuilder
	resetter  *ResetCoordinator
}

// newFixture builds two teams with one captain each:
// team 1 "Alpha" with an AMD GPU user, team 2 "Beta" with an NVIDIA GPU user.
func newFixture() *fixture {
	logger := zerolog.Nop()
	f := &fixture{
		hardware: newFakeHardwareStore(
			domain.Hardware{ID: 1, Name: "rx7900", DisplayName: "RX 7900", Make: domain.MakeAMD, Type: domain.TypeGPU, Multiplier: 2.0, AveragePPD: 1000},
			domain.Hardware{ID: 2, Name: "rtx4090", DisplayName: "RTX 4090", Make: domain.MakeNvidia, Type: domain.TypeGPU, Multiplier: 1.0, AveragePPD: 2000},
		),
		teams: newFakeTeamStore(
			domain.Team{ID: 1, Name: "Alpha"},
			domain.Team{ID: 2, Name: "Beta"},
		),
		users: newFakeUserStore(
			domain.User{ID: 1, FoldingUserName: "alpha_amd", DisplayName: "Alpha AMD", Passkey: testPasskey, Category: domain.CategoryAMDGPU, HardwareID: 1, TeamID: 1, IsCaptain: true},
			domain.User{ID: 2, FoldingUserName: "beta_nvidia", DisplayName: "Beta NVIDIA", Passkey: testPasskey, Category: domain.CategoryNvidiaGPU, HardwareID: 2, TeamID: 2, IsCaptain: true},
		),
		store:   newFakeStatsStore(),
		results: newFakeResultsStore(),
		source:  newFakeStatsSource(),
		caches:  cache.NewCaches(),
		state:   state.NewHolder(logger),
	}
	f.users.archive = f.store

	cfg := &config.Config{StatsParseConcurrency: 2}
	f.stats = NewStatsService(f.store, f.users, f.hardware, f.caches, f.state, logger)
	f.parser = NewStatsParser(cfg, f.users, f.hardware, f.source, f.stats, f.state, logger)
	f.summaries = NewSummaryBuilder(f.teams, f.users, f.hardware, f.store, f.stats, f.caches, f.state, logger)
	f.resetter = NewResetCoordinator(f.parser, f.users, f.store, f.stats, f.caches, f.state, logger)
	return f
}

func (f *fixture) userService() *UserService {
	return NewUserService(f.users, f.teams, f.hardware, f.stats, f.caches, f.state, zerolog.Nop())
}

func (f *fixture) now() time.Time {
	return time.Now().UTC()
}
