package cache

import (
	"sync"

	"github.com/zodac/folding-stats/internal/domain"
)

type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	name    string
	entries map[K]V
}

func New[K comparable, V any](name string) *Cache[K, V] {
	return &Cache[K, V]{
		name:    name,
		entries: make(map[K]V),
	}
}

func (c *Cache[K, V]) Name() string {
	return c.name
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

type summaryKey struct{}

// Caches groups every derived-data cache of the process. All of them can be
// rebuilt from the database, so invalidation is always safe.
type Caches struct {
	Summary          *Cache[summaryKey, *domain.CompetitionSummary]
	CompetitionStats *Cache[int, domain.CompetitionStats]
	InitialStats     *Cache[int, domain.UserStats]
	TotalStats       *Cache[int, domain.UserStats]
	Offsets          *Cache[int, domain.StatsOffset]
}

func NewCaches() *Caches {
	return &Caches{
		Summary:          New[summaryKey, *domain.CompetitionSummary]("competition_summary"),
		CompetitionStats: New[int, domain.CompetitionStats]("competition_stats"),
		InitialStats:     New[int, domain.UserStats]("initial_stats"),
		TotalStats:       New[int, domain.UserStats]("total_stats"),
		Offsets:          New[int, domain.StatsOffset]("stats_offsets"),
	}
}

func (c *Caches) GetSummary() (*domain.CompetitionSummary, bool) {
	return c.Summary.Get(summaryKey{})
}

func (c *Caches) PutSummary(summary *domain.CompetitionSummary) {
	c.Summary.Put(summaryKey{}, summary)
}

func (c *Caches) InvalidateSummary() {
	c.Summary.Clear()
}

// InvalidateUser drops every per-user entry, used when a user is removed.
func (c *Caches) InvalidateUser(userID int) {
	c.CompetitionStats.Delete(userID)
	c.InitialStats.Delete(userID)
	c.TotalStats.Delete(userID)
	c.Offsets.Delete(userID)
}

func (c *Caches) InvalidateAll() {
	c.Summary.Clear()
	c.CompetitionStats.Clear()
	c.InitialStats.Clear()
	c.TotalStats.Clear()
	c.Offsets.Clear()
}
