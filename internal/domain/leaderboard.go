package domain

import (
	"cmp"
	"slices"
)

type LeaderboardEntry[E any] struct {
	Entity       E     `json:"entity"`
	Rank         int   `json:"rank"`
	DiffToLeader int64 `json:"diffToLeader"`
	DiffToNext   int64 `json:"diffToNext"`
}

// Rank orders entities by descending score and annotates each with its 1-based
// rank and the point gaps to the leader and to the entry directly above it.
// Equal scores keep their input order.
func Rank[E any](entities []E, score func(E) int64) []LeaderboardEntry[E] {
	if len(entities) == 0 {
		return []LeaderboardEntry[E]{}
	}

	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b E) int {
		return cmp.Compare(score(b), score(a))
	})

	entries := make([]LeaderboardEntry[E], len(sorted))
	leaderScore := score(sorted[0])
	entries[0] = LeaderboardEntry[E]{Entity: sorted[0], Rank: 1}

	for i := 1; i < len(sorted); i++ {
		current := score(sorted[i])
		entries[i] = LeaderboardEntry[E]{
			Entity:       sorted[i],
			Rank:         i + 1,
			DiffToLeader: leaderScore - current,
			DiffToNext:   score(sorted[i-1]) - current,
		}
	}
	return entries
}

// CategoryUser is a user summary ranked inside its category, with the team
// name carried for display.
type CategoryUser struct {
	User     UserSummary `json:"user"`
	TeamName string      `json:"teamName"`
}

type TeamLeaderboardEntry = LeaderboardEntry[TeamSummary]

type UserCategoryLeaderboardEntry = LeaderboardEntry[CategoryUser]
