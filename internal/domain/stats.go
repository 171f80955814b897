package domain

import (
	"math"
	"time"
)

// Stats is a raw cumulative snapshot from the Folding@Home stats API.
type Stats struct {
	Points int64 `json:"points"`
	Units  int64 `json:"units"`
}

// UserStats is a timestamped raw snapshot. It is stored both as the initial
// baseline of a competition period and as the latest total.
type UserStats struct {
	UserID    int       `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Stats     Stats     `json:"stats"`
}

func (s UserStats) IsEmpty() bool {
	return s.Stats.Points == 0 && s.Stats.Units == 0
}

// StatsOffset is a manual correction applied on top of reconciled stats.
type StatsOffset struct {
	PointsOffset           int64 `json:"pointsOffset"`
	MultipliedPointsOffset int64 `json:"multipliedPointsOffset"`
	UnitsOffset            int64 `json:"unitsOffset"`
}

func NewStatsOffset(pointsOffset, multipliedPointsOffset, unitsOffset int64) StatsOffset {
	return StatsOffset{
		PointsOffset:           pointsOffset,
		MultipliedPointsOffset: multipliedPointsOffset,
		UnitsOffset:            unitsOffset,
	}
}

func EmptyStatsOffset() StatsOffset {
	return StatsOffset{}
}

func (o StatsOffset) IsEmpty() bool {
	return o.PointsOffset == 0 && o.MultipliedPointsOffset == 0 && o.UnitsOffset == 0
}

// IsMissingPointsOrMultipliedPoints reports whether exactly one of the points
// halves has been set.
func (o StatsOffset) IsMissingPointsOrMultipliedPoints() bool {
	return (o.PointsOffset == 0) != (o.MultipliedPointsOffset == 0)
}

// WithHardwareMultiplier fills in whichever points half is unset, using the
// multiplier of the user's hardware. Empty offsets and offsets with both halves
// set are returned as-is.
func (o StatsOffset) WithHardwareMultiplier(multiplier float64) StatsOffset {
	if o.IsEmpty() || !o.IsMissingPointsOrMultipliedPoints() {
		return o
	}
	multiplier = sanitiseMultiplier(multiplier)

	if o.PointsOffset == 0 {
		o.PointsOffset = roundHalfUp(float64(o.MultipliedPointsOffset) / multiplier)
		return o
	}
	o.MultipliedPointsOffset = roundHalfUp(float64(o.PointsOffset) * multiplier)
	return o
}

// CompetitionStats is a user's contribution within the current competition
// period. Values are never negative.
type CompetitionStats struct {
	UserID           int       `json:"userId"`
	Timestamp        time.Time `json:"timestamp"`
	Points           int64     `json:"points"`
	MultipliedPoints int64     `json:"multipliedPoints"`
	Units            int64     `json:"units"`
}

func NewCompetitionStats(userID int, timestamp time.Time, points, multipliedPoints, units int64) CompetitionStats {
	return CompetitionStats{
		UserID:           userID,
		Timestamp:        timestamp,
		Points:           points,
		MultipliedPoints: multipliedPoints,
		Units:            units,
	}
}

func CompetitionStatsWithMultiplier(userID int, timestamp time.Time, raw Stats, multiplier float64) CompetitionStats {
	return CompetitionStats{
		UserID:           userID,
		Timestamp:        timestamp,
		Points:           raw.Points,
		MultipliedPoints: roundHalfUp(float64(raw.Points) * sanitiseMultiplier(multiplier)),
		Units:            raw.Units,
	}
}

func EmptyCompetitionStats(userID int) CompetitionStats {
	return CompetitionStats{UserID: userID, Timestamp: time.Now().UTC()}
}

func (s CompetitionStats) IsEmpty() bool {
	return s.Points == 0 && s.MultipliedPoints == 0 && s.Units == 0
}

// WithOffset applies a manual offset. The offset is first completed with the
// multiplier, then multiplied points and units are adjusted and clamped at zero.
// Whenever points are adjusted, raw points are recomputed from the adjusted
// multiplied points so both stay consistent.
func (s CompetitionStats) WithOffset(offset StatsOffset, multiplier float64) CompetitionStats {
	if offset.IsEmpty() {
		return s
	}
	multiplier = sanitiseMultiplier(multiplier)
	offset = offset.WithHardwareMultiplier(multiplier)

	out := s
	out.Units = max(s.Units+offset.UnitsOffset, 0)
	if offset.PointsOffset == 0 && offset.MultipliedPointsOffset == 0 {
		return out
	}

	out.MultipliedPoints = max(s.MultipliedPoints+offset.MultipliedPointsOffset, 0)
	out.Points = max(roundHalfUp(float64(out.MultipliedPoints)/multiplier), 0)
	return out
}

// Reconcile turns a user's latest raw total into their competition stats:
// the baseline is subtracted (floored at zero), the hardware multiplier is
// applied and finally the manual offset.
func Reconcile(total, initial UserStats, multiplier float64, offset StatsOffset) CompetitionStats {
	delta := Stats{
		Points: max(total.Stats.Points-initial.Stats.Points, 0),
		Units:  max(total.Stats.Units-initial.Stats.Units, 0),
	}

	timestamp := total.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	return CompetitionStatsWithMultiplier(total.UserID, timestamp, delta, multiplier).
		WithOffset(offset, multiplier)
}

// RetiredUserStats freezes the stats of a user removed from a team. The stats
// keep counting towards that team until the next monthly reset.
type RetiredUserStats struct {
	ID          int              `json:"retiredUserId"`
	TeamID      int              `json:"teamId"`
	DisplayName string           `json:"displayName"`
	Stats       CompetitionStats `json:"stats"`
}

// NewRetiredUserStats builds an archive entry that has not been persisted yet.
func NewRetiredUserStats(teamID int, displayName string, stats CompetitionStats) RetiredUserStats {
	return RetiredUserStats{
		TeamID:      teamID,
		DisplayName: displayName,
		Stats:       stats,
	}
}

func (r RetiredUserStats) WithID(id int) RetiredUserStats {
	r.ID = id
	return r
}

func (r RetiredUserStats) IsPersisted() bool {
	return r.ID != 0
}

// round half up, matching how offsets and multiplied points were historically rounded
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

func sanitiseMultiplier(multiplier float64) float64 {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return 1
	}
	return multiplier
}
