package domain

import "time"

type UserSummary struct {
	ID               int      `json:"id"`
	FoldingUserName  string   `json:"foldingName"`
	DisplayName      string   `json:"displayName"`
	Category         Category `json:"category"`
	Hardware         Hardware `json:"hardware"`
	Points           int64    `json:"points"`
	MultipliedPoints int64    `json:"multipliedPoints"`
	Units            int64    `json:"units"`
	ProfileLink      string   `json:"profileLink,omitempty"`
	LiveStatsLink    string   `json:"liveStatsLink,omitempty"`
	IsCaptain        bool     `json:"isCaptain"`
}

func NewUserSummary(user User, hardware Hardware, stats CompetitionStats) UserSummary {
	return UserSummary{
		ID:               user.ID,
		FoldingUserName:  user.FoldingUserName,
		DisplayName:      user.DisplayName,
		Category:         user.Category,
		Hardware:         hardware,
		Points:           stats.Points,
		MultipliedPoints: stats.MultipliedPoints,
		Units:            stats.Units,
		ProfileLink:      user.ProfileLink,
		LiveStatsLink:    user.LiveStatsLink,
		IsCaptain:        user.IsCaptain,
	}
}

type RetiredUserSummary struct {
	ID               int    `json:"id"`
	DisplayName      string `json:"displayName"`
	Points           int64  `json:"points"`
	MultipliedPoints int64  `json:"multipliedPoints"`
	Units            int64  `json:"units"`
}

func NewRetiredUserSummary(retired RetiredUserStats) RetiredUserSummary {
	return RetiredUserSummary{
		ID:               retired.ID,
		DisplayName:      retired.DisplayName,
		Points:           retired.Stats.Points,
		MultipliedPoints: retired.Stats.MultipliedPoints,
		Units:            retired.Stats.Units,
	}
}

type TeamSummary struct {
	TeamName         string               `json:"teamName"`
	TeamDescription  string               `json:"teamDescription,omitempty"`
	ForumLink        string               `json:"forumLink,omitempty"`
	CaptainName      string               `json:"captainName,omitempty"`
	Points           int64                `json:"teamPoints"`
	MultipliedPoints int64                `json:"teamMultipliedPoints"`
	Units            int64                `json:"teamUnits"`
	ActiveUsers      []UserSummary        `json:"activeUsers"`
	RetiredUsers     []RetiredUserSummary `json:"retiredUsers"`
}

// NewTeamSummary totals active and retired users. The user slices are stored
// as given; callers hand over ownership.
func NewTeamSummary(team Team, captainName string, active []UserSummary, retired []RetiredUserSummary) TeamSummary {
	summary := TeamSummary{
		TeamName:        team.Name,
		TeamDescription: team.Description,
		ForumLink:       team.ForumLink,
		CaptainName:     captainName,
		ActiveUsers:     active,
		RetiredUsers:    retired,
	}
	if summary.ActiveUsers == nil {
		summary.ActiveUsers = []UserSummary{}
	}
	if summary.RetiredUsers == nil {
		summary.RetiredUsers = []RetiredUserSummary{}
	}

	for _, u := range active {
		summary.Points += u.Points
		summary.MultipliedPoints += u.MultipliedPoints
		summary.Units += u.Units
	}
	for _, r := range retired {
		summary.Points += r.Points
		summary.MultipliedPoints += r.MultipliedPoints
		summary.Units += r.Units
	}
	return summary
}

type CompetitionSummary struct {
	Points           int64         `json:"totalPoints"`
	MultipliedPoints int64         `json:"totalMultipliedPoints"`
	Units            int64         `json:"totalUnits"`
	Teams            []TeamSummary `json:"teams"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

func NewCompetitionSummary(teams []TeamSummary, generatedAt time.Time) *CompetitionSummary {
	summary := &CompetitionSummary{Teams: teams, GeneratedAt: generatedAt}
	if summary.Teams == nil {
		summary.Teams = []TeamSummary{}
	}
	for _, t := range teams {
		summary.Points += t.Points
		summary.MultipliedPoints += t.MultipliedPoints
		summary.Units += t.Units
	}
	return summary
}
