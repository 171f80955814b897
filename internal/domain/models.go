package domain

import (
	"slices"
	"strings"
)

type HardwareMake string

const (
	MakeAMD    HardwareMake = "AMD"
	MakeNvidia HardwareMake = "NVIDIA"
	MakeIntel  HardwareMake = "INTEL"
)

type HardwareType string

const (
	TypeCPU HardwareType = "CPU"
	TypeGPU HardwareType = "GPU"
)

type Hardware struct {
	ID          int          `json:"id"`
	Name        string       `json:"hardwareName"`
	DisplayName string       `json:"displayName"`
	Make        HardwareMake `json:"hardwareMake"`
	Type        HardwareType `json:"hardwareType"`
	Multiplier  float64      `json:"multiplier"`
	AveragePPD  int64        `json:"averagePpd"`
}

type Team struct {
	ID          int    `json:"id"`
	Name        string `json:"teamName"`
	Description string `json:"teamDescription,omitempty"`
	ForumLink   string `json:"forumLink,omitempty"`
}

// Category is the hardware class a user competes in. Each category is ranked
// separately and limits how many users a single team may field in it.
type Category string

const (
	CategoryAMDGPU    Category = "AMD_GPU"
	CategoryNvidiaGPU Category = "NVIDIA_GPU"
	CategoryWildcard  Category = "WILDCARD"
)

var categories = []Category{CategoryAMDGPU, CategoryNvidiaGPU, CategoryWildcard}

// Categories returns every competing category in display order.
func Categories() []Category {
	return slices.Clone(categories)
}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(categories, c) {
		return c, true
	}
	return "", false
}

func (c Category) MaxPerTeam() int {
	switch c {
	case CategoryAMDGPU, CategoryNvidiaGPU, CategoryWildcard:
		return 1
	default:
		return 0
	}
}

func (c Category) PermitsHardware(h Hardware) bool {
	switch c {
	case CategoryAMDGPU:
		return h.Make == MakeAMD && h.Type == TypeGPU
	case CategoryNvidiaGPU:
		return h.Make == MakeNvidia && h.Type == TypeGPU
	case CategoryWildcard:
		return true
	default:
		return false
	}
}

// MaximumPermittedAmountForAllCategories is the largest roster a team may have.
func MaximumPermittedAmountForAllCategories() int {
	total := 0
	for _, c := range categories {
		total += c.MaxPerTeam()
	}
	return total
}

const passkeyVisibleChars = 8

type User struct {
	ID              int      `json:"id"`
	FoldingUserName string   `json:"foldingUserName"`
	DisplayName     string   `json:"displayName"`
	Passkey         string   `json:"passkey"`
	Category        Category `json:"category"`
	ProfileLink     string   `json:"profileLink,omitempty"`
	LiveStatsLink   string   `json:"liveStatsLink,omitempty"`
	HardwareID      int      `json:"hardwareId"`
	TeamID          int      `json:"teamId"`
	IsCaptain       bool     `json:"isCaptain"`
}

// MaskedPasskey keeps the first 8 characters and replaces the rest with '*'.
func (u User) MaskedPasskey() string {
	if len(u.Passkey) <= passkeyVisibleChars {
		return u.Passkey
	}
	return u.Passkey[:passkeyVisibleChars] + strings.Repeat("*", len(u.Passkey)-passkeyVisibleChars)
}

// WithoutPasskey returns a copy of the user safe to hand to readers.
func (u User) WithoutPasskey() User {
	u.Passkey = u.MaskedPasskey()
	return u
}
