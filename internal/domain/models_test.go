package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_MaskedPasskey(t *testing.T) {
	tests := []struct {
		name    string
		passkey string
		want    string
	}{
		{name: "full passkey", passkey: "abcdefgh" + strings.Repeat("x", 24), want: "abcdefgh" + strings.Repeat("*", 24)},
		{name: "short passkey", passkey: "abc", want: "abc"},
		{name: "empty", passkey: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{Passkey: tt.passkey}
			assert.Equal(t, tt.want, u.MaskedPasskey())
			assert.Equal(t, tt.want, u.WithoutPasskey().Passkey)
			assert.Equal(t, tt.passkey, u.Passkey)
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" nvidia_gpu ")
	assert.True(t, ok)
	assert.Equal(t, CategoryNvidiaGPU, c)

	_, ok = ParseCategory("INTEL_GPU")
	assert.False(t, ok)
}

func TestCategory_PermitsHardware(t *testing.T) {
	amdGPU := Hardware{Make: MakeAMD, Type: TypeGPU}
	nvidiaGPU := Hardware{Make: MakeNvidia, Type: TypeGPU}
	intelCPU := Hardware{Make: MakeIntel, Type: TypeCPU}

	tests := []struct {
		category Category
		hardware Hardware
		want     bool
	}{
		{CategoryAMDGPU, amdGPU, true},
		{CategoryAMDGPU, nvidiaGPU, false},
		{CategoryNvidiaGPU, nvidiaGPU, true},
		{CategoryNvidiaGPU, intelCPU, false},
		{CategoryWildcard, intelCPU, true},
		{Category("UNKNOWN"), amdGPU, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+string(tt.hardware.Make), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.PermitsHardware(tt.hardware))
		})
	}
}

func TestMaximumPermittedAmountForAllCategories(t *testing.T) {
	assert.Equal(t, 3, MaximumPermittedAmountForAllCategories())
	assert.Len(t, Categories(), 3)
}
