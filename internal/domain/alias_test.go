package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalState(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Calif.", "California"},
		{"CA", "California"},
		{"DC", "District of Columbia"},
		{"Washington, D.C.", "District of Columbia"},
		{"washington   dc", "District of Columbia"},
		{"Washington", "Washington"},
		{"W.Va.", "West Virginia"},
		{"new york", "New York"},
		{"  Texas  ", "Texas"},
		{"Atlantis", "Atlantis"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalState(tt.in))
		})
	}
}

func TestCanonicalState_Idempotent(t *testing.T) {
	for _, name := range StateNames {
		assert.Equal(t, name, CanonicalState(name), "canonical name must map to itself")
	}
	for alias := range stateAliases {
		once := CanonicalState(alias)
		assert.Equal(t, once, CanonicalState(once), "alias %q", alias)
	}
}

func TestIsKnownState(t *testing.T) {
	assert.True(t, IsKnownState("Texas"))
	assert.False(t, IsKnownState("texas"))
	assert.False(t, IsKnownState("TX"))
	assert.False(t, IsKnownState("Atlantis"))
}
