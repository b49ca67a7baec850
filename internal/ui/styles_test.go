package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAccentColor(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"", "", false},
		{"none", "", false},
		{"OFF", "", false},
		{"default", "", false},
		{"39", "39", true},
		{"  244 ", "244", true},
		{"256", "", false},
		{"-1", "", false},
		{"#7aa2f7", "#7aa2f7", true},
		{"#ABC", "#aabbcc", true},
		{"#zzzzzz", "", false},
		{"#12345", "", false},
		{"purple", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeAccentColor(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestConfigureTheme(t *testing.T) {
	origAccent, origBold, origColor := Accent, AccentBold, accentColor
	t.Cleanup(func() {
		Accent, AccentBold, accentColor = origAccent, origBold, origColor
	})

	ConfigureTheme("39")
	color, ok := AccentColor()
	assert.True(t, ok)
	assert.Equal(t, "39", color)

	ConfigureTheme("none")
	_, ok = AccentColor()
	assert.False(t, ok)
}
