package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 0.0, Luminance("#000000"), 0.001)
	assert.InDelta(t, 1.0, Luminance("#ffffff"), 0.001)
	assert.InDelta(t, 0.2126, Luminance("#ff0000"), 0.001)
	assert.Equal(t, 0.0, Luminance("red"))
}

func TestContrastRatio(t *testing.T) {
	assert.InDelta(t, 21.0, ContrastRatio("#ffffff", "#000000"), 0.01)
	assert.InDelta(t, 21.0, ContrastRatio("#000000", "#ffffff"), 0.01)
	assert.InDelta(t, 1.0, ContrastRatio("#777777", "#777777"), 0.01)
}

func TestReadable(t *testing.T) {
	tests := []struct {
		name string
		fg   string
		bg   string
	}{
		{"already fine", "#ffffff", "#000000"},
		{"grey on grey", "#808080", "#666666"},
		{"dark on dark", "#333333", "#222222"},
		{"light on white", "#cccccc", "#ffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Readable(tt.fg, tt.bg, MinTextContrast)
			assert.GreaterOrEqual(t, ContrastRatio(got, tt.bg), MinTextContrast, "got %s", got)
		})
	}

	assert.Equal(t, "#ffffff", Readable("#ffffff", "#000000", MinTextContrast))
	assert.Equal(t, "212", Readable("212", "#000000", MinTextContrast))
}

func TestFromCOLORFGBG(t *testing.T) {
	tests := []struct {
		in       string
		dark, ok bool
	}{
		{"15;0", true, true},
		{"0;15", false, true},
		{"12;default;8", false, true},
		{"", false, false},
		{"x;y", false, false},
	}
	for _, tt := range tests {
		dark, ok := fromCOLORFGBG(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.dark, dark, tt.in)
	}
}

func TestIsDark_ExplicitModes(t *testing.T) {
	assert.True(t, IsDark(ThemeDark))
	assert.False(t, IsDark(ThemeLight))

	t.Setenv("COLORFGBG", "0;15")
	assert.False(t, IsDark(ThemeAuto))
}

func TestLegible(t *testing.T) {
	assert.Equal(t, "#cccccc", Legible("#cccccc", true))
	assert.GreaterOrEqual(t, ContrastRatio(Legible("#cccccc", false), LightBackground), MinTextContrast)
}
