package colors

import (
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ThemeMode selects how the terminal background is determined.
type ThemeMode string

const (
	ThemeAuto  ThemeMode = "auto"
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"
)

// Reference backgrounds colours are checked against.
const (
	DarkBackground  = "#000000"
	LightBackground = "#ffffff"
)

// IsDark resolves mode to a dark or light background. Auto mode reads
// COLORFGBG, then asks the terminal through termenv when stdout is a TTY,
// and otherwise assumes dark.
func IsDark(mode ThemeMode) bool {
	switch mode {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	}
	if dark, ok := fromCOLORFGBG(os.Getenv("COLORFGBG")); ok {
		return dark
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return termenv.NewOutput(os.Stdout).HasDarkBackground()
	}
	return true
}

// fromCOLORFGBG parses "fg;bg" (sometimes "fg;default;bg"). ANSI 0-7 and 16
// are dark backgrounds.
func fromCOLORFGBG(v string) (dark, ok bool) {
	parts := strings.Split(v, ";")
	if len(parts) < 2 {
		return false, false
	}
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false, false
	}
	return bg < 8 || bg == 16, true
}

// Legible adjusts a text colour for the given background.
func Legible(fg string, dark bool) string {
	bg := LightBackground
	if dark {
		bg = DarkBackground
	}
	return Readable(fg, bg, MinTextContrast)
}
