// Package colors keeps configured sidebar colours readable on the terminal
// background.
package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinTextContrast is the WCAG AA ratio for normal text.
const MinTextContrast = 4.5

// Luminance is the WCAG relative luminance of a #rrggbb colour, 0 for black
// (and for anything unparsable) up to 1 for white.
func Luminance(hex string) float64 {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return 0
	}
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b)
}

func linear(c int) float64 {
	v := float64(c) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio is between 1 (identical) and 21 (black on white).
func ContrastRatio(a, b string) float64 {
	la, lb := Luminance(a), Luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// IsLight reports whether hex is closer to white than black.
func IsLight(hex string) bool {
	return Luminance(hex) > 0.5
}

// Readable moves fg away from bg in 10% steps until the pair reaches
// minRatio, falling back to black or white. Unparsable colours are returned
// unchanged so named and ANSI colours pass through.
func Readable(fg, bg string, minRatio float64) string {
	if _, _, _, ok := parseHex(fg); !ok {
		return fg
	}
	if _, _, _, ok := parseHex(bg); !ok {
		return fg
	}
	if ContrastRatio(fg, bg) >= minRatio {
		return fg
	}
	lighten := Luminance(fg) > Luminance(bg)
	for step := 1; step <= 10; step++ {
		amount := float64(step) / 10
		var next string
		if lighten {
			next = mix(fg, "#ffffff", amount)
		} else {
			next = mix(fg, "#000000", amount)
		}
		if ContrastRatio(next, bg) >= minRatio {
			return next
		}
	}
	if IsLight(bg) {
		return "#000000"
	}
	return "#ffffff"
}

// mix moves a toward b by amount (0 to 1).
func mix(a, b string, amount float64) string {
	ar, ag, ab, _ := parseHex(a)
	br, bg, bb, _ := parseHex(b)
	blend := func(x, y int) int {
		return x + int(math.Round(float64(y-x)*amount))
	}
	return fmt.Sprintf("#%02x%02x%02x", blend(ar, br), blend(ag, bg), blend(ab, bb))
}

func parseHex(hex string) (r, g, b int, ok bool) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
