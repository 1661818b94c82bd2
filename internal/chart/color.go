package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// parseColor converts a CSS color ("#rgb", "#rrggbb", "rgb()", "rgba()" or a basic
// color name) with drawing.ParseColor. drawing.ParseColor maps malformed input to
// black or transparent, so the shape is checked first and rejected with an error.
func parseColor(s string) (drawing.Color, error) {
	s = strings.TrimSpace(s)
	if err := checkColor(s); err != nil {
		return drawing.Color{}, err
	}
	return drawing.ParseColor(s), nil
}

func checkColor(s string) error {
	switch {
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if (len(hex) != 3 && len(hex) != 6) || strings.Trim(hex, "0123456789abcdefABCDEF") != "" {
			return fmt.Errorf("invalid hex color %q", s)
		}
		return nil
	case strings.HasPrefix(s, "rgba("):
		return checkFunc(s, "rgba(", 4)
	case strings.HasPrefix(s, "rgb("):
		return checkFunc(s, "rgb(", 3)
	}
	if drawing.ColorFromKnown(s).IsZero() {
		return fmt.Errorf("unsupported color %q", s)
	}
	return nil
}

// checkFunc validates the arguments of rgb()/rgba(): 0..255 channels, 0..1 alpha
func checkFunc(s, prefix string, args int) error {
	if !strings.HasSuffix(s, ")") {
		return fmt.Errorf("invalid color %q", s)
	}
	parts := strings.Split(s[len(prefix):len(s)-1], ",")
	if len(parts) != args {
		return fmt.Errorf("invalid color %q: want %d components", s, args)
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 3 {
			a, err := strconv.ParseFloat(p, 64)
			if err != nil || a < 0 || a > 1 {
				return fmt.Errorf("invalid alpha in %q", s)
			}
			continue
		}
		if v, err := strconv.Atoi(p); err != nil || v < 0 || v > 255 {
			return fmt.Errorf("invalid channel %q in %q", p, s)
		}
	}
	return nil
}
