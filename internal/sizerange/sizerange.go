// Package sizerange turns free-text employee counts ("11-50 employees",
// "10,001+ employees", "1.5K") into numeric intervals and matches them
// against a target window.
package sizerange

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Interval is an employee-count range. When OpenEnded is set only Min is
// known and Max is zero.
type Interval struct {
	Min       int
	Max       int
	OpenEnded bool
}

func (iv Interval) String() string {
	if iv.OpenEnded {
		return fmt.Sprintf("[%d, +inf)", iv.Min)
	}
	return fmt.Sprintf("[%d, %d]", iv.Min, iv.Max)
}

var (
	leadingNumberRe = regexp.MustCompile(`(\d+\.?\d*)([KM]?)`)
	decimalRe       = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Parse converts a size string to an Interval. It reports false for the
// unknown sentinel ("N/A", empty) and for anything it cannot read.
func Parse(raw string) (Interval, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "n/a") {
		return Interval{}, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "employees", "")
	s = strings.TrimSpace(s)

	switch {
	case strings.Contains(s, "+"):
		m := leadingNumberRe.FindString(strings.ToUpper(s))
		if m == "" {
			return Interval{}, false
		}
		n, err := parseNumber(m)
		if err != nil {
			return Interval{}, false
		}
		return Interval{Min: n, OpenEnded: true}, true

	case strings.Contains(s, "-"):
		parts := strings.Split(s, "-")
		lo, err := parseNumber(parts[0])
		if err != nil {
			return Interval{}, false
		}
		hi, err := parseNumber(parts[1])
		if err != nil {
			return Interval{}, false
		}
		return Interval{Min: lo, Max: hi}, true

	default:
		n, err := parseNumber(s)
		if err != nil {
			return Interval{}, false
		}
		return Interval{Min: n, Max: n}, true
	}
}

// parseNumber reads an integer, scaling a decimal with a K or M suffix.
// Fractions are truncated after scaling.
func parseNumber(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	scale := 0.0
	switch {
	case strings.Contains(s, "K"):
		s, scale = strings.ReplaceAll(s, "K", ""), 1_000
	case strings.Contains(s, "M"):
		s, scale = strings.ReplaceAll(s, "M", ""), 1_000_000
	}

	if scale == 0 {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, eris.Errorf("sizerange: invalid number %q", raw)
		}
		return n, nil
	}

	// ParseFloat also takes Inf, NaN and exponents; only plain decimals count.
	s = strings.TrimSpace(s)
	if !decimalRe.MatchString(s) {
		return 0, eris.Errorf("sizerange: invalid number %q", raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("sizerange: invalid number %q", raw)
	}
	v := f * scale
	if v >= math.MaxInt64 {
		return 0, eris.Errorf("sizerange: number out of range %q", raw)
	}
	return int(v), nil
}

// Window is an inclusive target range of employee counts.
type Window struct {
	Min int
	Max int
}

// Matches reports whether iv overlaps the window. Open-ended intervals never
// match, even when their lower bound falls inside the window.
func (w Window) Matches(iv Interval) bool {
	if iv.OpenEnded {
		return false
	}
	return iv.Max >= w.Min && iv.Min <= w.Max
}

// MatchesSize parses raw and applies Matches. Unparseable sizes do not match.
func (w Window) MatchesSize(raw string) bool {
	iv, ok := Parse(raw)
	if !ok {
		return false
	}
	return w.Matches(iv)
}
