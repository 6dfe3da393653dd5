package pageviews

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Covers ASCII whitespace plus no-break and other Unicode space separators.
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	// The counter is rendered with thousands separators and sometimes with
	// spaces between digit groups, so both are allowed inside the capture.
	totalPattern = regexp.MustCompile(`(?i)Total\s*Pageviews\s*([0-9][0-9,\s]*[0-9])\s*Since`)
)

// ParseTotalPageviews extracts the "Total Pageviews <n> Since" counter from an
// HTML document. It returns false when the phrase is missing or the number is
// not a positive integer that fits in int64.
func ParseTotalPageviews(html string) (int64, bool) {
	compact := whitespaceRun.ReplaceAllString(html, " ")
	m := totalPattern.FindStringSubmatch(compact)
	if m == nil {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
