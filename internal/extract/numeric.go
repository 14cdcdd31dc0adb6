package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	compactPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?([km])?$`)
	countToken     = regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d+)?\s*[km]?\b`)
)

// CompactToInt parses counts such as "1,234", "1.2k" or "3M". Commas are
// stripped and the suffix is case-insensitive; k multiplies by 1,000 and m by
// 1,000,000, truncating any remaining fraction. Without a suffix every
// non-digit is dropped. Text with no digits yields nil, never zero.
func CompactToInt(raw string) *int64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	if m := compactPattern.FindStringSubmatch(s); m != nil {
		return scaled(m[1], m[2], m[3])
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// scaled multiplies whole.frac by the suffix using integer arithmetic, so
// "1.2k" is exactly 1200.
func scaled(whole, frac, suffix string) *int64 {
	zeros := 0
	switch suffix {
	case "k":
		zeros = 3
	case "m":
		zeros = 6
	}
	if len(frac) > zeros {
		frac = frac[:zeros]
	}
	digits := whole + frac + strings.Repeat("0", zeros-len(frac))
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// CountToken returns the first count-like token in text ("1.2k" from
// "1.2k comments"), or "" when text has none.
func CountToken(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(countToken.FindString(text)), " ", "")
}
