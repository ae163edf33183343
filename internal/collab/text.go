package collab

import (
	"regexp"
	"strings"
	"unicode"
)

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// ExtractYear pulls the last plausible 4-digit year out of a free-text date.
// Ranges like "2020-2021" and fiscal notations like "FY2021" resolve to the
// later year. Returns empty when no year is present.
func ExtractYear(dateRaw string) string {
	matches := yearPattern.FindAllString(dateRaw, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// ContainsNormalized reports whether needle appears inside haystack after
// both are normalized: case folded, whitespace and punctuation collapsed,
// digit grouping separators dropped. "1,234.5 t" matches "1234.5t".
func ContainsNormalized(haystack, needle string) bool {
	h := normalizeForMatch(haystack)
	n := normalizeForMatch(needle)
	if n == "" {
		return false
	}
	if strings.Contains(h, n) {
		return true
	}

	// Near-match fallback: compare digits only, so "32%" still matches a
	// context that renders it as "32 %" or "32 percent".
	hd := digitsOnly(h)
	nd := digitsOnly(n)
	return nd != "" && strings.Contains(hd, nd)
}

// normalizeForMatch lowers case and strips everything except letters and
// digits, keeping '.' so decimal values stay distinguishable.
func normalizeForMatch(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
