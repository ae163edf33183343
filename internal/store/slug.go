package store

import (
	"strings"
	"unicode"
)

// Slug reduces an attribute string to a filesystem-safe token: lower case,
// runs of non-alphanumerics collapsed to single hyphens. "GHG Scope 1
// emissions" becomes "ghg-scope-1-emissions".
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
