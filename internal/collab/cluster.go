package collab

import (
	"strings"
	"unicode"

	"github.com/esgkit/factpanel/internal/model"
)

// legalSuffixes are trailing tokens that vary between spellings of the same
// organisation and never distinguish two different ones.
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"ltd":          true,
	"limited":      true,
	"llc":          true,
	"plc":          true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ag":           true,
	"se":           true,
	"sa":           true,
	"spa":          true,
	"gmbh":         true,
	"nv":           true,
	"ab":           true,
	"as":           true,
	"asa":          true,
	"oyj":          true,
}

// ClusterNames groups near-duplicate name spellings (case variants,
// legal-suffix variants, punctuation variants) and maps each raw name to one
// canonical representative per cluster: the most frequent variant, ties
// broken by first-seen order. The result is total over the input and
// idempotent under re-application.
//
// Names is a multiset; pass repeated occurrences to inform representative
// choice.
func ClusterNames(names []string) model.NameMapping {
	type variant struct {
		name  string
		count int
		seen  int // first-seen position
	}

	clusters := make(map[string][]*variant) // normalised key -> variants
	index := make(map[string]*variant)      // raw name -> its variant record
	pos := 0

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if v, ok := index[name]; ok {
			v.count++
			continue
		}
		v := &variant{name: name, count: 1, seen: pos}
		pos++
		index[name] = v
		key := normalizeNameKey(name)
		clusters[key] = append(clusters[key], v)
	}

	mapping := make(model.NameMapping, len(index))
	for _, variants := range clusters {
		rep := variants[0]
		for _, v := range variants[1:] {
			if v.count > rep.count || (v.count == rep.count && v.seen < rep.seen) {
				rep = v
			}
		}
		for _, v := range variants {
			mapping[v.name] = rep.name
		}
	}
	mapping.Normalize()

	return mapping
}

// normalizeNameKey reduces a name to its clustering key: lower case, letters
// and digits only, legal suffixes stripped.
func normalizeNameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '/':
			b.WriteRune(' ')
		}
		// Other punctuation ('.', ',', '+', '&') drops out entirely so
		// "S.p.A." and "SpA" collapse to the same token.
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
