// Package filter implements the per-(document, attribute) similarity filter:
// it drops rows violating the non-null constraints, then keeps the
// highest-scored remainder under the configured caps.
package filter

import (
	"math"
	"sort"

	"github.com/esgkit/factpanel/internal/model"
)

// Keep filters one (document, attribute) group. Rows missing any of the
// configured non-null columns are dropped first; the rest are ordered by
// score descending with a stable tie-break on ingestion order, and capped.
//
// When both caps are configured, the fractional cap is computed first against
// the eligible row count (rounded up), then the absolute cap is applied as a
// final ceiling. With neither cap set, all eligible rows pass through. An
// empty result is a valid outcome, not an error.
func Keep(facts []model.CandidateFact, cfg model.FilterConfig) []model.CandidateFact {
	eligible := make([]model.CandidateFact, 0, len(facts))
	for _, f := range facts {
		if hasNonNullCols(&f, cfg.NonNullCols) {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return scoreOf(&eligible[i]) > scoreOf(&eligible[j])
	})

	limit := capFor(len(eligible), cfg)
	if limit < len(eligible) {
		eligible = eligible[:limit]
	}
	return eligible
}

// capFor resolves the combined row cap for an eligible-row count.
func capFor(eligibleCount int, cfg model.FilterConfig) int {
	limit := eligibleCount
	if cfg.MaxFracRowsToKeep > 0 {
		frac := int(math.Ceil(cfg.MaxFracRowsToKeep * float64(eligibleCount)))
		if frac < limit {
			limit = frac
		}
	}
	if cfg.MaxRowsToKeep > 0 && cfg.MaxRowsToKeep < limit {
		limit = cfg.MaxRowsToKeep
	}
	if limit < 0 {
		limit = 0
	}
	return limit
}

// scoreOf treats an absent score as lowest, so unscored rows sort last.
func scoreOf(f *model.CandidateFact) float64 {
	if f.Score == nil {
		return math.Inf(-1)
	}
	return *f.Score
}

// hasNonNullCols reports whether every constrained column carries a value.
func hasNonNullCols(f *model.CandidateFact, cols []string) bool {
	for _, col := range cols {
		if columnValue(f, col) == "" {
			return false
		}
	}
	return true
}

// columnValue resolves a constraint column name to the fact field it names.
// Unknown columns resolve to empty, which fails the constraint loudly rather
// than silently passing rows through a typo.
func columnValue(f *model.CandidateFact, col string) string {
	switch col {
	case "variable":
		return f.Variable
	case "value":
		return f.Value
	case "unit":
		return f.Unit
	case "date":
		return f.DateRaw
	case "entity_name":
		return f.EntityNameRaw
	case "context":
		return f.ContextRaw
	case "score":
		if f.Score == nil {
			return ""
		}
		return "set"
	default:
		return ""
	}
}
