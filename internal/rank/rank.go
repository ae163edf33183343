// Package rank computes dense similarity and recency ranks within
// (entity_canonical, attribute) groups. No row is merged or dropped here;
// rank-threshold selection is caller policy.
package rank

import (
	"math"
	"sort"
	"strconv"

	"github.com/esgkit/factpanel/internal/model"
)

// groupKey identifies one ranking group.
type groupKey struct {
	entity    string
	attribute string
}

// Rank annotates every enriched fact with similarity_rank and recency_rank.
// Both are dense ranks, descending: the best score and the latest year get
// rank 1, ties share a rank, and the next distinct value gets the previous
// rank plus one. Rows with an empty year_std rank below every row with a
// year, sharing one trailing rank, stable by ingestion order among
// themselves. Output preserves input order.
func Rank(facts []model.EnrichedFact) []model.KPIRecord {
	records := make([]model.KPIRecord, len(facts))
	groups := make(map[groupKey][]int)

	for i, f := range facts {
		records[i] = model.KPIRecord{EnrichedFact: f}
		key := groupKey{entity: f.EntityCanonical, attribute: f.Attribute}
		groups[key] = append(groups[key], i)
	}

	for _, idxs := range groups {
		rankSimilarity(records, idxs)
		rankRecency(records, idxs)
	}

	return records
}

// rankSimilarity assigns dense ranks over score, descending. Absent scores
// sort below every scored row and share a rank.
func rankSimilarity(records []model.KPIRecord, idxs []int) {
	distinct := distinctValuesDesc(idxs, func(i int) float64 {
		if records[i].Score == nil {
			return math.Inf(-1)
		}
		return *records[i].Score
	})

	for _, i := range idxs {
		v := math.Inf(-1)
		if records[i].Score != nil {
			v = *records[i].Score
		}
		records[i].SimilarityRank = distinct[v]
	}
}

// rankRecency assigns dense ranks over year_std, descending, with empty
// years sharing the trailing rank.
func rankRecency(records []model.KPIRecord, idxs []int) {
	distinct := distinctValuesDesc(idxs, func(i int) float64 {
		return yearValue(records[i].YearStd)
	})

	for _, i := range idxs {
		records[i].RecencyRank = distinct[yearValue(records[i].YearStd)]
	}
}

// distinctValuesDesc maps each distinct value among idxs to its dense rank,
// ranks starting at 1 for the largest value.
func distinctValuesDesc(idxs []int, valueOf func(i int) float64) map[float64]int {
	seen := make(map[float64]bool)
	var values []float64
	for _, i := range idxs {
		v := valueOf(i)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	ranks := make(map[float64]int, len(values))
	for r, v := range values {
		ranks[v] = r + 1
	}
	return ranks
}

// yearValue orders 4-digit years numerically and sends empty or malformed
// years to the bottom.
func yearValue(yearStd string) float64 {
	if yearStd == "" {
		return math.Inf(-1)
	}
	y, err := strconv.Atoi(yearStd)
	if err != nil {
		return math.Inf(-1)
	}
	return float64(y)
}
