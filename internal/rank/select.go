package rank

import "github.com/esgkit/factpanel/internal/model"

// SelectTop keeps records whose similarity_rank is at or above the cutoff
// (rank <= maxRank). A cutoff of zero or less keeps everything. Selection is
// caller policy, deliberately separate from rank computation: multiple rows
// may legitimately share rank 1 and all survive the cut together.
func SelectTop(records []model.KPIRecord, maxRank int) []model.KPIRecord {
	if maxRank <= 0 {
		return records
	}
	kept := make([]model.KPIRecord, 0, len(records))
	for _, r := range records {
		if r.SimilarityRank <= maxRank {
			kept = append(kept, r)
		}
	}
	return kept
}
