package rank

import (
	"testing"

	"github.com/esgkit/factpanel/internal/model"
)

func enriched(entity, attribute string, score *float64, yearStd string) model.EnrichedFact {
	return model.EnrichedFact{
		CandidateFact: model.CandidateFact{
			DocumentID: "doc1",
			Attribute:  attribute,
			Variable:   "v",
			Value:      "x",
			Score:      score,
		},
		EntityCanonical: entity,
		YearStd:         yearStd,
	}
}

func score(v float64) *float64 {
	return &v
}

func TestRank_DenseSimilarityRanks(t *testing.T) {
	facts := []model.EnrichedFact{
		enriched("Acme", "ghg", score(0.9), "2021"),
		enriched("Acme", "ghg", score(0.9), "2021"),
		enriched("Acme", "ghg", score(0.7), "2021"),
	}

	records := Rank(facts)

	want := []int{1, 1, 2}
	for i, w := range want {
		if records[i].SimilarityRank != w {
			t.Errorf("row %d: expected similarity rank %d, got %d", i, w, records[i].SimilarityRank)
		}
	}
}

func TestRank_DenseRecencyRanks(t *testing.T) {
	facts := []model.EnrichedFact{
		enriched("Acme", "ghg", score(0.5), "2019"),
		enriched("Acme", "ghg", score(0.5), "2021"),
		enriched("Acme", "ghg", score(0.5), "2021"),
		enriched("Acme", "ghg", score(0.5), "2020"),
	}

	records := Rank(facts)

	want := []int{3, 1, 1, 2}
	for i, w := range want {
		if records[i].RecencyRank != w {
			t.Errorf("row %d: expected recency rank %d, got %d", i, w, records[i].RecencyRank)
		}
	}
}

func TestRank_EmptyYearsShareTrailingRank(t *testing.T) {
	facts := []model.EnrichedFact{
		enriched("Acme", "ghg", score(0.5), "2021"),
		enriched("Acme", "ghg", score(0.5), ""),
		enriched("Acme", "ghg", score(0.5), "2020"),
		enriched("Acme", "ghg", score(0.5), ""),
	}

	records := Rank(facts)

	if records[0].RecencyRank != 1 || records[2].RecencyRank != 2 {
		t.Errorf("expected dated rows ranked 1 and 2, got %d and %d",
			records[0].RecencyRank, records[2].RecencyRank)
	}
	if records[1].RecencyRank != 3 || records[3].RecencyRank != 3 {
		t.Errorf("expected empty-year rows to share trailing rank 3, got %d and %d",
			records[1].RecencyRank, records[3].RecencyRank)
	}
}

func TestRank_GroupsAreIndependent(t *testing.T) {
	facts := []model.EnrichedFact{
		enriched("Acme", "ghg", score(0.2), "2021"),
		enriched("Beta", "ghg", score(0.9), "2021"),
	}

	records := Rank(facts)

	// Each (entity, attribute) group ranks on its own: both rows are alone in
	// their group and get rank 1.
	for i := range records {
		if records[i].SimilarityRank != 1 {
			t.Errorf("row %d: expected rank 1 in singleton group, got %d", i, records[i].SimilarityRank)
		}
	}
}

func TestRank_AbsentScoresShareRank(t *testing.T) {
	facts := []model.EnrichedFact{
		enriched("Acme", "ghg", score(0.5), "2021"),
		enriched("Acme", "ghg", nil, "2021"),
		enriched("Acme", "ghg", nil, "2021"),
	}

	records := Rank(facts)

	if records[0].SimilarityRank != 1 {
		t.Errorf("expected scored row at rank 1, got %d", records[0].SimilarityRank)
	}
	if records[1].SimilarityRank != 2 || records[2].SimilarityRank != 2 {
		t.Errorf("expected unscored rows to share rank 2, got %d and %d",
			records[1].SimilarityRank, records[2].SimilarityRank)
	}
}

func TestRank_PreservesInputOrder(t *testing.T) {
	facts := []model.EnrichedFact{
		enriched("Beta", "ghg", score(0.1), "2020"),
		enriched("Acme", "ghg", score(0.9), "2021"),
	}

	records := Rank(facts)

	if records[0].EntityCanonical != "Beta" || records[1].EntityCanonical != "Acme" {
		t.Errorf("expected input order preserved, got %s, %s",
			records[0].EntityCanonical, records[1].EntityCanonical)
	}
}

func TestSelectTop(t *testing.T) {
	records := Rank([]model.EnrichedFact{
		enriched("Acme", "ghg", score(0.9), "2021"),
		enriched("Acme", "ghg", score(0.9), "2021"),
		enriched("Acme", "ghg", score(0.7), "2021"),
	})

	top := SelectTop(records, 1)
	if len(top) != 2 {
		t.Errorf("expected both rank-1 rows kept, got %d", len(top))
	}

	all := SelectTop(records, 0)
	if len(all) != 3 {
		t.Errorf("expected cutoff 0 to keep everything, got %d", len(all))
	}
}
