package filter

import (
	"testing"

	"github.com/esgkit/factpanel/internal/model"
)

func score(v float64) *float64 {
	return &v
}

func fact(id int64, value string, s *float64) model.CandidateFact {
	return model.CandidateFact{
		RowID:      id,
		DocumentID: "doc1",
		Attribute:  "ghg emissions",
		Variable:   "GHG emissions",
		Value:      value,
		Score:      s,
	}
}

func TestKeep_NonNullConstraint(t *testing.T) {
	facts := []model.CandidateFact{
		fact(0, "123", score(0.9)),
		fact(1, "", score(0.95)), // missing value, dropped despite best score
		fact(2, "456", score(0.8)),
	}

	kept := Keep(facts, model.FilterConfig{NonNullCols: []string{"value"}})

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept rows, got %d", len(kept))
	}
	for _, f := range kept {
		if f.Value == "" {
			t.Errorf("row %d with empty value survived the non-null constraint", f.RowID)
		}
	}
}

func TestKeep_AbsoluteCap(t *testing.T) {
	var facts []model.CandidateFact
	for i := 0; i < 10; i++ {
		facts = append(facts, fact(int64(i), "v", score(float64(i))))
	}

	kept := Keep(facts, model.FilterConfig{MaxRowsToKeep: 3})

	if len(kept) != 3 {
		t.Fatalf("expected 3 kept rows, got %d", len(kept))
	}
	// Highest scores win
	for _, f := range kept {
		if *f.Score < 7 {
			t.Errorf("kept row %d with score %v, expected only the top 3 scores", f.RowID, *f.Score)
		}
	}
}

func TestKeep_FractionalCapRoundsUp(t *testing.T) {
	var facts []model.CandidateFact
	for i := 0; i < 5; i++ {
		facts = append(facts, fact(int64(i), "v", score(float64(i))))
	}

	kept := Keep(facts, model.FilterConfig{MaxFracRowsToKeep: 0.5})

	if len(kept) != 3 {
		t.Errorf("expected ceil(0.5*5)=3 kept rows, got %d", len(kept))
	}
}

func TestKeep_CombinedCaps(t *testing.T) {
	// Fractional cap applies against the eligible count first, then the
	// absolute cap is the final ceiling.
	var facts []model.CandidateFact
	for i := 0; i < 10; i++ {
		facts = append(facts, fact(int64(i), "v", score(float64(i))))
	}

	kept := Keep(facts, model.FilterConfig{MaxRowsToKeep: 3, MaxFracRowsToKeep: 0.5})
	if len(kept) != 3 {
		t.Errorf("expected min(5, 3)=3 kept rows, got %d", len(kept))
	}

	kept = Keep(facts, model.FilterConfig{MaxRowsToKeep: 8, MaxFracRowsToKeep: 0.5})
	if len(kept) != 5 {
		t.Errorf("expected min(5, 8)=5 kept rows, got %d", len(kept))
	}
}

func TestKeep_NoCapsKeepsAllEligible(t *testing.T) {
	facts := []model.CandidateFact{
		fact(0, "a", score(0.1)),
		fact(1, "b", score(0.2)),
	}

	kept := Keep(facts, model.FilterConfig{})
	if len(kept) != 2 {
		t.Errorf("expected all rows kept without caps, got %d", len(kept))
	}
}

func TestKeep_AbsentScoreSortsLast(t *testing.T) {
	facts := []model.CandidateFact{
		fact(0, "a", nil),
		fact(1, "b", score(0.5)),
		fact(2, "c", nil),
	}

	kept := Keep(facts, model.FilterConfig{MaxRowsToKeep: 1})

	if len(kept) != 1 {
		t.Fatalf("expected 1 kept row, got %d", len(kept))
	}
	if kept[0].RowID != 1 {
		t.Errorf("expected scored row 1 to win over unscored rows, got row %d", kept[0].RowID)
	}
}

func TestKeep_StableTieOrder(t *testing.T) {
	facts := []model.CandidateFact{
		fact(0, "a", score(0.5)),
		fact(1, "b", score(0.5)),
		fact(2, "c", score(0.5)),
	}

	kept := Keep(facts, model.FilterConfig{MaxRowsToKeep: 2})

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept rows, got %d", len(kept))
	}
	if kept[0].RowID != 0 || kept[1].RowID != 1 {
		t.Errorf("expected ingestion order preserved among ties, got rows %d, %d", kept[0].RowID, kept[1].RowID)
	}
}

func TestKeep_UnknownConstraintColumn(t *testing.T) {
	facts := []model.CandidateFact{fact(0, "a", score(0.5))}

	kept := Keep(facts, model.FilterConfig{NonNullCols: []string{"no_such_column"}})
	if len(kept) != 0 {
		t.Errorf("expected unknown constraint column to drop all rows, got %d", len(kept))
	}
}

func TestKeep_EmptyGroup(t *testing.T) {
	kept := Keep(nil, model.FilterConfig{MaxRowsToKeep: 5})
	if len(kept) != 0 {
		t.Errorf("expected empty result for empty group, got %d rows", len(kept))
	}
}
