// Package evidence resolves filtered candidate facts back to their
// originating raw context via the extraction lineage.
package evidence

import (
	"context"

	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/model"
)

// Linker attaches raw context and page-image evidence to candidate facts.
type Linker struct {
	collab collab.Collaborator
}

// NewLinker creates a new evidence linker.
func NewLinker(c collab.Collaborator) *Linker {
	return &Linker{collab: c}
}

// LinkResult summarises one linking pass.
type LinkResult struct {
	Facts    []model.EnrichedFact
	Linked   int
	Unlinked int
}

// Link resolves lineage for every fact and returns enriched rows. An
// unresolvable lineage leaves the evidence fields empty and keeps the row;
// only context cancellation aborts the pass.
func (l *Linker) Link(ctx context.Context, facts []model.CandidateFact) (*LinkResult, error) {
	result := &LinkResult{
		Facts: make([]model.EnrichedFact, 0, len(facts)),
	}

	for _, f := range facts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		enriched := model.EnrichedFact{CandidateFact: f}

		resp, err := l.collab.ResolveLineage(ctx, &collab.ResolveLineageRequest{
			SourcePointer: f.SourcePointer,
		})
		if err != nil || resp == nil || resp.Empty() {
			// MissingLineage is non-fatal: keep the row, evidence stays empty.
			result.Unlinked++
			result.Facts = append(result.Facts, enriched)
			continue
		}

		enriched.ContextRaw = resp.ContextRaw
		enriched.ContextFile = resp.ContextFile
		enriched.EvidenceImage = resp.EvidenceImage
		result.Linked++
		result.Facts = append(result.Facts, enriched)
	}

	return result, nil
}
