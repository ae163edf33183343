// Package verify computes advisory correctness flags for extracted
// (variable, value) pairs against their raw context. Flags never gate row
// removal; downstream stages use them for trust weighting.
package verify

import (
	"context"

	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/model"
)

// Verifier computes the fuzzy and semantic verification flags.
type Verifier struct {
	collab collab.Collaborator
}

// NewVerifier creates a new verifier.
func NewVerifier(c collab.Collaborator) *Verifier {
	return &Verifier{collab: c}
}

// Verify annotates every row with three independent flags:
//
//   - fuzzy_verified: the value appears in the raw context after number and
//     punctuation normalisation (computed locally)
//   - semantic_verified: the delegated consistency check judges the
//     (variable, value) pair consistent with the context
//   - company_verified: same delegated check for the row's entity-name guess
//
// Rows are never dropped here. A failed collaborator call leaves the
// corresponding flag false rather than failing the row.
func (v *Verifier) Verify(ctx context.Context, facts []model.EnrichedFact) ([]model.EnrichedFact, error) {
	out := make([]model.EnrichedFact, 0, len(facts))

	for _, f := range facts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		f.FuzzyVerified = f.ContextRaw != "" && collab.ContainsNormalized(f.ContextRaw, f.Value)
		f.SemanticVerified = v.check(ctx, f.Variable, f.Value, f.ContextRaw, collab.KindVariableValue)
		f.CompanyVerified = v.check(ctx, "company name", f.EntityNameRaw, f.ContextRaw, collab.KindCompanyName)

		out = append(out, f)
	}

	return out, nil
}

func (v *Verifier) check(ctx context.Context, variable, value, contextRaw string, kind collab.VerifyKind) bool {
	if value == "" || contextRaw == "" {
		return false
	}
	resp, err := v.collab.Verify(ctx, &collab.VerifyRequest{
		Variable: variable,
		Value:    value,
		Context:  contextRaw,
		Kind:     kind,
	})
	if err != nil || resp == nil {
		return false
	}
	return resp.Verified
}
