// Package names maps raw entity-name strings to canonical entity
// identifiers, applying the document-level fallback policy before delegating
// clustering to the standardisation collaborator.
package names

import (
	"context"
	"fmt"
	"os"

	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/model"
)

// Resolver builds the raw-to-canonical name mapping for a batch and applies
// it to enriched rows.
type Resolver struct {
	collab  collab.Collaborator
	verbose bool
}

// NewResolver creates a new name resolver.
func NewResolver(c collab.Collaborator, verbose bool) *Resolver {
	return &Resolver{collab: c, verbose: verbose}
}

// Resolve assigns entity_canonical to every row. Policy, in order:
//
//  1. An empty entity-name guess is replaced by the owning document's
//     publisher name.
//  2. A guess whose company-name verification flag is false is replaced by
//     the publisher name regardless of what was extracted.
//  3. The surviving names are standardised in one batch call; if the
//     clustering collaborator is unavailable the identity mapping applies
//     and the batch proceeds.
//
// The returned mapping is total over the batch names and idempotent.
func (r *Resolver) Resolve(ctx context.Context, facts []model.EnrichedFact, docs map[string]model.DocumentMeta) ([]model.EnrichedFact, model.NameMapping, error) {
	// Fallback substitution first, so the clustering call sees the names the
	// rows will actually carry.
	substituted := make([]string, 0, len(facts))
	for i := range facts {
		substituted = append(substituted, r.effectiveName(&facts[i], docs))
	}

	mapping := r.standardize(ctx, substituted)

	out := make([]model.EnrichedFact, 0, len(facts))
	for i, f := range facts {
		f.EntityCanonical = mapping.Canonical(substituted[i])
		out = append(out, f)
	}

	return out, mapping, nil
}

// effectiveName applies the document-fallback policy to one row.
func (r *Resolver) effectiveName(f *model.EnrichedFact, docs map[string]model.DocumentMeta) string {
	raw := f.EntityNameRaw
	if raw == "" || !f.CompanyVerified {
		if meta, ok := docs[f.DocumentID]; ok && meta.OrgNameRaw != "" {
			return meta.OrgNameRaw
		}
	}
	return raw
}

// standardize clusters the batch names, falling back to the identity mapping
// when the collaborator fails.
func (r *Resolver) standardize(ctx context.Context, names []string) model.NameMapping {
	nonEmpty := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			nonEmpty = append(nonEmpty, n)
		}
	}
	if len(nonEmpty) == 0 {
		return model.NameMapping{}
	}

	resp, err := r.collab.StandardizeNames(ctx, &collab.StandardizeNamesRequest{Names: nonEmpty})
	if err != nil || resp == nil || resp.Mapping == nil {
		if r.verbose {
			fmt.Fprintf(os.Stderr, "name standardisation unavailable, using identity mapping: %v\n", err)
		}
		return model.Identity(nonEmpty)
	}

	mapping := resp.Mapping
	// Guarantee totality even if the collaborator dropped a name.
	for _, n := range nonEmpty {
		if _, ok := mapping[n]; !ok {
			mapping[n] = n
		}
	}
	mapping.Normalize()
	return mapping
}
