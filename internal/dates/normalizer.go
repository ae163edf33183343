// Package dates maps free-text date strings to standardized 4-digit years,
// with the owning document's publication year as the fallback.
package dates

import (
	"context"
	"strconv"

	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/model"
)

// Normalizer assigns year_std to enriched rows.
type Normalizer struct {
	collab collab.Collaborator
}

// NewNormalizer creates a new temporal normalizer.
func NewNormalizer(c collab.Collaborator) *Normalizer {
	return &Normalizer{collab: c}
}

// Normalize assigns year_std to every row. An empty date takes the document's
// publication year; otherwise the external parser is consulted once per
// distinct date string, falling back to the publication year when parsing
// yields nothing. Never errors on unresolvable dates: a row without a
// resolvable year carries an empty year_std and stays in the batch.
func (n *Normalizer) Normalize(ctx context.Context, facts []model.EnrichedFact, docs map[string]model.DocumentMeta) ([]model.EnrichedFact, error) {
	// One parse per distinct date string across the batch.
	parsed := make(map[string]string)
	for i := range facts {
		raw := facts[i].DateRaw
		if raw == "" {
			continue
		}
		if _, ok := parsed[raw]; ok {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := n.collab.ParseYear(ctx, &collab.ParseYearRequest{DateRaw: raw})
		if err != nil || resp == nil {
			parsed[raw] = ""
			continue
		}
		parsed[raw] = resp.Year
	}

	out := make([]model.EnrichedFact, 0, len(facts))
	for _, f := range facts {
		year := ""
		if f.DateRaw != "" {
			year = parsed[f.DateRaw]
		}
		if year == "" {
			year = publicationYear(f.DocumentID, docs)
		}
		f.YearStd = year
		out = append(out, f)
	}

	return out, nil
}

func publicationYear(documentID string, docs map[string]model.DocumentMeta) string {
	meta, ok := docs[documentID]
	if !ok || meta.PublicationYear <= 0 {
		return ""
	}
	return strconv.Itoa(meta.PublicationYear)
}
