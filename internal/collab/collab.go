// Package collab defines the typed contracts for the external collaborator
// operations the consolidation pipeline depends on: candidate extraction,
// lineage resolution, verification, name standardisation and year parsing.
// Each operation has an explicit request/response pair with a required-field
// contract; there are no loosely-typed request maps.
package collab

import (
	"context"
	"fmt"

	"github.com/esgkit/factpanel/internal/model"
)

// Operation names, used for rate limiting and content-addressed caching.
const (
	OpExtractCandidates = "extract_candidates"
	OpResolveLineage    = "resolve_lineage"
	OpVerify            = "verify"
	OpStandardizeNames  = "standardize_names"
	OpParseYear         = "parse_year"
)

// VerifyKind selects what a verify call checks.
type VerifyKind string

const (
	KindVariableValue VerifyKind = "variable-value"
	KindCompanyName   VerifyKind = "company-name"
)

// ExtractCandidatesRequest asks for the candidate facts extracted from one
// document against one target attribute.
type ExtractCandidatesRequest struct {
	DocumentID string `json:"document_id"`
	Attribute  string `json:"attribute"`
}

// Validate checks required fields.
func (r *ExtractCandidatesRequest) Validate() error {
	if r.DocumentID == "" {
		return fmt.Errorf("extract_candidates: missing document_id")
	}
	if r.Attribute == "" {
		return fmt.Errorf("extract_candidates: missing attribute")
	}
	return nil
}

// ExtractCandidatesResponse carries the extracted candidate facts.
type ExtractCandidatesResponse struct {
	Facts []model.CandidateFact `json:"facts"`
}

// ResolveLineageRequest asks for the raw context behind a derived artifact.
type ResolveLineageRequest struct {
	SourcePointer string `json:"source_pointer"`
}

// Validate checks required fields.
func (r *ResolveLineageRequest) Validate() error {
	if r.SourcePointer == "" {
		return fmt.Errorf("resolve_lineage: missing source_pointer")
	}
	return nil
}

// ResolveLineageResponse carries the nearest human-readable context found by
// walking the lineage backward. All fields may be empty when the backward
// link is broken; that is not an error.
type ResolveLineageResponse struct {
	ContextRaw    string `json:"context_raw,omitempty"`
	ContextFile   string `json:"context_file,omitempty"`
	EvidenceImage string `json:"evidence_image,omitempty"`
}

// Empty reports whether lineage resolution found nothing.
func (r *ResolveLineageResponse) Empty() bool {
	return r.ContextRaw == "" && r.ContextFile == "" && r.EvidenceImage == ""
}

// VerifyRequest asks whether a (variable, value) pair is consistent with its
// context. Kind selects the variable-value check or the company-name check.
type VerifyRequest struct {
	Variable string     `json:"variable"`
	Value    string     `json:"value"`
	Context  string     `json:"context"`
	Kind     VerifyKind `json:"kind"`
}

// Validate checks required fields.
func (r *VerifyRequest) Validate() error {
	if r.Value == "" {
		return fmt.Errorf("verify: missing value")
	}
	switch r.Kind {
	case KindVariableValue, KindCompanyName:
	default:
		return fmt.Errorf("verify: unknown kind %q", r.Kind)
	}
	return nil
}

// VerifyResponse carries the advisory verification flag. Delegated reports
// whether an external semantic judge produced the answer, as opposed to the
// local heuristic fallback.
type VerifyResponse struct {
	Verified  bool `json:"verified"`
	Delegated bool `json:"delegated"`
}

// StandardizeNamesRequest asks for near-duplicate name spellings to be
// clustered under one canonical representative each. Names is treated as a
// multiset: duplicates inform frequency-based representative choice.
type StandardizeNamesRequest struct {
	Names []string `json:"names"`
}

// Validate checks required fields.
func (r *StandardizeNamesRequest) Validate() error {
	if len(r.Names) == 0 {
		return fmt.Errorf("standardize_names: empty name set")
	}
	return nil
}

// StandardizeNamesResponse carries the raw-to-canonical mapping. The mapping
// is total over the request names and idempotent under re-application.
type StandardizeNamesResponse struct {
	Mapping model.NameMapping `json:"mapping"`
}

// ParseYearRequest asks for a free-text date to be reduced to a 4-digit year.
type ParseYearRequest struct {
	DateRaw string `json:"date_raw"`
}

// Validate checks required fields.
func (r *ParseYearRequest) Validate() error {
	if r.DateRaw == "" {
		return fmt.Errorf("parse_year: missing date_raw")
	}
	return nil
}

// ParseYearResponse carries the standardized year, or empty when the date
// could not be reduced to one. Empty is a value, never an error.
type ParseYearResponse struct {
	Year string `json:"year,omitempty"`
}

// Collaborator is the boundary to the external extraction, verification and
// standardisation services. All operations are idempotent: calling twice with
// the same request must not recompute or duplicate existing output.
type Collaborator interface {
	ExtractCandidates(ctx context.Context, req *ExtractCandidatesRequest) (*ExtractCandidatesResponse, error)
	ResolveLineage(ctx context.Context, req *ResolveLineageRequest) (*ResolveLineageResponse, error)
	Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error)
	StandardizeNames(ctx context.Context, req *StandardizeNamesRequest) (*StandardizeNamesResponse, error)
	ParseYear(ctx context.Context, req *ParseYearRequest) (*ParseYearResponse, error)
}

// ArtifactSource serves the two data-plane operations from an upstream
// artifact store: candidate CSVs and the lineage graph behind them.
type ArtifactSource interface {
	ReadCandidates(ctx context.Context, documentID, attribute string) ([]model.CandidateFact, error)
	ResolveLineage(ctx context.Context, sourcePointer string) (*ResolveLineageResponse, error)
}
