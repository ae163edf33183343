package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/esgkit/factpanel/internal/llm"
	"github.com/esgkit/factpanel/internal/model"
)

// Service is the default Collaborator implementation. The data-plane
// operations (extraction, lineage) are served from an upstream artifact
// source; the judgement operations (verify, standardize, parse) are served by
// an LLM provider when one is configured and by deterministic heuristics
// otherwise.
type Service struct {
	source   ArtifactSource
	provider llm.Provider // nil when LLM use is disabled
	verbose  bool
}

// NewService creates a collaborator service.
func NewService(source ArtifactSource, provider llm.Provider, verbose bool) *Service {
	return &Service{
		source:   source,
		provider: provider,
		verbose:  verbose,
	}
}

// ExtractCandidates returns the candidate facts extracted upstream for one
// (document, attribute) pair.
func (s *Service) ExtractCandidates(ctx context.Context, req *ExtractCandidatesRequest) (*ExtractCandidatesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	facts, err := s.source.ReadCandidates(ctx, req.DocumentID, req.Attribute)
	if err != nil {
		return nil, fmt.Errorf("read candidates for %s/%s: %w", req.DocumentID, req.Attribute, err)
	}
	return &ExtractCandidatesResponse{Facts: facts}, nil
}

// ResolveLineage walks the lineage graph backward from a derived artifact to
// the nearest raw context. A broken link yields an empty response, not an
// error.
func (s *Service) ResolveLineage(ctx context.Context, req *ResolveLineageRequest) (*ResolveLineageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.source.ResolveLineage(ctx, req.SourcePointer)
	if err != nil {
		var lerr *model.LineageError
		if errors.As(err, &lerr) {
			return &ResolveLineageResponse{}, nil
		}
		return nil, err
	}
	return resp, nil
}

// Verify judges whether a (variable, value) pair is consistent with its
// context. With a provider configured the judgement is delegated; otherwise a
// normalized-containment heuristic answers.
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Context == "" {
		// Nothing to judge against
		return &VerifyResponse{Verified: false, Delegated: false}, nil
	}

	if s.provider != nil {
		resp, err := s.verifyDelegated(ctx, req)
		if err == nil {
			return resp, nil
		}
		if s.verbose {
			fmt.Fprintf(os.Stderr, "verify: provider failed, falling back to heuristic: %v\n", err)
		}
	}

	return &VerifyResponse{
		Verified:  ContainsNormalized(req.Context, req.Value),
		Delegated: false,
	}, nil
}

// StandardizeNames clusters near-duplicate name spellings and picks one
// canonical representative per cluster.
func (s *Service) StandardizeNames(ctx context.Context, req *StandardizeNamesRequest) (*StandardizeNamesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.provider != nil {
		resp, err := s.standardizeDelegated(ctx, req)
		if err != nil {
			// Collaborator unavailable; callers apply the identity fallback.
			return nil, fmt.Errorf("standardize_names: %w", err)
		}
		return resp, nil
	}

	mapping := ClusterNames(req.Names)
	return &StandardizeNamesResponse{Mapping: mapping}, nil
}

// ParseYear reduces a free-text date to a 4-digit year. The local parser
// answers first; the provider is only consulted for dates it cannot read.
// Absence of a resolvable year is an empty response, never an error.
func (s *Service) ParseYear(ctx context.Context, req *ParseYearRequest) (*ParseYearResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if year := ExtractYear(req.DateRaw); year != "" {
		return &ParseYearResponse{Year: year}, nil
	}

	if s.provider != nil {
		resp, err := s.parseYearDelegated(ctx, req)
		if err == nil {
			return resp, nil
		}
		if s.verbose {
			fmt.Fprintf(os.Stderr, "parse_year: provider failed for %q: %v\n", req.DateRaw, err)
		}
	}

	return &ParseYearResponse{}, nil
}

// verifyDelegated asks the provider for a consistency judgement.
func (s *Service) verifyDelegated(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	var prompt string
	switch req.Kind {
	case KindCompanyName:
		prompt = fmt.Sprintf(
			"Context:\n%s\n\nIs %q the name of the organisation this context is about? "+
				"Answer with a JSON object: {\"consistent\": true} or {\"consistent\": false}.",
			truncate(req.Context, 4000), req.Value)
	default:
		prompt = fmt.Sprintf(
			"Context:\n%s\n\nDoes the context state that %q has the value %q? "+
				"Answer with a JSON object: {\"consistent\": true} or {\"consistent\": false}.",
			truncate(req.Context, 4000), req.Variable, req.Value)
	}

	out, err := s.provider.Complete(ctx, llm.CompleteRequest{
		System:   "You verify whether extracted data points are supported by their source context. Answer strictly in JSON.",
		Prompt:   prompt,
		JSONOnly: true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Consistent bool `json:"consistent"`
	}
	if err := json.Unmarshal([]byte(out.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse verify response: %w", err)
	}
	return &VerifyResponse{Verified: parsed.Consistent, Delegated: true}, nil
}

// standardizeDelegated asks the provider to cluster name variants.
func (s *Service) standardizeDelegated(ctx context.Context, req *StandardizeNamesRequest) (*StandardizeNamesResponse, error) {
	unique := dedupe(req.Names)

	var b strings.Builder
	for _, n := range unique {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	prompt := fmt.Sprintf(
		"These organisation names may contain near-duplicate spellings of the same organisation "+
			"(case variants, legal-suffix variants, abbreviations):\n%s\n"+
			"Group the duplicates and pick one canonical spelling per group. "+
			"Answer with a JSON object mapping every input name to its canonical name, "+
			"e.g. {\"Air New Zealand Limited\": \"Air New Zealand\"}. "+
			"Every input name must appear as a key. Do not invent names that are not in the input.",
		b.String())

	out, err := s.provider.Complete(ctx, llm.CompleteRequest{
		System:   "You standardise organisation names. Answer strictly in JSON.",
		Prompt:   prompt,
		JSONOnly: true,
	})
	if err != nil {
		return nil, err
	}

	mapping := make(model.NameMapping)
	if err := json.Unmarshal([]byte(out.Content), &mapping); err != nil {
		return nil, fmt.Errorf("parse standardize response: %w", err)
	}

	// The mapping must stay total over the input and must not invent
	// canonical names; out-of-set targets fall back to the raw name.
	inSet := make(map[string]bool, len(unique))
	for _, n := range unique {
		inSet[n] = true
	}
	for _, n := range unique {
		c, ok := mapping[n]
		if !ok || c == "" || !inSet[c] {
			mapping[n] = n
		}
	}
	for raw := range mapping {
		if !inSet[raw] {
			delete(mapping, raw)
		}
	}
	mapping.Normalize()

	return &StandardizeNamesResponse{Mapping: mapping}, nil
}

// parseYearDelegated asks the provider to read a date the local parser could
// not.
func (s *Service) parseYearDelegated(ctx context.Context, req *ParseYearRequest) (*ParseYearResponse, error) {
	prompt := fmt.Sprintf(
		"What 4-digit calendar year does this date expression refer to: %q? "+
			"Answer with a JSON object: {\"year\": \"2021\"} or {\"year\": \"\"} if no year can be determined.",
		req.DateRaw)

	out, err := s.provider.Complete(ctx, llm.CompleteRequest{
		System:   "You normalise free-text dates to 4-digit years. Answer strictly in JSON.",
		Prompt:   prompt,
		JSONOnly: true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Year string `json:"year"`
	}
	if err := json.Unmarshal([]byte(out.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse year response: %w", err)
	}
	// Refuse anything that is not a plausible 4-digit year
	if ExtractYear(parsed.Year) != parsed.Year {
		return &ParseYearResponse{}, nil
	}
	return &ParseYearResponse{Year: parsed.Year}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var unique []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		unique = append(unique, n)
	}
	return unique
}
