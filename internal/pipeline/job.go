package pipeline

import (
	"context"
	"fmt"

	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/evidence"
	"github.com/esgkit/factpanel/internal/filter"
	"github.com/esgkit/factpanel/internal/model"
	"github.com/esgkit/factpanel/internal/store"
	"github.com/esgkit/factpanel/internal/verify"
	"github.com/esgkit/factpanel/internal/worker"
)

// GroupJob processes one (document, attribute) group through the per-group
// stages: extraction, similarity filtering, evidence linking and
// verification. Groups are independent; a failure here is recorded in the
// group's status and never propagates to siblings.
type GroupJob struct {
	DocumentID string
	Attribute  string

	cfg      *model.Config
	store    *store.Store
	collab   collab.Collaborator
	linker   *evidence.Linker
	verifier *verify.Verifier
}

// GroupResult is the outcome of one group job. Identity travels in the status
// because pool results arrive unordered.
type GroupResult struct {
	Status model.GroupStatus
	Facts  []model.EnrichedFact
	err    error
}

// GetError implements worker.Result. Only cancellation surfaces here; group
// failures are carried in the status.
func (r *GroupResult) GetError() error {
	return r.err
}

// Execute implements worker.Job.
func (j *GroupJob) Execute(ctx context.Context) worker.Result {
	return j.run(ctx)
}

func (j *GroupJob) run(ctx context.Context) *GroupResult {
	result := &GroupResult{
		Status: model.GroupStatus{
			DocumentID: j.DocumentID,
			Attribute:  j.Attribute,
			State:      model.GroupOK,
		},
	}

	extracted, err := j.collab.ExtractCandidates(ctx, &collab.ExtractCandidatesRequest{
		DocumentID: j.DocumentID,
		Attribute:  j.Attribute,
	})
	if err != nil {
		return j.fail(result, ctx, fmt.Errorf("extract: %w", err))
	}

	set := model.NewCandidateSet()
	if err := set.AddAll(extracted.Facts); err != nil {
		return j.fail(result, ctx, fmt.Errorf("ingest: %w", err))
	}
	result.Status.Extracted = set.Len()

	kept := filter.Keep(set.Facts(), j.cfg.Filter)
	result.Status.Kept = len(kept)
	if err := j.store.WriteFiltered(j.DocumentID, j.Attribute, kept); err != nil {
		return j.fail(result, ctx, fmt.Errorf("write filtered: %w", err))
	}
	if len(kept) == 0 {
		result.Status.State = model.GroupEmpty
		return result
	}

	linked, err := j.linker.Link(ctx, kept)
	if err != nil {
		return j.fail(result, ctx, fmt.Errorf("link evidence: %w", err))
	}
	result.Status.Linked = linked.Linked
	result.Status.Unlinked = linked.Unlinked

	verified, err := j.verifier.Verify(ctx, linked.Facts)
	if err != nil {
		return j.fail(result, ctx, fmt.Errorf("verify: %w", err))
	}
	if err := j.store.WriteVerified(j.DocumentID, j.Attribute, verified); err != nil {
		return j.fail(result, ctx, fmt.Errorf("write verified: %w", err))
	}

	result.Facts = verified
	return result
}

// fail marks the group failed. Cancellation is the one condition that also
// surfaces as a result error, so the run loop can stop scheduling.
func (j *GroupJob) fail(result *GroupResult, ctx context.Context, err error) *GroupResult {
	result.Status.State = model.GroupFailed
	result.Status.Error = err.Error()
	result.Facts = nil
	if ctx.Err() != nil {
		result.err = ctx.Err()
	}
	return result
}
