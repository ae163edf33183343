// Package pipeline orchestrates a consolidation run: per-(document,
// attribute) groups fan out through a worker pool for extraction, filtering,
// linking and verification, then converge for the batch-level stages of name
// resolution, temporal normalisation, ranking and panel aggregation.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/esgkit/factpanel/internal/cache"
	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/dates"
	"github.com/esgkit/factpanel/internal/evidence"
	"github.com/esgkit/factpanel/internal/llm"
	"github.com/esgkit/factpanel/internal/model"
	"github.com/esgkit/factpanel/internal/names"
	"github.com/esgkit/factpanel/internal/panel"
	"github.com/esgkit/factpanel/internal/rank"
	"github.com/esgkit/factpanel/internal/store"
	"github.com/esgkit/factpanel/internal/verify"
	"github.com/esgkit/factpanel/internal/worker"
)

// Pipeline wires the stores, the collaborator stack and the stages together
// for one or more runs.
type Pipeline struct {
	cfg    *model.Config
	store  *store.Store
	collab collab.Collaborator

	linker     *evidence.Linker
	verifier   *verify.Verifier
	resolver   *names.Resolver
	normalizer *dates.Normalizer
}

// New builds a pipeline from config. The collaborator stack is assembled
// innermost-out: artifact-backed service, retry/rate-limit wrapper, then the
// content-addressed cache.
func New(cfg *model.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if cfg.Store.Root == "" {
		return nil, &model.ConfigError{Field: "store.root", Reason: "artifact store root required"}
	}
	if cfg.Output.Dir == "" {
		return nil, &model.ConfigError{Field: "output.dir", Reason: "output directory required"}
	}

	st := store.New(cfg.Store.Root)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	limiter := worker.NewLimiter(cfg.Collab.RequestsPerSecond, cfg.Collab.Burst)

	var c collab.Collaborator = collab.NewRetrying(
		collab.NewService(st, provider, cfg.Output.Verbose),
		limiter,
		cfg.Collab.MaxRetries,
		cfg.Collab.Timeout,
	)
	if cfg.Cache.Enabled {
		c = collab.NewCached(c, cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL))
	}

	return &Pipeline{
		cfg:        cfg,
		store:      st,
		collab:     c,
		linker:     evidence.NewLinker(c),
		verifier:   verify.NewVerifier(c),
		resolver:   names.NewResolver(c, cfg.Output.Verbose),
		normalizer: dates.NewNormalizer(c),
	}, nil
}

// Run consolidates the given documents against the given target attributes
// and returns the run report. Group failures are isolated in the report; only
// configuration errors and cancellation abort the whole run.
func (p *Pipeline) Run(ctx context.Context, documents, attributes []string) (*model.RunReport, error) {
	if len(documents) == 0 {
		return nil, &model.ConfigError{Field: "documents", Reason: "at least one document required"}
	}
	if len(attributes) == 0 {
		return nil, &model.ConfigError{Field: "attributes", Reason: "at least one target attribute required"}
	}

	report := &model.RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Documents:  len(documents),
		Attributes: attributes,
	}

	docs, err := p.store.ReadDocInfo(p.cfg.Store.DocInfo)
	if err != nil {
		return nil, err
	}

	groupFacts, statuses, err := p.runGroups(ctx, documents, attributes)
	if err != nil {
		return nil, err
	}
	report.Groups = statuses

	// Batch order is documents x attributes, so downstream stages and
	// artifacts come out deterministic regardless of pool scheduling.
	var facts []model.EnrichedFact
	for _, doc := range documents {
		for _, attr := range attributes {
			facts = append(facts, groupFacts[groupID{doc, attr}]...)
		}
	}

	facts, mapping, err := p.resolver.Resolve(ctx, facts, docs)
	if err != nil {
		return nil, err
	}
	report.NameMap = mapping

	facts, err = p.normalizer.Normalize(ctx, facts, docs)
	if err != nil {
		return nil, err
	}

	records := rank.SelectTop(rank.Rank(facts), p.cfg.Output.MaxRank)
	report.Records = len(records)

	if err := p.writeRanked(records); err != nil {
		return nil, err
	}

	collisions, err := p.writePanels(records, attributes)
	if err != nil {
		return nil, err
	}
	report.Collisions = collisions

	report.Duration = time.Since(report.StartedAt)
	if err := p.writeReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

type groupID struct {
	doc  string
	attr string
}

// runGroups fans the (document, attribute) groups out through the batch
// runner and collects verified facts plus per-group statuses.
func (p *Pipeline) runGroups(ctx context.Context, documents, attributes []string) (map[groupID][]model.EnrichedFact, []model.GroupStatus, error) {
	jobs := make([]worker.Job, 0, len(documents)*len(attributes))
	for _, doc := range documents {
		for _, attr := range attributes {
			jobs = append(jobs, &GroupJob{
				DocumentID: doc,
				Attribute:  attr,
				cfg:        p.cfg,
				store:      p.store,
				collab:     p.collab,
				linker:     p.linker,
				verifier:   p.verifier,
			})
		}
	}

	runner := worker.NewRunner(p.cfg.Concurrency.Workers, p.cfg.Collab.BatchSize, p.cfg.Collab.BatchDelay)
	results := runner.Run(ctx, jobs)

	groupFacts := make(map[groupID][]model.EnrichedFact, len(results))
	statuses := make([]model.GroupStatus, 0, len(results))
	for _, res := range results {
		gr, ok := res.(*GroupResult)
		if !ok {
			continue
		}
		if gr.err != nil {
			return nil, nil, gr.err
		}
		statuses = append(statuses, gr.Status)
		groupFacts[groupID{gr.Status.DocumentID, gr.Status.Attribute}] = gr.Facts
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].DocumentID != statuses[j].DocumentID {
			return statuses[i].DocumentID < statuses[j].DocumentID
		}
		return statuses[i].Attribute < statuses[j].Attribute
	})
	return groupFacts, statuses, nil
}

// writeRanked persists the final records back into the store, one artifact
// per surviving (document, attribute) group.
func (p *Pipeline) writeRanked(records []model.KPIRecord) error {
	grouped := make(map[groupID][]model.KPIRecord)
	var order []groupID
	for _, r := range records {
		id := groupID{r.DocumentID, r.Attribute}
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], r)
	}
	for _, id := range order {
		if err := p.store.WriteRanked(id.doc, id.attr, grouped[id]); err != nil {
			return err
		}
	}
	return nil
}

// writePanels pivots the records into one wide panel per target attribute and
// writes them under the output directory.
func (p *Pipeline) writePanels(records []model.KPIRecord, attributes []string) ([]model.CollisionReport, error) {
	byAttr := make(map[string][]model.KPIRecord)
	for _, r := range records {
		byAttr[r.Attribute] = append(byAttr[r.Attribute], r)
	}

	var collisions []model.CollisionReport
	for _, attr := range attributes {
		attrRecords := byAttr[attr]
		if len(attrRecords) == 0 {
			continue
		}

		wide, collided, err := panel.Pivot(attrRecords, panel.DefaultIndex)
		if err != nil {
			return nil, err
		}
		for _, c := range collided {
			collisions = append(collisions, model.CollisionReport{
				Attribute: attr,
				IndexKey:  c.IndexKey,
				Variable:  c.Variable,
				Values:    c.Values,
			})
		}

		path := filepath.Join(p.cfg.Output.Dir, store.Slug(attr)+".csv")
		if err := store.WritePanel(path, wide); err != nil {
			return nil, err
		}
	}
	return collisions, nil
}

// writeReport writes the run report next to the panels.
func (p *Pipeline) writeReport(report *model.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.MkdirAll(p.cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(p.cfg.Output.Dir, "run-report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}
