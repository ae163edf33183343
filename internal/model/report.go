package model

import "time"

// GroupState is the terminal state of one (document, attribute) group.
type GroupState string

const (
	GroupOK      GroupState = "ok"
	GroupEmpty   GroupState = "empty"  // no eligible rows survived filtering
	GroupFailed  GroupState = "failed" // retries exhausted or fatal stage error
	GroupSkipped GroupState = "skipped"
)

// GroupStatus reports what happened to one (document, attribute) group.
// Failures are isolated here; one failed group never aborts its siblings.
type GroupStatus struct {
	DocumentID string     `json:"document_id"`
	Attribute  string     `json:"attribute"`
	State      GroupState `json:"state"`
	Error      string     `json:"error,omitempty"`

	Extracted int `json:"extracted"` // candidate rows returned by the extractor
	Kept      int `json:"kept"`      // rows surviving the similarity filter
	Linked    int `json:"linked"`    // rows with resolved lineage
	Unlinked  int `json:"unlinked"`  // rows kept with empty evidence fields
}

// CollisionReport is one excluded aggregation cell-group.
type CollisionReport struct {
	Attribute string   `json:"attribute"`
	IndexKey  string   `json:"index_key"`
	Variable  string   `json:"variable"`
	Values    []string `json:"values"`
}

// RunReport is the per-run summary: group statuses, panel collisions and the
// name mapping the run produced.
type RunReport struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Documents  int               `json:"documents"`
	Attributes []string          `json:"attributes"`
	Groups     []GroupStatus     `json:"groups"`
	Collisions []CollisionReport `json:"collisions,omitempty"`
	NameMap    NameMapping       `json:"name_map,omitempty"`
	Records    int               `json:"records"` // ranked KPI records produced
}

// Failed returns the statuses of groups that did not complete.
func (r *RunReport) Failed() []GroupStatus {
	var failed []GroupStatus
	for _, g := range r.Groups {
		if g.State == GroupFailed {
			failed = append(failed, g)
		}
	}
	return failed
}
