package model

import "fmt"

// CandidateFact is one extracted (variable, value) observation, scored against
// a target attribute (KPI) and carrying a pointer back to the artifact it was
// derived from. Facts are immutable once ingested; later stages only annotate.
type CandidateFact struct {
	RowID         int64    `json:"row_id"`                   // Ingestion order, assigned by CandidateSet
	DocumentID    string   `json:"document_id"`              // Owning document
	PageNum       int      `json:"page_num"`                 // Page the value was extracted from
	TableID       string   `json:"table_or_segment_id"`      // Table or text-segment within the page
	Attribute     string   `json:"attribute"`                // Target KPI the score is measured against
	Score         *float64 `json:"score,omitempty"`          // Relevance score, may be absent
	Variable      string   `json:"variable"`                 // Extracted variable name
	Value         string   `json:"value"`                    // Extracted value
	Unit          string   `json:"unit,omitempty"`           // Unit of measurement, if any
	DateRaw       string   `json:"date_raw,omitempty"`       // Free-text date as extracted
	EntityNameRaw string   `json:"entity_name_raw,omitempty"` // Entity-name guess as extracted
	ContextRaw    string   `json:"context_raw,omitempty"`    // Raw context, empty until lineage is resolved
	SourcePointer string   `json:"source_pointer"`           // Opaque lineage reference
}

// Validate checks the identity fields every fact must carry.
func (f *CandidateFact) Validate() error {
	if f.DocumentID == "" {
		return fmt.Errorf("candidate fact: missing document_id")
	}
	if f.Attribute == "" {
		return fmt.Errorf("candidate fact: missing attribute")
	}
	if f.PageNum < 0 {
		return fmt.Errorf("candidate fact: negative page_num %d", f.PageNum)
	}
	return nil
}

// CandidateSet holds ingested facts in arrival order and assigns row IDs.
// It is the only place row identity is generated.
type CandidateSet struct {
	facts []CandidateFact
	next  int64
}

// NewCandidateSet creates an empty candidate set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{}
}

// Add validates a fact, assigns its row ID and appends it.
func (s *CandidateSet) Add(f CandidateFact) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f.RowID = s.next
	s.next++
	s.facts = append(s.facts, f)
	return nil
}

// AddAll ingests a batch of facts, stopping at the first invalid one.
func (s *CandidateSet) AddAll(facts []CandidateFact) error {
	for i := range facts {
		if err := s.Add(facts[i]); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Facts returns the ingested facts in ingestion order.
func (s *CandidateSet) Facts() []CandidateFact {
	return s.facts
}

// Len returns the number of ingested facts.
func (s *CandidateSet) Len() int {
	return len(s.facts)
}

// DocumentMeta holds per-document publication facts, produced once by the
// external document-info extractor and read-only thereafter.
type DocumentMeta struct {
	DocumentID      string `json:"document_id"`
	OrgNameRaw      string `json:"org_name_raw"`
	PublicationYear int    `json:"publication_year"`
	DocumentType    string `json:"document_type,omitempty"`
	PageCount       int    `json:"page_count,omitempty"`
}

// EnrichedFact is a CandidateFact plus the columns the pipeline stages add.
// Each stage returns a new row set; nothing is mutated in place.
type EnrichedFact struct {
	CandidateFact

	ContextFile      string `json:"context_file,omitempty"`   // Artifact the raw context came from
	EvidenceImage    string `json:"evidence_image,omitempty"` // Rendered page image, if available
	FuzzyVerified    bool   `json:"fuzzy_verified"`
	SemanticVerified bool   `json:"semantic_verified"`
	CompanyVerified  bool   `json:"company_verified"` // Verifier flag for the entity-name claim
	EntityCanonical  string `json:"entity_canonical,omitempty"`
	YearStd          string `json:"year_std,omitempty"` // 4-digit year, empty when unresolvable
}

// KPIRecord is the final ranked unit: an EnrichedFact with its dense ranks
// within the (entity_canonical, attribute) group.
type KPIRecord struct {
	EnrichedFact

	SimilarityRank int `json:"similarity_rank"`
	RecencyRank    int `json:"recency_rank"`
}
