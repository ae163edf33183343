package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/esgkit/factpanel/internal/model"
	"github.com/esgkit/factpanel/internal/panel"
)

var candidateHeader = []string{
	"document_id", "page_num", "table_or_segment_id", "attribute", "score",
	"variable", "value", "unit", "date_raw", "entity_name_raw", "source_pointer",
}

var enrichedHeader = append(append([]string{"row_id"}, candidateHeader...),
	"context_file", "evidence_image", "fuzzy_verified", "semantic_verified",
	"company_verified", "entity_canonical", "year_std",
)

var rankedHeader = append(append([]string{}, enrichedHeader...),
	"similarity_rank", "recency_rank",
)

// ReadCandidates reads the upstream extraction artifact for one (document,
// attribute) pair. A missing artifact yields zero candidates, not an error:
// not every document mentions every KPI.
func (s *Store) ReadCandidates(ctx context.Context, documentID, attribute string) ([]model.CandidateFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(documentID, StageCandidates, attribute)
	rows, header, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read candidates %s: %w", path, err)
	}

	facts := make([]model.CandidateFact, 0, len(rows))
	for _, row := range rows {
		get := fieldGetter(header, row)

		fact := model.CandidateFact{
			DocumentID:    orDefault(get("document_id"), documentID),
			TableID:       get("table_or_segment_id"),
			Attribute:     orDefault(get("attribute"), attribute),
			Variable:      get("variable"),
			Value:         get("value"),
			Unit:          get("unit"),
			DateRaw:       get("date_raw"),
			EntityNameRaw: get("entity_name_raw"),
			SourcePointer: get("source_pointer"),
		}
		if v := get("page_num"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				fact.PageNum = n
			}
		}
		if v := get("score"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				fact.Score = &f
			}
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

// WriteFiltered persists the post-filter candidate rows for one group.
func (s *Store) WriteFiltered(documentID, attribute string, facts []model.CandidateFact) error {
	records := make([][]string, 0, len(facts))
	for i := range facts {
		records = append(records, candidateRow(&facts[i]))
	}
	return writeCSV(s.Path(documentID, StageFiltered, attribute), candidateHeader, records)
}

// WriteVerified persists the enriched, verified rows for one group.
func (s *Store) WriteVerified(documentID, attribute string, facts []model.EnrichedFact) error {
	records := make([][]string, 0, len(facts))
	for i := range facts {
		records = append(records, enrichedRow(&facts[i]))
	}
	return writeCSV(s.Path(documentID, StageVerified, attribute), enrichedHeader, records)
}

// WriteRanked persists the final KPI records, grouped back under their
// owning documents.
func (s *Store) WriteRanked(documentID, attribute string, records []model.KPIRecord) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		r := &records[i]
		row := enrichedRow(&r.EnrichedFact)
		row = append(row, strconv.Itoa(r.SimilarityRank), strconv.Itoa(r.RecencyRank))
		rows = append(rows, row)
	}
	return writeCSV(s.Path(documentID, StageRanked, attribute), rankedHeader, rows)
}

// WritePanel writes a wide panel table as CSV.
func WritePanel(path string, w *panel.Wide) error {
	header := append(append([]string{}, w.IndexCols...), w.Variables...)
	rows := make([][]string, 0, len(w.Rows))
	for i := range w.Rows {
		row := append([]string{}, w.Rows[i].Index...)
		for _, variable := range w.Variables {
			row = append(row, w.Rows[i].Cells[variable])
		}
		rows = append(rows, row)
	}
	return writeCSV(path, header, rows)
}

// ReadDocInfo reads the document metadata CSV.
func (s *Store) ReadDocInfo(name string) (map[string]model.DocumentMeta, error) {
	path := filepath.Join(s.root, name)
	rows, header, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.DocumentMeta{}, nil
		}
		return nil, fmt.Errorf("read doc info %s: %w", path, err)
	}

	docs := make(map[string]model.DocumentMeta, len(rows))
	for _, row := range rows {
		get := fieldGetter(header, row)
		meta := model.DocumentMeta{
			DocumentID:   get("document_id"),
			OrgNameRaw:   get("org_name_raw"),
			DocumentType: get("document_type"),
		}
		if meta.DocumentID == "" {
			continue
		}
		if v := get("publication_year"); v != "" {
			if y, err := strconv.Atoi(v); err == nil {
				meta.PublicationYear = y
			}
		}
		if v := get("page_count"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				meta.PageCount = n
			}
		}
		docs[meta.DocumentID] = meta
	}
	return docs, nil
}

func candidateRow(f *model.CandidateFact) []string {
	score := ""
	if f.Score != nil {
		score = strconv.FormatFloat(*f.Score, 'f', -1, 64)
	}
	return []string{
		f.DocumentID,
		strconv.Itoa(f.PageNum),
		f.TableID,
		f.Attribute,
		score,
		f.Variable,
		f.Value,
		f.Unit,
		f.DateRaw,
		f.EntityNameRaw,
		f.SourcePointer,
	}
}

func enrichedRow(f *model.EnrichedFact) []string {
	row := append(
		[]string{strconv.FormatInt(f.RowID, 10)},
		candidateRow(&f.CandidateFact)...,
	)
	return append(row,
		f.ContextFile,
		f.EvidenceImage,
		strconv.FormatBool(f.FuzzyVerified),
		strconv.FormatBool(f.SemanticVerified),
		strconv.FormatBool(f.CompanyVerified),
		f.EntityCanonical,
		f.YearStd,
	)
}

// fieldGetter resolves columns by header name so readers tolerate added or
// reordered columns.
func fieldGetter(header map[string]int, row []string) func(string) string {
	return func(col string) string {
		idx, ok := header[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // additive columns allowed

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, map[string]int{}, nil
	}

	header := make(map[string]int, len(all[0]))
	for i, col := range all[0] {
		header[col] = i
	}
	return all[1:], header, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
