// Package panel pivots ranked long-format records into wide per-entity,
// per-attribute panels, one column per distinct variable.
package panel

import (
	"sort"
	"strconv"
	"strings"

	"github.com/esgkit/factpanel/internal/model"
)

// keySep joins index column values into a group key. Unit separator keeps
// keys unambiguous for values containing commas or pipes.
const keySep = "\x1f"

// DefaultIndex is the index used when the caller does not choose one.
var DefaultIndex = []string{"entity_canonical", "attribute", "document_id", "page_num", "row_id"}

// Wide is the pivoted output table.
type Wide struct {
	IndexCols []string
	Variables []string // distinct variable columns, sorted
	Rows      []WideRow
}

// WideRow is one pivoted row: its index values plus one cell per variable.
type WideRow struct {
	Index []string
	Cells map[string]string
}

// Key returns the row's joined index key.
func (r *WideRow) Key() string {
	return strings.Join(r.Index, keySep)
}

// Cell is one (index, variable, value) triple, the melt of a wide cell.
type Cell struct {
	IndexKey string
	Variable string
	Value    string
}

// Pivot builds a wide table keyed by indexCols with one column per distinct
// variable and cell values from value. Two input rows mapping to the same
// (index, variable) cell with different values are a PivotCollision: the
// whole index group is excluded from the output and reported, never
// overwritten. Other groups are unaffected.
//
// Rows with an empty variable or value never form cells. A missing or
// unknown index column is a configuration error and fails the whole call.
func Pivot(records []model.KPIRecord, indexCols []string) (*Wide, []*model.PivotCollision, error) {
	if len(indexCols) == 0 {
		return nil, nil, &model.ConfigError{Field: "index", Reason: "at least one group-by column required"}
	}
	for _, col := range indexCols {
		if !knownIndexCol(col) {
			return nil, nil, &model.ConfigError{Field: "index", Reason: "unknown group-by column " + strconv.Quote(col)}
		}
	}

	type group struct {
		index []string
		cells map[string]string
		order int
	}
	groups := make(map[string]*group)
	var orderedKeys []string
	collided := make(map[string]bool)
	var collisions []*model.PivotCollision
	variables := make(map[string]bool)

	for i := range records {
		rec := &records[i]
		if rec.Variable == "" || rec.Value == "" {
			continue
		}

		index := indexValues(rec, indexCols)
		key := strings.Join(index, keySep)

		g, ok := groups[key]
		if !ok {
			g = &group{index: index, cells: make(map[string]string), order: len(orderedKeys)}
			groups[key] = g
			orderedKeys = append(orderedKeys, key)
		}

		if existing, ok := g.cells[rec.Variable]; ok && existing != rec.Value {
			collided[key] = true
			collisions = append(collisions, &model.PivotCollision{
				IndexKey: strings.Join(index, "|"),
				Variable: rec.Variable,
				Values:   []string{existing, rec.Value},
			})
			continue
		}

		g.cells[rec.Variable] = rec.Value
		variables[rec.Variable] = true
	}

	wide := &Wide{
		IndexCols: indexCols,
		Variables: sortedKeys(variables),
	}
	for _, key := range orderedKeys {
		if collided[key] {
			continue
		}
		g := groups[key]
		wide.Rows = append(wide.Rows, WideRow{Index: g.index, Cells: g.cells})
	}

	return wide, collisions, nil
}

// Melt flattens a wide table back into (index, variable, value) triples.
// Melting a Pivot output reproduces its input cells exactly.
func Melt(w *Wide) []Cell {
	var cells []Cell
	for i := range w.Rows {
		row := &w.Rows[i]
		key := row.Key()
		for _, variable := range w.Variables {
			if value, ok := row.Cells[variable]; ok {
				cells = append(cells, Cell{IndexKey: key, Variable: variable, Value: value})
			}
		}
	}
	return cells
}

// indexValues extracts the index column values from one record.
func indexValues(rec *model.KPIRecord, cols []string) []string {
	values := make([]string, len(cols))
	for i, col := range cols {
		values[i] = indexValue(rec, col)
	}
	return values
}

func indexValue(rec *model.KPIRecord, col string) string {
	switch col {
	case "entity_canonical":
		return rec.EntityCanonical
	case "attribute":
		return rec.Attribute
	case "document_id":
		return rec.DocumentID
	case "page_num":
		return strconv.Itoa(rec.PageNum)
	case "table_or_segment_id":
		return rec.TableID
	case "row_id":
		return strconv.FormatInt(rec.RowID, 10)
	case "year_std":
		return rec.YearStd
	case "unit":
		return rec.Unit
	default:
		return ""
	}
}

func knownIndexCol(col string) bool {
	switch col {
	case "entity_canonical", "attribute", "document_id", "page_num",
		"table_or_segment_id", "row_id", "year_std", "unit":
		return true
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
