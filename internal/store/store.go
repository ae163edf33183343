// Package store persists pipeline state as flat tabular artifacts: one CSV
// per (document, stage, attribute) unit, at a path derived deterministically
// from those three identities so re-runs overwrite rather than duplicate.
// Columns are additive-only; readers tolerate columns they do not know.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Stage names used in artifact paths.
const (
	StageCandidates = "candidates"
	StageFiltered   = "filtered"
	StageVerified   = "verified"
	StageRanked     = "ranked"
)

// Store is a flat artifact store rooted at one directory.
type Store struct {
	root string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path derives the artifact path for a (document, stage, attribute) unit.
// The attribute is slugified so every target KPI yields a stable filename.
func (s *Store) Path(documentID, stage, attribute string) string {
	return filepath.Join(
		s.root,
		"entity="+documentID,
		"stage="+stage,
		"attribute="+Slug(attribute)+".csv",
	)
}

// PagePath derives the path of a document's rendered page image.
func (s *Store) PagePath(documentID string, pageNum int) string {
	return filepath.Join(
		s.root,
		"entity="+documentID,
		"stage=page-images",
		fmt.Sprintf("pagenum-%d.png", pageNum),
	)
}

// segmentPath derives the path of a raw text/table segment artifact.
func (s *Store) segmentPath(documentID, pageToken, segmentToken string) string {
	return filepath.Join(
		s.root,
		"entity="+documentID,
		"stage=segments",
		pageToken+"_"+segmentToken+".csv",
	)
}

// WriteJSON writes a JSON artifact (reports, mappings) under the store root.
func (s *Store) WriteJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
