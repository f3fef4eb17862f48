package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hotelscout/pkg/models"
)

// File names inside the data directory. The on-disk JSON is the read
// contract for the dashboard, so names and shapes are stable.
const (
	googleResultsFile      = "google_results.json"
	tripadvisorResultsFile = "tripadvisor_results.json"
	portfolioFile          = "portfolio.json"
	metadataFile           = "metadata.json"
	foldersFile            = "saved_folders.json"
)

// FileStore persists every document this system owns as a flat JSON file
// under one data directory. Single writer assumed; writes go through a
// temp-file rename so a crash mid-write never truncates the previous state.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// SourceResultsFile maps a source name to its result file name.
func SourceResultsFile(source string) (string, bool) {
	switch source {
	case models.SourceGoogle:
		return googleResultsFile, true
	case models.SourceTripadvisor:
		return tripadvisorResultsFile, true
	}
	return "", false
}

// LoadSourceIndex reads a source's result file and indexes it by property
// id. An absent file is an empty index, not an error: first runs and
// deleted files degrade to "no data for this source".
func (s *FileStore) LoadSourceIndex(source string) (map[int]models.SourceRecord, error) {
	name, ok := SourceResultsFile(source)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	idx := map[int]models.SourceRecord{}

	var records []models.SourceRecord
	if err := s.readJSON(name, &records); err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	for _, rec := range records {
		idx[rec.PropertyID] = rec
	}
	return idx, nil
}

// SaveSourceIndex rewrites a source's entire result file from the index.
// Called after every property so partial batch progress is durable.
func (s *FileStore) SaveSourceIndex(source string, idx map[int]models.SourceRecord) error {
	name, ok := SourceResultsFile(source)
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}
	records := make([]models.SourceRecord, 0, len(idx))
	for _, rec := range idx {
		records = append(records, rec)
	}
	return s.writeJSON(name, records)
}

func (s *FileStore) SavePortfolio(records []models.PortfolioRecord) error {
	return s.writeJSON(portfolioFile, records)
}

func (s *FileStore) SaveMetadata(meta models.Metadata) error {
	return s.writeJSON(metadataFile, meta)
}

// LoadFolders reads the saved-folders document; an absent file yields an
// empty document with a non-nil folder slice.
func (s *FileStore) LoadFolders() (models.FolderDocument, error) {
	doc := models.FolderDocument{Folders: []models.SavedFolder{}}
	if err := s.readJSON(foldersFile, &doc); err != nil && !os.IsNotExist(err) {
		return doc, err
	}
	if doc.Folders == nil {
		doc.Folders = []models.SavedFolder{}
	}
	return doc, nil
}

func (s *FileStore) SaveFolders(doc models.FolderDocument) error {
	return s.writeJSON(foldersFile, doc)
}

// ReadRaw returns a persisted file verbatim for the HTTP read endpoints.
// ok is false when the file does not exist yet.
func (s *FileStore) ReadRaw(name string) ([]byte, bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// RawPortfolio returns the portfolio file verbatim.
func (s *FileStore) RawPortfolio() ([]byte, bool, error) { return s.ReadRaw(portfolioFile) }

// RawMetadata returns the metadata file verbatim.
func (s *FileStore) RawMetadata() ([]byte, bool, error) { return s.ReadRaw(metadataFile) }

// RawSource returns a source result file verbatim; ok is false for an
// unknown source as well as an absent file.
func (s *FileStore) RawSource(source string) ([]byte, bool, error) {
	name, known := SourceResultsFile(source)
	if !known {
		return nil, false, nil
	}
	return s.ReadRaw(name)
}

func (s *FileStore) readJSON(name string, v interface{}) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) writeJSON(name string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
