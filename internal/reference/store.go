// Package reference loads the read-only fact records the chatbot answers from.
package reference

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/campusbot/internal/models"
)

//go:embed data/reference.yaml
var defaultData []byte

// Dataset is the serialized form of the reference data, one list per domain.
type Dataset struct {
	Schedules []*models.Schedule     `yaml:"schedules"`
	Notices   []*models.Notice       `yaml:"notices"`
	Programs  []*models.Program      `yaml:"programs"`
	Glossary  []*models.GlossaryTerm `yaml:"glossary"`
}

// Store holds validated records grouped by domain. It is never modified after construction,
// so it is safe for concurrent use.
type Store struct {
	records map[models.Domain][]models.FactRecord
	byID    map[models.Domain]map[int]models.FactRecord
}

// LoadDefault returns the store built from the embedded dataset.
func LoadDefault() (*Store, error) {
	return LoadYAML(defaultData)
}

// Load reads the dataset at path. An empty path selects the embedded dataset;
// files ending in .xlsx are read as workbooks, anything else as YAML.
func Load(path string) (*Store, error) {
	if path == "" {
		return LoadDefault()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		ds, err := ReadWorkbook(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return NewStore(ds)
	}
	return LoadYAML(data)
}

// LoadYAML parses a YAML dataset and builds a store from it.
func LoadYAML(data []byte) (*Store, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	return NewStore(&ds)
}

// NewStore validates ds and indexes its records. Record order within a domain is preserved.
func NewStore(ds *Dataset) (*Store, error) {
	s := &Store{
		records: make(map[models.Domain][]models.FactRecord, len(models.Domains)),
		byID:    make(map[models.Domain]map[int]models.FactRecord, len(models.Domains)),
	}
	if err := addAll(s, ds.Schedules); err != nil {
		return nil, err
	}
	if err := addAll(s, ds.Notices); err != nil {
		return nil, err
	}
	if err := addAll(s, ds.Programs); err != nil {
		return nil, err
	}
	if err := addAll(s, ds.Glossary); err != nil {
		return nil, err
	}
	return s, nil
}

type validRecord interface {
	models.FactRecord
	Validate() error
}

func addAll[T validRecord](s *Store, recs []T) error {
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return err
		}
		if err := s.add(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) add(rec models.FactRecord) error {
	d := rec.Domain()
	ids, ok := s.byID[d]
	if !ok {
		ids = make(map[int]models.FactRecord)
		s.byID[d] = ids
	}
	if _, dup := ids[rec.RecordID()]; dup {
		return fmt.Errorf("duplicate %s id %d", d, rec.RecordID())
	}
	ids[rec.RecordID()] = rec
	s.records[d] = append(s.records[d], rec)
	return nil
}

// Records returns the records of one domain in source order. Callers must not modify the slice.
func (s *Store) Records(d models.Domain) []models.FactRecord {
	return s.records[d]
}

// Get returns a record by domain and id.
func (s *Store) Get(d models.Domain, id int) (models.FactRecord, bool) {
	rec, ok := s.byID[d][id]
	return rec, ok
}

// Count returns the number of records in a domain.
func (s *Store) Count(d models.Domain) int {
	return len(s.records[d])
}

// Counts returns record counts for every domain.
func (s *Store) Counts() map[models.Domain]int {
	out := make(map[models.Domain]int, len(models.Domains))
	for _, d := range models.Domains {
		out[d] = len(s.records[d])
	}
	return out
}

// Dataset rebuilds the serializable form of the store.
func (s *Store) Dataset() *Dataset {
	ds := &Dataset{}
	for _, d := range models.Domains {
		for _, rec := range s.records[d] {
			switch r := rec.(type) {
			case *models.Schedule:
				ds.Schedules = append(ds.Schedules, r)
			case *models.Notice:
				ds.Notices = append(ds.Notices, r)
			case *models.Program:
				ds.Programs = append(ds.Programs, r)
			case *models.GlossaryTerm:
				ds.Glossary = append(ds.Glossary, r)
			}
		}
	}
	return ds
}

// Encode renders the dataset as YAML in the layout LoadYAML reads.
func (ds *Dataset) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return nil, fmt.Errorf("failed to encode reference data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
