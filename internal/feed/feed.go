// Package feed binds external CSV data into a run's VariableMap, one record
// per pass, cycling round-robin across workers. Grounded on the teacher's
// CSVFeeder (internal/attacker/feeder.go).
package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// Feeder supplies the next record in its rotation.
type Feeder interface {
	Next() map[string]string
}

// CSVFeeder cycles round-robin through the rows of a CSV file, the first
// row taken as the header whose values become variable-name suffixes.
type CSVFeeder struct {
	idx     uint64
	records []map[string]string
}

// NewCSVFeeder loads and validates path, returning an error for a missing
// header, an empty header field, or zero data rows.
func NewCSVFeeder(path string) (*CSVFeeder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %q: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %q: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv %q: must have a header and at least one data row", path)
	}

	header := rows[0]
	for _, h := range header {
		if h == "" {
			return nil, fmt.Errorf("csv %q: header contains an empty field", path)
		}
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, v := range row {
			if i < len(header) {
				rec[header[i]] = v
			}
		}
		records = append(records, rec)
	}

	return &CSVFeeder{records: records}, nil
}

// Next returns the next record, wrapping back to the start. Safe for
// concurrent use by many workers.
func (f *CSVFeeder) Next() map[string]string {
	i := atomic.AddUint64(&f.idx, 1) - 1
	return f.records[i%uint64(len(f.records))]
}

// Set resolves every DataSource into a ready Feeder, keyed by source name.
type Set map[string]Feeder

// Load builds a Set from DataSource paths, failing fast on the first
// unreadable file.
func Load(sources []model.DataSource) (Set, error) {
	set := make(Set, len(sources))
	for _, s := range sources {
		f, err := NewCSVFeeder(s.Path)
		if err != nil {
			return nil, fmt.Errorf("data source %q: %w", s.Name, err)
		}
		set[s.Name] = f
	}
	return set, nil
}

// Apply writes one record per source into vars under "<name>.<column>".
func (s Set) Apply(vars map[string]string) {
	for name, f := range s {
		for k, v := range f.Next() {
			vars[name+"."+k] = v
		}
	}
}
