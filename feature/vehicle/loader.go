package vehicle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"fleet-sync/core/reconcile"
	"fleet-sync/feature/vehicle/models"
)

// Loader reads the partner CSV feed into normalized vehicle records.
type Loader struct {
	normalizer *Normalizer
}

// NewLoader returns a loader using the given location mapping. A nil map
// disables location translation.
func NewLoader(locations map[string]string) *Loader {
	return &Loader{normalizer: &Normalizer{Locations: locations}}
}

// LoadFile opens and parses a CSV feed file.
func (l *Loader) LoadFile(path string) ([]*models.VehicleRecord, []reconcile.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses a CSV feed. The first row is the header; every data row is
// normalized and validated independently, so one bad row never aborts the
// run. Row errors carry the 1-based line number of the offending row.
func (l *Loader) Load(r io.Reader) ([]*models.VehicleRecord, []reconcile.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty feed")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read feed header: %w", err)
	}

	var (
		records []*models.VehicleRecord
		errs    []reconcile.RowError
	)
	line := 1
	for {
		line++
		raw, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, reconcile.RowError{Line: line, Message: err.Error()})
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = raw[i]
			}
		}

		cleaned := l.normalizer.CleanRow(row)
		rec, err := models.FromRow(cleaned, line)
		if err != nil {
			errs = append(errs, reconcile.RowError{
				Line:    line,
				Key:     cleaned["vin"],
				Message: err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	return records, errs, nil
}
