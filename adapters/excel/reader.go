// Package excel loads flavor observations from spreadsheet exports.
// The sheet needs a header row with store_slug, flavor_date, title and
// optionally description columns.
package excel

import (
	"time"

	"github.com/xuri/excelize/v2"

	"fotd/domain/flavor"
	"fotd/internal"
	"fotd/internal/errors"
)

const dateLayout = "2006-01-02"

// DefaultSheet is read when no sheet name is configured.
const DefaultSheet = "Sheet1"

// Reader loads observation spreadsheets into datasets.
type Reader struct {
	path  string
	sheet string
	log   *internal.Logger
}

// NewReader creates a reader for one workbook, reading DefaultSheet.
func NewReader(path string) *Reader {
	return &Reader{path: path, sheet: DefaultSheet, log: internal.DefaultLogger}
}

// NewSheetReader creates a reader for a specific sheet.
func NewSheetReader(path, sheet string) *Reader {
	return &Reader{path: path, sheet: sheet, log: internal.DefaultLogger}
}

// Load parses the sheet into a validated dataset.
func (r *Reader) Load() (*flavor.Dataset, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.StorageError("failed to open workbook", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.StorageError("failed to read sheet "+r.sheet, err)
	}
	if len(rows) == 0 {
		return flavor.NewDataset(nil)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[name] = i
	}
	for _, required := range []string{"store_slug", "flavor_date", "title"} {
		if _, ok := columns[required]; !ok {
			return nil, errors.MissingColumn(required)
		}
	}
	descIdx, hasDesc := columns["description"]

	cell := func(rec []string, idx int) string {
		// trailing empty cells are trimmed by excelize
		if idx < len(rec) {
			return rec[idx]
		}
		return ""
	}

	observations := make([]flavor.Observation, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		raw := cell(rec, columns["flavor_date"])
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, errors.BadDate(raw, err)
		}
		o := flavor.Observation{
			Store: cell(rec, columns["store_slug"]),
			Date:  date,
			Title: cell(rec, columns["title"]),
		}
		if hasDesc {
			o.Description = cell(rec, descIdx)
		}
		observations = append(observations, o)
	}

	ds, err := flavor.NewDataset(observations)
	if err != nil {
		return nil, err
	}
	r.log.Info("loaded %d observations from %s!%s (%d stores, %d flavors)",
		ds.Len(), r.path, r.sheet, len(ds.Stores()), len(ds.Flavors()))
	return ds, nil
}
