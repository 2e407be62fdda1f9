// Package csvfile loads flavor observations from CSV exports. Expected
// columns: store_slug, flavor_date (YYYY-MM-DD), title, description.
package csvfile

import (
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"

	"fotd/domain/flavor"
	"fotd/internal"
	"fotd/internal/errors"
)

const dateLayout = "2006-01-02"

var requiredColumns = []string{"store_slug", "flavor_date", "title"}

// Reader loads observation CSV files into datasets.
type Reader struct {
	path string
	log  *internal.Logger
}

// NewReader creates a reader for one CSV file.
func NewReader(path string) *Reader {
	return &Reader{path: path, log: internal.DefaultLogger}
}

// Load parses the file into a validated dataset.
func (r *Reader) Load() (*flavor.Dataset, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.StorageError("failed to open CSV file", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Error() != nil {
		return nil, errors.StorageError("failed to parse CSV file", df.Error())
	}

	columns := make(map[string]int, len(df.Names()))
	for i, name := range df.Names() {
		columns[name] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, errors.MissingColumn(required)
		}
	}
	descIdx, hasDesc := columns["description"]

	records := df.Records()[1:] // drop header row
	observations := make([]flavor.Observation, 0, len(records))
	for _, rec := range records {
		date, err := time.Parse(dateLayout, rec[columns["flavor_date"]])
		if err != nil {
			return nil, errors.BadDate(rec[columns["flavor_date"]], err)
		}
		o := flavor.Observation{
			Store: rec[columns["store_slug"]],
			Date:  date,
			Title: rec[columns["title"]],
		}
		if hasDesc {
			o.Description = rec[descIdx]
		}
		observations = append(observations, o)
	}

	ds, err := flavor.NewDataset(observations)
	if err != nil {
		return nil, err
	}
	r.log.Info("loaded %d observations from %s (%d stores, %d flavors)",
		ds.Len(), r.path, len(ds.Stores()), len(ds.Flavors()))
	return ds, nil
}
