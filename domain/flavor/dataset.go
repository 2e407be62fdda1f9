package flavor

import (
	"sort"
	"time"

	"fotd/internal/errors"
)

// Dataset is the canonical input to every analysis: a read-only,
// column-accessible table of observations, sorted by store then date.
// A Dataset never mutates after construction, so it is safe to share
// across goroutines.
type Dataset struct {
	obs     []Observation
	byStore map[string][]Observation // date-ordered subslices of obs
	stores  []string                 // sorted
	flavors []string                 // sorted vocabulary across all stores
	maxDate time.Time
}

// NewDataset validates and indexes a set of observations. Empty store or
// title fields and duplicate (store, date) pairs are contract violations.
// Dates are normalized to UTC midnight. An empty input yields a valid
// empty dataset.
func NewDataset(observations []Observation) (*Dataset, error) {
	rows := make([]Observation, len(observations))
	for i, o := range observations {
		if o.Store == "" {
			return nil, errors.InvalidDataset("observation with empty store identifier")
		}
		if o.Title == "" {
			return nil, errors.InvalidDataset("observation with empty flavor title")
		}
		o.Date = DateOnly(o.Date)
		rows[i] = o
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Store != rows[j].Store {
			return rows[i].Store < rows[j].Store
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	for i := 1; i < len(rows); i++ {
		if rows[i].Store == rows[i-1].Store && rows[i].Date.Equal(rows[i-1].Date) {
			return nil, errors.DuplicateObservation(rows[i].Store, rows[i].Date.Format("2006-01-02"))
		}
	}

	return fromSorted(rows), nil
}

// fromSorted indexes rows already sorted by (store, date) and free of
// duplicates.
func fromSorted(rows []Observation) *Dataset {
	ds := &Dataset{
		obs:     rows,
		byStore: make(map[string][]Observation),
	}

	titleSet := make(map[string]struct{})
	start := 0
	for i := range rows {
		titleSet[rows[i].Title] = struct{}{}
		if rows[i].Date.After(ds.maxDate) {
			ds.maxDate = rows[i].Date
		}
		if i+1 == len(rows) || rows[i+1].Store != rows[i].Store {
			ds.byStore[rows[i].Store] = rows[start : i+1]
			ds.stores = append(ds.stores, rows[i].Store)
			start = i + 1
		}
	}

	ds.flavors = make([]string, 0, len(titleSet))
	for t := range titleSet {
		ds.flavors = append(ds.flavors, t)
	}
	sort.Strings(ds.flavors)
	return ds
}

// Len returns the number of observations.
func (ds *Dataset) Len() int { return len(ds.obs) }

// Rows returns the full observation sequence, sorted by store then date.
// Callers must treat the slice as read-only.
func (ds *Dataset) Rows() []Observation { return ds.obs }

// Stores returns the sorted store identifiers present in the dataset.
func (ds *Dataset) Stores() []string { return ds.stores }

// Flavors returns the sorted flavor vocabulary observed anywhere in the
// dataset.
func (ds *Dataset) Flavors() []string { return ds.flavors }

// MaxDate returns the most recent observation date, or the zero time for
// an empty dataset.
func (ds *Dataset) MaxDate() time.Time { return ds.maxDate }

// Store returns the date-ordered observations for one store. Unknown
// stores yield an empty slice. Callers must treat the slice as read-only.
func (ds *Dataset) Store(store string) []Observation { return ds.byStore[store] }

// HasStore reports whether the store contributed any observations.
func (ds *Dataset) HasStore(store string) bool {
	_, ok := ds.byStore[store]
	return ok
}

// Before returns the sub-dataset of observations strictly earlier than
// the cutoff date.
func (ds *Dataset) Before(cutoff time.Time) *Dataset {
	cutoff = DateOnly(cutoff)
	return ds.filter(func(o Observation) bool { return o.Date.Before(cutoff) })
}

// OnOrAfter returns the sub-dataset of observations on or later than the
// cutoff date.
func (ds *Dataset) OnOrAfter(cutoff time.Time) *Dataset {
	cutoff = DateOnly(cutoff)
	return ds.filter(func(o Observation) bool { return !o.Date.Before(cutoff) })
}

func (ds *Dataset) filter(keep func(Observation) bool) *Dataset {
	rows := make([]Observation, 0, len(ds.obs))
	for _, o := range ds.obs {
		if keep(o) {
			rows = append(rows, o)
		}
	}
	return fromSorted(rows)
}
