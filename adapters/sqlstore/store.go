// Package sqlstore loads flavor observations from a SQL backfill
// database through sqlx. The original archive lives in sqlite; the same
// query works against postgres when dates are stored as text.
package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"fotd/domain/flavor"
	"fotd/internal"
	"fotd/internal/errors"
)

const dateLayout = "2006-01-02"

// observationsQuery reads the whole archive in (store, date) order.
const observationsQuery = `
SELECT store_slug, flavor_date, title, COALESCE(description, '') AS description
FROM observations
ORDER BY store_slug, flavor_date`

// Store reads observation archives from a SQL database.
type Store struct {
	db  *sqlx.DB
	log *internal.Logger
}

type observationRow struct {
	StoreSlug   string `db:"store_slug"`
	FlavorDate  string `db:"flavor_date"`
	Title       string `db:"title"`
	Description string `db:"description"`
}

// Open connects to the archive. The driver is "sqlite3" for local
// backfill files or "postgres" for server deployments; the caller's
// binary must blank-import the matching driver.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.StorageError("failed to connect to observation archive", err)
	}
	return &Store{db: db, log: internal.DefaultLogger}, nil
}

// NewStore wraps an existing connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, log: internal.DefaultLogger}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadObservations reads the full archive into a validated dataset.
func (s *Store) LoadObservations(ctx context.Context) (*flavor.Dataset, error) {
	var rows []observationRow
	if err := s.db.SelectContext(ctx, &rows, observationsQuery); err != nil {
		return nil, errors.StorageError("failed to query observations", err)
	}

	observations := make([]flavor.Observation, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.FlavorDate)
		if err != nil {
			return nil, errors.BadDate(row.FlavorDate, err)
		}
		observations = append(observations, flavor.Observation{
			Store:       row.StoreSlug,
			Date:        date,
			Title:       row.Title,
			Description: row.Description,
		})
	}

	ds, err := flavor.NewDataset(observations)
	if err != nil {
		return nil, err
	}
	s.log.Info("loaded %d observations from archive (%d stores, %d flavors)",
		ds.Len(), len(ds.Stores()), len(ds.Flavors()))
	return ds, nil
}
