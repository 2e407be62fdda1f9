package predict

import (
	"time"

	"fotd/domain/flavor"
	"fotd/internal/errors"
)

// FrequencyRecencyModel predicts tomorrow's flavor from how often each
// flavor appears (store-local blended with global) and how recently it
// was last served at the queried store. The blend is
//
//	score(f) = (w·P(f|store) + (1-w)·P(f)) · (1 - exp(-gap_f/halfLife))
//
// with the recency term fixed at 1 for flavors never served at the
// store, then renormalized.
type FrequencyRecencyModel struct {
	params Params
	stats  *fitStats
}

// NewFrequencyRecencyModel creates an unfitted model with default
// parameters.
func NewFrequencyRecencyModel() *FrequencyRecencyModel {
	return &FrequencyRecencyModel{params: DefaultParams()}
}

// NewFrequencyRecencyModelWithParams creates an unfitted model with
// explicit blend parameters.
func NewFrequencyRecencyModelWithParams(params Params) *FrequencyRecencyModel {
	return &FrequencyRecencyModel{params: params}
}

// Fit derives the model's frequency and recency tables from the
// training dataset. The fitted state is immutable afterward.
func (m *FrequencyRecencyModel) Fit(ds *flavor.Dataset) error {
	if ds == nil {
		return errors.InvalidDataset("frequency-recency model fitted on nil dataset")
	}
	m.stats = newFitStats(ds)
	return nil
}

// Flavors returns the sorted training vocabulary, nil before Fit.
func (m *FrequencyRecencyModel) Flavors() []string {
	if m.stats == nil {
		return nil
	}
	return m.stats.flavors
}

// PredictProba returns the next-day distribution for a store and date.
// Stores unseen during training fall back to the global distribution.
func (m *FrequencyRecencyModel) PredictProba(store string, date time.Time) flavor.Distribution {
	if m.stats == nil {
		return flavor.Distribution{}
	}
	date = flavor.DateOnly(date)

	base := m.stats.baseline(store)
	lastSeen := m.stats.lastSeen[store]

	w := m.params.StoreWeight
	scores := make([]float64, len(m.stats.flavors))
	for i, title := range m.stats.flavors {
		blended := w*base[i] + (1-w)*m.stats.global[i]
		scores[i] = blended * recencyFactor(lastSeen, title, date, m.params.RecencyHalfLife)
	}
	return finishDistribution(m.stats.flavors, scores)
}
