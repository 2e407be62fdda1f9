package predict

import (
	"time"

	"fotd/analytics/markov"
	"fotd/domain/flavor"
	"fotd/internal/errors"
)

// MarkovRecencyModel predicts tomorrow's flavor from the transition row
// of the store's most recent observed flavor, blended with the global
// frequency distribution and the same recency penalty as
// FrequencyRecencyModel. When the store is unseen, or its last flavor
// has no observed outgoing transitions, the model degrades to the
// frequency baseline.
type MarkovRecencyModel struct {
	params      Params
	stats       *fitStats
	transitions *markov.TransitionMatrix
	lastFlavor  map[string]string // store -> most recent training flavor
}

// NewMarkovRecencyModel creates an unfitted model with default
// parameters.
func NewMarkovRecencyModel() *MarkovRecencyModel {
	return &MarkovRecencyModel{params: DefaultParams()}
}

// NewMarkovRecencyModelWithParams creates an unfitted model with
// explicit blend parameters.
func NewMarkovRecencyModelWithParams(params Params) *MarkovRecencyModel {
	return &MarkovRecencyModel{params: params}
}

// Fit builds the transition matrix and frequency tables from the
// training dataset. The fitted state is immutable afterward.
func (m *MarkovRecencyModel) Fit(ds *flavor.Dataset) error {
	if ds == nil {
		return errors.InvalidDataset("markov-recency model fitted on nil dataset")
	}
	m.stats = newFitStats(ds)
	m.transitions = markov.NewTransitionMatrix(ds)
	m.lastFlavor = make(map[string]string)
	for _, store := range ds.Stores() {
		seq := ds.Store(store)
		if len(seq) > 0 {
			m.lastFlavor[store] = seq[len(seq)-1].Title
		}
	}
	return nil
}

// Flavors returns the sorted training vocabulary, nil before Fit.
func (m *MarkovRecencyModel) Flavors() []string {
	if m.stats == nil {
		return nil
	}
	return m.stats.flavors
}

// PredictProba returns the next-day distribution for a store and date.
func (m *MarkovRecencyModel) PredictProba(store string, date time.Time) flavor.Distribution {
	if m.stats == nil {
		return flavor.Distribution{}
	}
	date = flavor.DateOnly(date)

	base := m.transitionRow(store)
	lastSeen := m.stats.lastSeen[store]

	w := m.params.StoreWeight
	scores := make([]float64, len(m.stats.flavors))
	for i, title := range m.stats.flavors {
		blended := w*base[i] + (1-w)*m.stats.global[i]
		scores[i] = blended * recencyFactor(lastSeen, title, date, m.params.RecencyHalfLife)
	}
	return finishDistribution(m.stats.flavors, scores)
}

// transitionRow picks the store's conditioning distribution: the
// transition row of its most recent flavor when that row carries mass,
// otherwise the store frequency baseline. The transition matrix shares
// the training vocabulary, so rows align with m.stats.flavors.
func (m *MarkovRecencyModel) transitionRow(store string) []float64 {
	last, ok := m.lastFlavor[store]
	if !ok {
		return m.stats.baseline(store)
	}
	row, ok := m.transitions.Row(last)
	if !ok {
		return m.stats.baseline(store)
	}
	var sum float64
	for _, p := range row {
		sum += p
	}
	if sum <= 0 {
		return m.stats.baseline(store)
	}
	return row
}
