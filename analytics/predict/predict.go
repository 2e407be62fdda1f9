// Package predict implements next-day flavor forecasting. Two models
// share the Predictor capability: a frequency-recency blend and a
// Markov-recency blend. Both emit a full probability distribution over
// every flavor seen during training, for any store and date.
package predict

import (
	"math"
	"sort"
	"time"

	"fotd/domain/flavor"
	"fotd/internal/config"
)

// Predictor is the capability every forecasting model provides. Fit owns
// the model's statistics exclusively; instances must not be queried
// before Fit returns.
type Predictor interface {
	Fit(ds *flavor.Dataset) error
	PredictProba(store string, date time.Time) flavor.Distribution
	Flavors() []string
}

// Params are the blend hyperparameters shared by both models. They are
// fixed per instance so evaluation runs stay reproducible.
type Params struct {
	// StoreWeight is the share of the store-local signal in the blend;
	// the remainder goes to the global frequency distribution.
	StoreWeight float64
	// RecencyHalfLife controls the repeat penalty: a flavor served gap
	// days ago is down-weighted by 1 - exp(-gap/halfLife).
	RecencyHalfLife float64
}

// DefaultParams returns the tuned defaults shared with internal/config.
func DefaultParams() Params {
	return Params{
		StoreWeight:     config.DefaultStoreWeight,
		RecencyHalfLife: config.DefaultRecencyHalfLife,
	}
}

// recencyFactor down-weights flavors served close to the query date.
// Never-served flavors get factor 1. A flavor served on or after the
// query date gets factor 0.
func recencyFactor(lastSeen map[string]time.Time, title string, date time.Time, halfLife float64) float64 {
	last, ok := lastSeen[title]
	if !ok {
		return 1.0
	}
	gap := flavor.DaysBetween(last, date)
	if gap <= 0 {
		return 0.0
	}
	return 1.0 - math.Exp(-float64(gap)/halfLife)
}

// finishDistribution renormalizes blended scores into a distribution.
// An all-zero score vector degrades to uniform so the output contract
// (sum 1, non-negative, one entry per flavor) holds for any query.
func finishDistribution(labels []string, scores []float64) flavor.Distribution {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	if sum <= 0 && len(scores) > 0 {
		uniform := 1.0 / float64(len(scores))
		for i := range scores {
			scores[i] = uniform
		}
		return flavor.NewDistribution(labels, scores)
	}
	return flavor.NewDistribution(labels, flavor.NormalizeL1(scores))
}

// fitStats holds the statistics both models derive from training data.
type fitStats struct {
	flavors  []string             // sorted training vocabulary
	index    map[string]int       // title -> position in flavors
	global   []float64            // global P(flavor), aligned to flavors
	store    map[string][]float64 // per-store P(flavor|store), aligned
	lastSeen map[string]map[string]time.Time
}

func newFitStats(ds *flavor.Dataset) *fitStats {
	s := &fitStats{
		flavors:  ds.Flavors(),
		index:    make(map[string]int),
		store:    make(map[string][]float64),
		lastSeen: make(map[string]map[string]time.Time),
	}
	for i, f := range s.flavors {
		s.index[f] = i
	}

	globalCounts := make([]float64, len(s.flavors))
	for _, slug := range ds.Stores() {
		storeCounts := make([]float64, len(s.flavors))
		seen := make(map[string]time.Time)
		for _, o := range ds.Store(slug) {
			i := s.index[o.Title]
			globalCounts[i]++
			storeCounts[i]++
			if o.Date.After(seen[o.Title]) {
				seen[o.Title] = o.Date
			}
		}
		s.store[slug] = flavor.NormalizeL1(storeCounts)
		s.lastSeen[slug] = seen
	}
	s.global = flavor.NormalizeL1(globalCounts)
	return s
}

// baseline returns the store-conditional distribution with global
// backoff for stores absent from training.
func (s *fitStats) baseline(store string) []float64 {
	if p, ok := s.store[store]; ok {
		return p
	}
	return s.global
}

// Registry maps model names to predictor instances for side-by-side
// comparison runs.
type Registry struct {
	models map[string]Predictor
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Predictor)}
}

// Register adds or replaces a named model.
func (r *Registry) Register(name string, model Predictor) {
	r.models[name] = model
}

// Get returns a registered model by name.
func (r *Registry) Get(name string) (Predictor, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.models) }
