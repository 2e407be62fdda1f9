// Package evaluate backtests flavor predictors: a leakage-free time
// split, per-sample scoring (top-1, top-5, log-loss, NDCG@10) and
// side-by-side model comparison.
package evaluate

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fotd/analytics/predict"
	"fotd/domain/flavor"
)

// sampleSeed is fixed so subsampled evaluation runs are reproducible.
// It is deliberately not configurable.
const sampleSeed = 42

// logLossFloor clips predicted probabilities so -log(p) stays finite
// when a model assigns zero mass to the actual flavor.
const logLossFloor = 1e-15

// Metrics are the scores of one model over one test set. Rate metrics
// are in [0, 1]; MeanLogLoss is non-negative.
type Metrics struct {
	TopOneAccuracy float64
	TopFiveRecall  float64
	MeanLogLoss    float64
	NDCGAt10       float64
	Samples        int
}

// ModelMetrics pairs a model name with its scores.
type ModelMetrics struct {
	Model string
	Metrics
}

// Comparison is a multi-model evaluation report.
type Comparison struct {
	RunID   string
	Results []ModelMetrics // sorted by model name
}

// TimeSplit partitions the dataset strictly by date: train holds
// observations before splitDate, test holds observations on or after
// it. When both are non-empty, max(train) < splitDate <= min(test).
func TimeSplit(ds *flavor.Dataset, splitDate time.Time) (train, test *flavor.Dataset) {
	return ds.Before(splitDate), ds.OnOrAfter(splitDate)
}

// EvaluateModel scores a fitted model on every test row (or on a
// fixed-seed random subsample when maxSamples is positive and the test
// set is larger). An empty test set yields all-zero metrics with
// Samples = 0.
func EvaluateModel(model predict.Predictor, test *flavor.Dataset, maxSamples int) Metrics {
	rows := test.Rows()
	if maxSamples > 0 && len(rows) > maxSamples {
		rng := rand.New(rand.NewSource(sampleSeed))
		perm := rng.Perm(len(rows))
		sampled := make([]flavor.Observation, maxSamples)
		for i := 0; i < maxSamples; i++ {
			sampled[i] = rows[perm[i]]
		}
		rows = sampled
	}

	var m Metrics
	var logLossSum, ndcgSum float64
	for _, row := range rows {
		proba := model.PredictProba(row.Store, row.Date)

		top10 := proba.Top(10)
		if len(top10) > 0 && top10[0].Title == row.Title {
			m.TopOneAccuracy++
		}
		for rank, entry := range top10 {
			if entry.Title != row.Title {
				continue
			}
			if rank < 5 {
				m.TopFiveRecall++
			}
			ndcgSum += 1.0 / math.Log2(float64(rank)+2)
			break
		}

		p := proba.Prob(row.Title)
		if p < logLossFloor {
			p = logLossFloor
		}
		logLossSum += -math.Log(p)

		m.Samples++
	}

	if m.Samples > 0 {
		n := float64(m.Samples)
		m.TopOneAccuracy /= n
		m.TopFiveRecall /= n
		m.MeanLogLoss = logLossSum / n
		m.NDCGAt10 = ndcgSum / n
	}
	return m
}

// CompareModels evaluates every named model on the same test set and
// tabulates the metrics side by side, sorted by model name. Models are
// scored concurrently; each evaluation is independent and the dataset
// is never mutated.
func CompareModels(models map[string]predict.Predictor, test *flavor.Dataset, maxSamples int) (*Comparison, error) {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]ModelMetrics, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = ModelMetrics{
				Model:   name,
				Metrics: EvaluateModel(models[name], test, maxSamples),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Comparison{
		RunID:   uuid.NewString(),
		Results: results,
	}, nil
}

// CompareRegistry evaluates every model in a registry.
func CompareRegistry(reg *predict.Registry, test *flavor.Dataset, maxSamples int) (*Comparison, error) {
	models := make(map[string]predict.Predictor, reg.Len())
	for _, name := range reg.Names() {
		if m, ok := reg.Get(name); ok {
			models[name] = m
		}
	}
	return CompareModels(models, test, maxSamples)
}
