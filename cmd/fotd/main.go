// Command fotd is the reference analysis runner: it loads a flavor
// observation archive, prints per-store summaries, backtests the
// predictive models and reports the latent-structure comparison.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"fotd/adapters/csvfile"
	"fotd/adapters/excel"
	"fotd/adapters/sqlstore"
	"fotd/analytics/evaluate"
	"fotd/analytics/latent"
	"fotd/analytics/metrics"
	"fotd/analytics/predict"
	"fotd/domain/flavor"
	"fotd/internal"
	"fotd/internal/config"
)

func main() {
	var (
		csvPath  = flag.String("csv", "", "load observations from a CSV file")
		xlsxPath = flag.String("xlsx", "", "load observations from a spreadsheet")
		dbDSN    = flag.String("db", "", "load observations from a SQL archive (sqlx DSN)")
		store    = flag.String("store", "", "print the summary for a single store")
	)
	flag.Parse()

	log := internal.DefaultLogger
	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration: %v", err)
		os.Exit(1)
	}

	ds, err := loadDataset(cfg, *csvPath, *xlsxPath, *dbDSN)
	if err != nil {
		log.Error("dataset: %v", err)
		os.Exit(1)
	}
	if ds.Len() == 0 {
		log.Error("dataset is empty; nothing to analyze")
		os.Exit(1)
	}

	if *store != "" {
		printSummary(metrics.StoreSummary(ds, *store, ds.MaxDate()))
		return
	}

	for _, slug := range ds.Stores() {
		printSummary(metrics.StoreSummary(ds, slug, ds.MaxDate()))
	}

	runBacktest(cfg, ds, log)
	runLatent(cfg, ds, log)
}

func loadDataset(cfg *config.Config, csvPath, xlsxPath, dbDSN string) (*flavor.Dataset, error) {
	switch {
	case csvPath != "":
		return csvfile.NewReader(csvPath).Load()
	case xlsxPath != "":
		return excel.NewReader(xlsxPath).Load()
	case dbDSN != "":
		return loadArchive(cfg.Data.DatabaseDriver, dbDSN)
	case cfg.Data.CSVFile != "":
		return csvfile.NewReader(cfg.Data.CSVFile).Load()
	case cfg.Data.ExcelFile != "":
		return excel.NewReader(cfg.Data.ExcelFile).Load()
	case cfg.Data.DatabaseURL != "":
		return loadArchive(cfg.Data.DatabaseDriver, cfg.Data.DatabaseURL)
	}
	return nil, fmt.Errorf("no dataset source: pass -csv, -xlsx or -db, or set FOTD_CSV_FILE / FOTD_EXCEL_FILE / FOTD_DATABASE_URL")
}

func loadArchive(driver, dsn string) (*flavor.Dataset, error) {
	archive, err := sqlstore.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	defer archive.Close()
	return archive.LoadObservations(context.Background())
}

func printSummary(s metrics.Summary) {
	fmt.Printf("%s: %d days, %d flavors, entropy %.3f, evenness %.3f, %d overdue\n",
		s.Store, s.TotalDays, s.UniqueFlavors, s.Entropy, s.Evenness, s.OverdueCount)
	for _, f := range s.TopFlavors {
		fmt.Printf("    %4d  %s\n", f.Count, f.Title)
	}
}

func runBacktest(cfg *config.Config, ds *flavor.Dataset, log *internal.Logger) {
	train, test := evaluate.TimeSplit(ds, cfg.Evaluate.SplitDate)
	if train.Len() == 0 || test.Len() == 0 {
		log.Warn("split date %s leaves an empty train or test set; skipping backtest",
			cfg.Evaluate.SplitDate.Format("2006-01-02"))
		return
	}

	params := predict.Params{
		StoreWeight:     cfg.Predict.StoreWeight,
		RecencyHalfLife: cfg.Predict.RecencyHalfLife,
	}
	reg := predict.NewRegistry()
	freq := predict.NewFrequencyRecencyModelWithParams(params)
	markov := predict.NewMarkovRecencyModelWithParams(params)
	for name, model := range map[string]predict.Predictor{
		"frequency_recency": freq,
		"markov_recency":    markov,
	} {
		if err := model.Fit(train); err != nil {
			log.Error("fit %s: %v", name, err)
			return
		}
		reg.Register(name, model)
	}

	comparison, err := evaluate.CompareRegistry(reg, test, cfg.Evaluate.MaxSamples)
	if err != nil {
		log.Error("backtest: %v", err)
		return
	}

	fmt.Printf("\nbacktest %s (train %d rows, test %d rows)\n",
		comparison.RunID, train.Len(), test.Len())
	fmt.Printf("%-20s %8s %8s %10s %8s %8s\n",
		"model", "top1", "top5", "logloss", "ndcg@10", "n")
	for _, r := range comparison.Results {
		fmt.Printf("%-20s %8.3f %8.3f %10.3f %8.3f %8d\n",
			r.Model, r.TopOneAccuracy, r.TopFiveRecall, r.MeanLogLoss, r.NDCGAt10, r.Samples)
	}
}

func runLatent(cfg *config.Config, ds *flavor.Dataset, log *internal.Logger) {
	matrix := latent.StoreFlavorMatrix(ds, true)
	comparison, err := latent.ComparePCAvsNMF(matrix, cfg.Latent.Components, cfg.Latent.Clusters)
	if err != nil {
		log.Error("latent comparison: %v", err)
		return
	}

	fmt.Printf("\nlatent structure (%d stores x %d flavors, k=%d)\n",
		comparison.Stores, comparison.Flavors, comparison.Components)
	fmt.Printf("  silhouette  pca %.3f  nmf %.3f\n", comparison.PCASilhouette, comparison.NMFSilhouette)
	fmt.Printf("  alignment   pca %.3f  nmf %.3f\n", comparison.PCAAlignment, comparison.NMFAlignment)
	fmt.Printf("  recommendation: %s\n", comparison.Recommendation)

	w, h := latent.NMFDecompose(matrix, cfg.Latent.Components)
	clustering := latent.ClusterStores(w, cfg.Latent.Clusters)
	summary := latent.ClusterSummary(ds, clustering, 5)
	ids := make([]int, 0, len(summary))
	for id := range summary {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Printf("  cluster %d (%d stores): %v\n", id, summary[id].Size, summary[id].TopFlavors)
	}

	topFlavors := latent.FactorTopFlavors(h, 5)
	for _, factor := range h.RowLabels {
		fmt.Printf("  %s: %v\n", factor, topFlavors[factor])
	}
}
