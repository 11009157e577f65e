// Package sellerstats computes per-seller revenue, profit, bonus and top products from a batch
// of purchase records. It performs no I/O; diagnostics are returned alongside the reports.
package sellerstats

// Analyze validates the dataset, folds every purchase record into its seller's totals, ranks
// sellers by profit and projects one report per input seller.
func Analyze(data *Dataset, opts *Options) (*Result, error) {
	v, err := validate(data, opts)
	if err != nil {
		return nil, err
	}

	agg := index(v.sellers, v.products)
	if err := agg.fold(v.records, v.revenue); err != nil {
		return nil, err
	}

	rank(agg.stats, v.bonus)
	if err := checkFinite(agg.stats); err != nil {
		return nil, err
	}

	reports := make([]SellerReport, 0, len(agg.stats))
	for _, st := range agg.stats {
		reports = append(reports, project(st))
	}
	warnings := agg.warnings
	if warnings == nil {
		warnings = []Warning{}
	}
	return &Result{Reports: reports, Warnings: warnings}, nil
}
