package obs

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

var (
	MFitLatencyMs = stats.Float64(
		"nspec/fit_latency",
		"Continuum fit latency",
		stats.UnitMilliseconds,
	)
	MFitIterations = stats.Int64(
		"nspec/fit_iterations",
		"Sigma-clipping iterations per fit",
		stats.UnitDimensionless,
	)
	MAnchorsRejected = stats.Int64(
		"nspec/anchors_rejected",
		"Anchors rejected per fit",
		stats.UnitDimensionless,
	)
	MNormalizeCount = stats.Int64(
		"nspec/normalize_count",
		"Normalization requests",
		stats.UnitDimensionless,
	)
)

func DefaultViews() []*view.View {
	return []*view.View{
		{
			Name:        "nspec/fit_latency",
			Description: "Distribution of continuum fit latency",
			Measure:     MFitLatencyMs,
			Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000),
		},
		{
			Name:        "nspec/fit_iterations",
			Description: "Distribution of sigma-clipping iterations",
			Measure:     MFitIterations,
			Aggregation: view.Distribution(1, 2, 3, 4, 5, 10),
		},
		{
			Name:        "nspec/anchors_rejected",
			Description: "Total anchors rejected by sigma clipping",
			Measure:     MAnchorsRejected,
			Aggregation: view.Sum(),
		},
		{
			Name:        "nspec/normalize_count",
			Description: "Count of normalization requests",
			Measure:     MNormalizeCount,
			Aggregation: view.Count(),
		},
	}
}

func RegisterViews() error {
	return view.Register(DefaultViews()...)
}
