// Package report summarises the results log: per-model statistics, an
// interactive HTML chart and a PNG histogram of launch speeds.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/units"
)

// AllModels labels the summary across every model.
const AllModels = "all"

// Summary describes the speeds logged for one model, in Units.
type Summary struct {
	Model  string  `json:"model"`
	Units  string  `json:"units"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`

	// ReferenceCount results carried a radar reading. MeanReferenceDiff is
	// the mean of (computed - reference) over those results.
	ReferenceCount    int      `json:"reference_count"`
	MeanReferenceDiff *float64 `json:"mean_reference_diff,omitempty"`
}

// Summarize groups records by model and returns one Summary per model,
// sorted by name, followed by the AllModels summary. An empty input yields
// nil.
func Summarize(records []db.ResultRecord, unit string) []Summary {
	if len(records) == 0 {
		return nil
	}
	byModel := make(map[string][]db.ResultRecord)
	for _, r := range records {
		byModel[r.Model] = append(byModel[r.Model], r)
	}
	models := make([]string, 0, len(byModel))
	for m := range byModel {
		models = append(models, m)
	}
	sort.Strings(models)

	out := make([]Summary, 0, len(models)+1)
	for _, m := range models {
		out = append(out, summarize(m, byModel[m], unit))
	}
	return append(out, summarize(AllModels, records, unit))
}

func summarize(model string, records []db.ResultRecord, unit string) Summary {
	speeds := Speeds(records, unit)
	sorted := append([]float64(nil), speeds...)
	sort.Float64s(sorted)

	s := Summary{Model: model, Units: unit, Count: len(speeds)}
	if len(speeds) == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(speeds, nil)
	if len(speeds) < 2 {
		s.StdDev = 0
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	var diffs []float64
	for _, r := range records {
		if r.ReferenceMPS == nil {
			continue
		}
		diffs = append(diffs, units.ConvertSpeed(r.MPS-*r.ReferenceMPS, unit))
	}
	s.ReferenceCount = len(diffs)
	if len(diffs) > 0 {
		d := stat.Mean(diffs, nil)
		s.MeanReferenceDiff = &d
	}
	return s
}

// Speeds converts each record's speed to unit, skipping non-finite values.
func Speeds(records []db.ResultRecord, unit string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		v := units.ConvertSpeed(r.MPS, unit)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
