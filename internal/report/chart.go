package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/units"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderChart writes an HTML page with one scatter series per model, plus
// the radar reference when present, plotted against time.
func RenderChart(w io.Writer, records []db.ResultRecord, unit string) error {
	sorted := append([]db.ResultRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	series := make(map[string][]opts.ScatterData)
	var models []string
	var reference []opts.ScatterData
	for _, r := range sorted {
		ts := r.CreatedAt.Format(time.RFC3339)
		if _, ok := series[r.Model]; !ok {
			models = append(models, r.Model)
		}
		series[r.Model] = append(series[r.Model], opts.ScatterData{
			Value: []interface{}{ts, round2(units.ConvertSpeed(r.MPS, unit))},
			Name:  r.ID,
		})
		if r.ReferenceMPS != nil {
			reference = append(reference, opts.ScatterData{
				Value: []interface{}{ts, round2(units.ConvertSpeed(*r.ReferenceMPS, unit))},
				Name:  r.ID,
			})
		}
	}
	sort.Strings(models)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Shuttle launch speeds", Width: "100%", Height: "640px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Launch speeds", Subtitle: fmt.Sprintf("results=%d units=%s", len(sorted), units.Label(unit))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: units.Label(unit), NameLocation: "middle", NameGap: 40}),
	)
	for _, m := range models {
		scatter.AddSeries(m, series[m], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}
	if len(reference) > 0 {
		scatter.AddSeries("reference radar", reference, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(scatter)
	return page.Render(w)
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
