package report

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/units"
)

var ErrNoData = errors.New("no results to plot")

// DefaultBins is used when RenderHistogram is given bins <= 0.
const DefaultBins = 20

// RenderHistogram writes a PNG histogram of logged speeds in unit.
func RenderHistogram(w io.Writer, records []db.ResultRecord, unit string, bins int) error {
	speeds := Speeds(records, unit)
	if len(speeds) == 0 {
		return ErrNoData
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Launch speeds (n=%d)", len(speeds))
	p.X.Label.Text = units.Label(unit)
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(speeds), bins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	p.Add(h)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
