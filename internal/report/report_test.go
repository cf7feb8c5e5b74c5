package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/testutil"
	"github.com/banshee-data/shuttle.report/internal/units"
)

func sampleRecords() []db.ResultRecord {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []db.ResultRecord{
		{ID: "a", Model: "exponential", MPS: 60, CreatedAt: base},
		{ID: "b", Model: "exponential", MPS: 80, ReferenceMPS: testutil.Float(78), CreatedAt: base.Add(time.Second)},
		{ID: "c", Model: "linear", MPS: 50, CreatedAt: base.Add(2 * time.Second)},
	}
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Nil(t, Summarize(nil, units.MPS))
}

func TestSummarizeGroupsByModel(t *testing.T) {
	got := Summarize(sampleRecords(), units.MPS)
	require.Len(t, got, 3)

	assert.Equal(t, "exponential", got[0].Model)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 70, got[0].Mean, 1e-9)
	assert.InDelta(t, 14.1421356, got[0].StdDev, 1e-6)
	assert.Equal(t, 60.0, got[0].Min)
	assert.Equal(t, 80.0, got[0].Max)
	assert.Equal(t, 1, got[0].ReferenceCount)
	require.NotNil(t, got[0].MeanReferenceDiff)
	assert.InDelta(t, 2, *got[0].MeanReferenceDiff, 1e-9)

	assert.Equal(t, "linear", got[1].Model)
	assert.Equal(t, 1, got[1].Count)
	assert.Zero(t, got[1].StdDev)
	assert.Equal(t, 50.0, got[1].Median)
	assert.Nil(t, got[1].MeanReferenceDiff)

	all := got[2]
	assert.Equal(t, AllModels, all.Model)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, 60.0, all.Median)
	assert.Equal(t, 80.0, all.P90)
}

func TestSummarizeConvertsUnits(t *testing.T) {
	got := Summarize(sampleRecords()[:1], units.KPH)
	require.NotEmpty(t, got)
	assert.InDelta(t, 216, got[0].Mean, 1e-9)
	assert.Equal(t, units.KPH, got[0].Units)
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, sampleRecords(), units.MPS))

	html := buf.String()
	assert.True(t, strings.Contains(html, "Launch speeds"))
	assert.True(t, strings.Contains(html, "reference radar"))
	assert.True(t, strings.Contains(html, echartsAssetsHost))
}

func TestRenderChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, nil, units.MPH))
	assert.NotZero(t, buf.Len())
}

func TestRenderHistogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistogram(&buf, sampleRecords(), units.MPS, 0))
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte("\x89PNG"), buf.Bytes()[:4])
}

func TestRenderHistogramNoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderHistogram(&buf, nil, units.MPS, 10), ErrNoData)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, -1.24, round2(-1.235))
}
