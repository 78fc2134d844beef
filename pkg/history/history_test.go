// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/ui/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory(t *testing.T) *History {
	h := New("sample")
	require.NoError(t, h.Append(Row{Epoch: 1, TrainLoss: 0.9, TrainAccuracy: 0.6, ValidLoss: 1.0, ValidAccuracy: 0.55}))
	require.NoError(t, h.Append(Row{Epoch: 2, TrainLoss: 0.5, TrainAccuracy: 0.8, ValidLoss: 0.6, ValidAccuracy: 0.75}))
	require.NoError(t, h.Append(Row{Epoch: 3, TrainLoss: 0.3, TrainAccuracy: 0.9, ValidLoss: 0.7, ValidAccuracy: 0.7}))
	return h
}

func TestHistory(t *testing.T) {
	h := New("empty")
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 1, h.NextEpoch())
	_, found := h.Last()
	assert.False(t, found)
	_, found = h.Best()
	assert.False(t, found)
	assert.NotEmpty(t, h.RunID)

	h = sampleHistory(t)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 4, h.NextEpoch())
	last, found := h.Last()
	require.True(t, found)
	assert.Equal(t, 3, last.Epoch)
	best, found := h.Best()
	require.True(t, found)
	assert.Equal(t, 2, best.Epoch)

	// Epochs must increase.
	require.Error(t, h.Append(NewRow(3)))
	assert.Equal(t, 3, h.Len())

	// Rows returns a copy.
	rows := h.Rows()
	rows[0].Epoch = 100
	assert.Equal(t, 1, h.Rows()[0].Epoch)

	// Rows without validation are ignored by Best.
	h = New("no-validation")
	require.NoError(t, h.Append(NewRow(1)))
	_, found = h.Best()
	assert.False(t, found)
}

func TestCSV(t *testing.T) {
	h := sampleHistory(t)
	require.NoError(t, h.Append(Row{Epoch: 4, TrainLoss: 0.2, TrainAccuracy: 0.95, ValidLoss: 0.65, ValidAccuracy: 0.72}))
	var buf bytes.Buffer
	require.NoError(t, h.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "epoch,train_loss,train_accuracy,valid_loss,valid_accuracy", lines[0])

	filePath := filepath.Join(t.TempDir(), "run", CSVFileName)
	require.NoError(t, h.SaveCSV(filePath))
	loaded, err := LoadCSV(filePath)
	require.NoError(t, err)
	assert.Equal(t, "run", loaded.Name)
	require.Equal(t, h.Len(), loaded.Len())
	for ii, want := range h.Rows() {
		got := loaded.Rows()[ii]
		assert.Equal(t, want.Epoch, got.Epoch)
		assert.InDelta(t, want.TrainLoss, got.TrainLoss, 1e-5)
		assert.InDelta(t, want.TrainAccuracy, got.TrainAccuracy, 1e-5)
		assert.InDelta(t, want.ValidLoss, got.ValidLoss, 1e-5)
		assert.InDelta(t, want.ValidAccuracy, got.ValidAccuracy, 1e-5)
	}

	// Missing metric columns are NaN.
	partial, err := ReadCSV("partial", strings.NewReader("epoch,train_loss\n1,0.5\n2,0.25\n"))
	require.NoError(t, err)
	require.Equal(t, 2, partial.Len())
	assert.InDelta(t, 0.25, partial.Rows()[1].TrainLoss, 1e-9)
	assert.True(t, math.IsNaN(partial.Rows()[1].ValidAccuracy))

	// Empty history still writes the header.
	buf.Reset()
	require.NoError(t, New("empty").WriteCSV(&buf))
	assert.Equal(t, "epoch,train_loss,train_accuracy,valid_loss,valid_accuracy\n", buf.String())
}

func TestTable(t *testing.T) {
	h := sampleHistory(t)
	require.NoError(t, h.Append(NewRow(4)))
	table := h.String()
	for _, want := range []string{"Epoch", "Valid Acc", "75.00%", "0.3000", "-"} {
		assert.Contains(t, table, want)
	}
}

func TestPoints(t *testing.T) {
	h := sampleHistory(t)
	require.NoError(t, h.Append(Row{Epoch: 4, TrainLoss: 0.1, TrainAccuracy: math.NaN(), ValidLoss: math.NaN(), ValidAccuracy: math.NaN()}))
	points := h.Points()
	assert.Len(t, points, 3*4+1)
	var numAccuracy int
	for _, p := range points {
		if p.MetricType == metrics.AccuracyMetricType {
			numAccuracy++
		}
	}
	assert.Equal(t, 6, numAccuracy)

	dir := t.TempDir()
	require.NoError(t, h.WritePoints(dir))
	loaded, err := plots.LoadPointsFromCheckpoint(dir)
	require.NoError(t, err)
	assert.Equal(t, points, loaded)
}

func TestSavePlot(t *testing.T) {
	require.Error(t, New("empty").SavePlot(filepath.Join(t.TempDir(), PlotFileName)))

	h := sampleHistory(t)
	require.NoError(t, h.Append(Row{Epoch: 4, TrainLoss: 0.25, TrainAccuracy: 0.93, ValidLoss: math.NaN(), ValidAccuracy: math.NaN()}))
	filePath := filepath.Join(t.TempDir(), "plots", PlotFileName)
	require.NoError(t, h.SavePlot(filePath))
	info, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	figs := h.Figures()
	require.Len(t, figs, 2)
	assert.Len(t, figs[0].Data, 2)
}
