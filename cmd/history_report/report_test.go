// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"testing"

	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/ui/plots"
	"github.com/gomlx/tutorials/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNames(t *testing.T) {
	assert.Equal(t, []string{"cnn"}, RunNames("/tmp/runs/cnn"))
	assert.Equal(t, []string{"cnn", "transfer"}, RunNames("/tmp/runs/cnn", "/tmp/runs/transfer/"))
	assert.Equal(t, []string{"cnn", "transfer"},
		RunNames("/tmp/cnn/ckpt/history.csv", "/tmp/transfer/ckpt"))
	// Common trailing components are dropped too.
	assert.Equal(t, []string{"a", "b"}, RunNames("/tmp/a/cnn", "/tmp/b/cnn"))
	assert.Equal(t, []string{"a/x", "b/y"}, RunNames("/tmp/a/x/ckpt", "/tmp/b/y/ckpt"))
	// When a path contains another one, the last common component is kept.
	assert.Equal(t, []string{"runs", "runs/cnn"}, RunNames("/tmp/runs", "/tmp/runs/cnn"))
}

func TestPointsTable(t *testing.T) {
	rendered := pointsToTable([]plots.Point{
		{MetricName: "Train: Mean Loss", Short: "~trn-loss", MetricType: metrics.LossMetricType, Step: 1, Value: 0.5},
		{MetricName: "Train: Mean Accuracy", Short: "~trn-acc", MetricType: metrics.AccuracyMetricType, Step: 1, Value: 0.75},
		{MetricName: "Train: Mean Loss", Short: "~trn-loss", MetricType: metrics.LossMetricType, Step: 2, Value: 0.25},
	}).String()
	for _, want := range []string{"Step", "~trn-loss", "~trn-acc", "75.00%", "0.5", "0.25"} {
		assert.Contains(t, rendered, want)
	}

	_, err := PointsTable(t.TempDir())
	require.Error(t, err)
}

func TestLoadRunAndSummary(t *testing.T) {
	dir := t.TempDir()
	better, worse := history.New("better"), history.New("worse")
	for _, acc := range []float64{0.6, 0.8, 0.7} {
		row := history.NewRow(better.NextEpoch())
		row.TrainLoss, row.ValidLoss, row.TrainAccuracy, row.ValidAccuracy = 1, 1, acc, acc
		require.NoError(t, better.Append(row))
		row = history.NewRow(worse.NextEpoch())
		row.ValidAccuracy = acc / 2
		require.NoError(t, worse.Append(row))
	}
	betterDir := filepath.Join(dir, "better")
	require.NoError(t, better.SaveToDir(betterDir))
	worseCSV := filepath.Join(dir, "worse.csv")
	require.NoError(t, worse.SaveCSV(worseCSV))

	r1, err := loadRun("better", betterDir)
	require.NoError(t, err)
	assert.Equal(t, betterDir, r1.dir)
	assert.Equal(t, 3, r1.hist.Len())
	r2, err := loadRun("worse", worseCSV)
	require.NoError(t, err)
	assert.Empty(t, r2.dir)
	assert.Equal(t, 3, r2.hist.Len())
	_, err = loadRun("missing", filepath.Join(dir, "missing"))
	require.Error(t, err)

	summary := Summary([]*run{r1, r2}).String()
	assert.Contains(t, summary, "80.00%")
	assert.Contains(t, summary, "40.00%")
}
