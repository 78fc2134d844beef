// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"math"
	"os"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/ui/plots"
	"github.com/pkg/errors"
)

// pointSpecs describes how each column is exported as a plots.Point.
var pointSpecs = []struct {
	column, name, short, metricType string
}{
	{ColTrainLoss, "Train: Mean Loss", "~trn-loss", metrics.LossMetricType},
	{ColValidLoss, "Validation: Mean Loss", "~val-loss", metrics.LossMetricType},
	{ColTrainAccuracy, "Train: Mean Accuracy", "~trn-acc", metrics.AccuracyMetricType},
	{ColValidAccuracy, "Validation: Mean Accuracy", "~val-acc", metrics.AccuracyMetricType},
}

// Points converts the history to plot points, using the epoch as the step.
// Unmeasured values are skipped.
func (h *History) Points() []plots.Point {
	points := make([]plots.Point, 0, 4*len(h.rows))
	for _, row := range h.rows {
		for _, spec := range pointSpecs {
			v := rowValue(row, spec.column)
			if math.IsNaN(v) {
				continue
			}
			points = append(points, plots.Point{
				MetricName: spec.name,
				Short:      spec.short,
				MetricType: spec.metricType,
				Step:       float64(row.Epoch),
				Value:      v,
			})
		}
	}
	return points
}

// WritePoints appends the plot points of the rows in the history to the plot points file
// (plots.TrainingPlotFileName) in dir, typically a checkpoint directory.
//
// The file can later be read with plots.LoadPointsFromCheckpoint.
func (h *History) WritePoints(dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory %q", dir)
	}
	pointsWriter, errChan := plots.CreatePointsWriter(filepath.Join(dir, plots.TrainingPlotFileName))
	for _, point := range h.Points() {
		pointsWriter <- point
	}
	close(pointsWriter)
	return errors.WithMessagef(<-errChan, "while writing plot points of %q", h.Name)
}

func rowValue(row Row, column string) float64 {
	switch column {
	case ColTrainLoss:
		return row.TrainLoss
	case ColTrainAccuracy:
		return row.TrainAccuracy
	case ColValidLoss:
		return row.ValidLoss
	case ColValidAccuracy:
		return row.ValidAccuracy
	}
	return math.NaN()
}
