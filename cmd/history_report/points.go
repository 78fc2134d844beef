// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/ui/plots"
	"github.com/pkg/errors"
)

// PointsTable loads the plot points saved in runDir and returns a table with one row per step
// and one column per metric, in order of first appearance.
func PointsTable(runDir string) (*lgtable.Table, error) {
	points, err := plots.LoadPointsFromCheckpoint(runDir)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.Errorf("no plot points found in %q", runDir)
	}
	return pointsToTable(points), nil
}

func pointsToTable(points []plots.Point) *lgtable.Table {
	var columns []string
	columnIdx := make(map[string]int)
	var steps []float64
	values := make(map[float64][]string)
	for _, point := range points {
		idx, found := columnIdx[point.Short]
		if !found {
			idx = len(columns)
			columnIdx[point.Short] = idx
			columns = append(columns, point.Short)
		}
		row, found := values[point.Step]
		if !found {
			steps = append(steps, point.Step)
		}
		for len(row) <= idx {
			row = append(row, "")
		}
		row[idx] = formatPoint(point)
		values[point.Step] = row
	}
	slices.Sort(steps)

	table := newTable(append([]string{"Step"}, columns...), lipgloss.Right)
	for _, step := range steps {
		row := values[step]
		for len(row) < len(columns) {
			row = append(row, "")
		}
		table.Row(false, append([]string{fmt.Sprintf("%g", step)}, row...)...)
	}
	return table.Table
}

func formatPoint(point plots.Point) string {
	if point.MetricType == metrics.AccuracyMetricType {
		return fmt.Sprintf("%.2f%%", 100.0*point.Value)
	}
	return fmt.Sprintf("%.3g", point.Value)
}
