// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
)

var (
	tableBorderColor  = lipgloss.Color("240")
	headerStyle       = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	cellStyle         = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	bestRowStyle      = cellStyle.Bold(true).Foreground(lipgloss.Color("42"))
	tableHeaderTitles = []string{"Epoch", "Train Acc", "Valid Acc", "Train Loss", "Valid Loss"}
)

// Table returns the per-epoch table, rendered with lipgloss. The row with the best validation
// accuracy is highlighted.
func (h *History) Table() *lgtable.Table {
	best, hasBest := h.Best()
	bestIdx := -1
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(tableBorderColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case row == bestIdx:
				return bestRowStyle
			default:
				return cellStyle
			}
		}).
		Headers(tableHeaderTitles...)
	for ii, row := range h.rows {
		if hasBest && row.Epoch == best.Epoch {
			bestIdx = ii
		}
		table.Row(
			fmt.Sprintf("%d", row.Epoch),
			formatAccuracy(row.TrainAccuracy),
			formatAccuracy(row.ValidAccuracy),
			formatLoss(row.TrainLoss),
			formatLoss(row.ValidLoss))
	}
	return table
}

// String implements fmt.Stringer, returning the rendered table.
func (h *History) String() string {
	return h.Table().String()
}

func formatAccuracy(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", 100*v)
}

func formatLoss(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}
