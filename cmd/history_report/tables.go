// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	highlightRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}).
				Bold(true).
				PaddingLeft(1).PaddingRight(1)
)

// highlightTable is a lipgloss table where selected rows are highlighted.
type highlightTable struct {
	*lgtable.Table
	count       int
	highlighted map[int]bool
}

// Row adds a row, highlighted if so requested.
func (t *highlightTable) Row(highlight bool, row ...string) {
	if highlight {
		t.highlighted[t.count] = true
	}
	t.Table.Row(row...)
	t.count++
}

// newTable creates a table with the given headers. alignments are given per column, and the last
// one is used for any remaining columns.
func newTable(headers []string, alignments ...lipgloss.Position) *highlightTable {
	t := &highlightTable{highlighted: make(map[int]bool)}
	t.Table = lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == lgtable.HeaderRow {
				return headerRowStyle
			}
			switch {
			case t.highlighted[row]:
				s = highlightRowStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
	return t
}

// Summary compares the runs: the run with the best validation accuracy is highlighted.
func Summary(runs []*run) *lgtable.Table {
	table := newTable(
		[]string{"Run", "Epochs", "Best Epoch", "Best Valid Acc", "Last Train Acc", "Last Valid Acc", "Last Valid Loss"},
		lipgloss.Left, lipgloss.Right)
	bestRunIdx, bestAccuracy := -1, math.Inf(-1)
	for ii, r := range runs {
		if best, found := r.hist.Best(); found && best.ValidAccuracy > bestAccuracy {
			bestRunIdx, bestAccuracy = ii, best.ValidAccuracy
		}
	}
	for ii, r := range runs {
		row := []string{r.name, humanize.Comma(int64(r.hist.Len())), "-", "-", "-", "-", "-"}
		if best, found := r.hist.Best(); found {
			row[2] = fmt.Sprintf("%d", best.Epoch)
			row[3] = formatAccuracy(best.ValidAccuracy)
		}
		if last, found := r.hist.Last(); found {
			row[4] = formatAccuracy(last.TrainAccuracy)
			row[5] = formatAccuracy(last.ValidAccuracy)
			row[6] = formatLoss(last.ValidLoss)
		}
		table.Row(ii == bestRunIdx, row...)
	}
	return table.Table
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
