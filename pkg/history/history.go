// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package history records per-epoch training metrics (train/validation loss and accuracy),
// and renders them as a table, CSV file, PNG plots, notebook figures or plot points that
// GoMLX's plotting tools can read from a checkpoint directory.
//
// A History only grows: one row is appended per completed epoch.
package history

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Row holds the metrics of one epoch.
//
// Values that were not measured are NaN.
type Row struct {
	Epoch         int     `dataframe:"epoch"`
	TrainLoss     float64 `dataframe:"train_loss"`
	TrainAccuracy float64 `dataframe:"train_accuracy"`
	ValidLoss     float64 `dataframe:"valid_loss"`
	ValidAccuracy float64 `dataframe:"valid_accuracy"`
}

// NewRow returns a row for the given epoch with all metrics set to NaN.
func NewRow(epoch int) Row {
	nan := math.NaN()
	return Row{Epoch: epoch, TrainLoss: nan, TrainAccuracy: nan, ValidLoss: nan, ValidAccuracy: nan}
}

// History of a training run.
type History struct {
	// RunID uniquely identifies the training run. It's used to name exported plot points.
	RunID string

	// Name of the model trained, used in titles.
	Name string

	rows []Row
}

// New creates an empty History for the given model name.
func New(name string) *History {
	return &History{
		RunID: uuid.NewString(),
		Name:  name,
	}
}

// Append a row for a new epoch.
//
// Epochs must be strictly increasing, otherwise an error is returned and the history is not changed.
func (h *History) Append(row Row) error {
	if n := len(h.rows); n > 0 && row.Epoch <= h.rows[n-1].Epoch {
		return errors.Errorf("history %q: epoch %d appended after epoch %d", h.Name, row.Epoch, h.rows[n-1].Epoch)
	}
	h.rows = append(h.rows, row)
	return nil
}

// NextEpoch returns the epoch number to use for the next row: 1 for an empty history.
func (h *History) NextEpoch() int {
	if len(h.rows) == 0 {
		return 1
	}
	return h.rows[len(h.rows)-1].Epoch + 1
}

// Len returns the number of epochs recorded.
func (h *History) Len() int { return len(h.rows) }

// Rows returns a copy of the rows recorded.
func (h *History) Rows() []Row { return slices.Clone(h.rows) }

// Last returns the last row. It returns false if the history is empty.
func (h *History) Last() (Row, bool) {
	if len(h.rows) == 0 {
		return Row{}, false
	}
	return h.rows[len(h.rows)-1], true
}

// Best returns the row with the highest validation accuracy, ties go to the earliest epoch.
// Rows with unknown validation accuracy are ignored.
//
// It returns false if no row has a validation accuracy.
func (h *History) Best() (best Row, found bool) {
	for _, row := range h.rows {
		if math.IsNaN(row.ValidAccuracy) {
			continue
		}
		if !found || row.ValidAccuracy > best.ValidAccuracy {
			best, found = row, true
		}
	}
	return
}

// column returns the values of one metric, indexed by its dataframe name.
func (h *History) column(name string) []float64 {
	values := make([]float64, len(h.rows))
	for ii, row := range h.rows {
		values[ii] = rowValue(row, name)
	}
	return values
}

func (h *History) epochs() []float64 {
	values := make([]float64, len(h.rows))
	for ii, row := range h.rows {
		values[ii] = float64(row.Epoch)
	}
	return values
}

// Column names, as used in the CSV file.
const (
	ColEpoch         = "epoch"
	ColTrainLoss     = "train_loss"
	ColTrainAccuracy = "train_accuracy"
	ColValidLoss     = "valid_loss"
	ColValidAccuracy = "valid_accuracy"
)

// metricColumns in display order.
var metricColumns = []string{ColTrainAccuracy, ColValidAccuracy, ColTrainLoss, ColValidLoss}
