// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
)

// CSVFileName is the default name of the history file saved in a run directory.
const CSVFileName = "history.csv"

// DataFrame returns the history as a gota DataFrame, one row per epoch.
func (h *History) DataFrame() dataframe.DataFrame {
	return dataframe.LoadStructs(h.rows)
}

// WriteCSV writes the history in CSV format, with a header line.
func (h *History) WriteCSV(w io.Writer) error {
	if len(h.rows) == 0 {
		// LoadStructs can't infer the columns of an empty slice.
		_, err := io.WriteString(w, ColEpoch+","+ColTrainLoss+","+ColTrainAccuracy+","+ColValidLoss+","+ColValidAccuracy+"\n")
		return errors.Wrap(err, "failed to write history header")
	}
	df := h.DataFrame()
	if df.Err != nil {
		return errors.Wrapf(df.Err, "failed to convert history %q to a data frame", h.Name)
	}
	return errors.Wrapf(df.WriteCSV(w), "failed to write history %q", h.Name)
}

// SaveCSV saves the history to filePath, creating the directory if needed.
func (h *History) SaveCSV(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", filePath)
	}
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", filePath)
	}
	if err = h.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %q", filePath)
}

// ReadCSV reads a history previously written with WriteCSV.
// Missing metric columns are filled with NaN.
func ReadCSV(name string, r io.Reader) (*History, error) {
	df := dataframe.ReadCSV(r)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to parse history %q", name)
	}
	h := New(name)
	numRows := df.Nrow()
	if numRows == 0 {
		return h, nil
	}
	if !hasColumn(df, ColEpoch) {
		return nil, errors.Errorf("history %q has no %q column", name, ColEpoch)
	}
	epochs, err := df.Col(ColEpoch).Int()
	if err != nil {
		return nil, errors.Wrapf(err, "history %q: invalid %q column", name, ColEpoch)
	}
	columns := make(map[string][]float64, len(metricColumns))
	for _, colName := range metricColumns {
		if hasColumn(df, colName) {
			columns[colName] = df.Col(colName).Float()
		}
	}
	for ii := range numRows {
		row := NewRow(epochs[ii])
		if values, found := columns[ColTrainLoss]; found {
			row.TrainLoss = values[ii]
		}
		if values, found := columns[ColTrainAccuracy]; found {
			row.TrainAccuracy = values[ii]
		}
		if values, found := columns[ColValidLoss]; found {
			row.ValidLoss = values[ii]
		}
		if values, found := columns[ColValidAccuracy]; found {
			row.ValidAccuracy = values[ii]
		}
		if err = h.Append(row); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// LoadCSV loads a history saved with SaveCSV. The name of the history is taken from the
// enclosing directory.
func LoadCSV(filePath string) (*History, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history file")
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(filepath.Base(filepath.Dir(filePath)), f)
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, colName := range df.Names() {
		if colName == name {
			return true
		}
	}
	return false
}
