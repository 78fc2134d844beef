// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// SaveToDir saves the history to a run (or checkpoint) directory: the CSV file (CSVFileName),
// the plot (PlotFileName) and the plot points of the last row, appended to the plot points file.
//
// Call it once per epoch, so the plot points file receives each row exactly once.
// A failure to render the plot is only logged.
func (h *History) SaveToDir(dir string) error {
	if err := h.SaveCSV(filepath.Join(dir, CSVFileName)); err != nil {
		return err
	}
	if err := h.SavePlot(filepath.Join(dir, PlotFileName)); err != nil {
		klog.Warningf("Failed to plot training history %q: %v", h.Name, err)
	}
	last, found := h.Last()
	if !found {
		return nil
	}
	lastOnly := New(h.Name)
	lastOnly.RunID = h.RunID
	if err := lastOnly.Append(last); err != nil {
		return err
	}
	return lastOnly.WritePoints(dir)
}

// LoadFromDir loads the history saved with SaveToDir in dir. If there is no history saved there yet,
// it returns a new empty History.
func LoadFromDir(name, dir string) (*History, error) {
	filePath := filepath.Join(dir, CSVFileName)
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return New(name), nil
		}
		return nil, errors.Wrapf(err, "failed to check for history in %q", dir)
	}
	h, err := LoadCSV(filePath)
	if err != nil {
		return nil, err
	}
	h.Name = name
	return h, nil
}
