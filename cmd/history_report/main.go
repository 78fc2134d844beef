// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// history_report prints the training history saved by the tutorials' training programs.
//
// Each argument is either a run (or checkpoint) directory, holding a "history.csv" file, or the
// path to a history CSV file. With more than one run, a summary table compares them.
//
// Usage:
//
//	history_report [-epochs=false] [-points] [-plots_dir=<dir>] <run_dir_or_csv>...
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/gomlx/tutorials/pkg/history"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagEpochs   = flag.Bool("epochs", true, "Prints the per-epoch table of each run.")
	flagPoints   = flag.Bool("points", false, "Prints the plot points saved in the run directories.")
	flagPlotsDir = flag.String("plots_dir", "", "If set, saves the plot of each run as a PNG file in this directory.")
	flagColor    = flag.Bool("color", true, "Use colors in the tables, if the terminal supports them.")
)

var titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)

// run is a loaded training history and where it was loaded from.
type run struct {
	name, dir string
	hist      *history.History
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing run directory or history file to read from. See 'history_report -help'")
		os.Exit(1)
	}
	profile := termenv.NewOutput(os.Stdout).EnvColorProfile()
	if !*flagColor {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)

	runs := make([]*run, 0, len(args))
	names := RunNames(args...)
	for ii, arg := range args {
		r, err := loadRun(names[ii], fsutil.MustReplaceTildeInDir(arg))
		if err != nil {
			klog.Fatalf("Failed to load history from %q: %+v", arg, err)
		}
		if r.hist.Len() == 0 {
			klog.Warningf("No epochs recorded in %q", arg)
		}
		runs = append(runs, r)
	}

	if len(runs) > 1 {
		fmt.Println(titleStyle.Render("Summary"))
		fmt.Println(Summary(runs).Render())
	}
	if *flagEpochs {
		for _, r := range runs {
			fmt.Println(titleStyle.Render(r.name))
			fmt.Println(r.hist)
		}
	}
	if *flagPoints {
		for _, r := range runs {
			if r.dir == "" {
				continue
			}
			fmt.Println(titleStyle.Render(r.name + ": plot points"))
			table, err := PointsTable(r.dir)
			if err != nil {
				klog.Errorf("Failed to read plot points of %q: %v", r.name, err)
				continue
			}
			fmt.Println(table.Render())
		}
	}
	if *flagPlotsDir != "" {
		plotsDir := fsutil.MustReplaceTildeInDir(*flagPlotsDir)
		must.M(os.MkdirAll(plotsDir, 0777))
		for _, r := range runs {
			pngPath := filepath.Join(plotsDir, strings.ReplaceAll(r.name, string(filepath.Separator), "_")+".png")
			if err := r.hist.SavePlot(pngPath); err != nil {
				klog.Errorf("Failed to plot %q: %v", r.name, err)
				continue
			}
			fmt.Printf("Plot of %q saved to %s\n", r.name, pngPath)
		}
	}
}

// loadRun loads the history from a run directory or from a CSV file.
// The directory is left empty if loading from a CSV file outside a run directory.
func loadRun(name, path string) (*run, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't access %q", path)
	}
	r := &run{name: name}
	if info.IsDir() {
		r.dir = path
		r.hist, err = history.LoadFromDir(name, path)
		return r, err
	}
	r.hist, err = history.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	r.hist.Name = name
	if filepath.Base(path) == history.CSVFileName {
		r.dir = filepath.Dir(path)
	}
	return r, nil
}
