// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	ptypes "github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/janpfeifer/gonb/gonbui"
	gonbplotly "github.com/janpfeifer/gonb/gonbui/plotly"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PlotFileName is the default name of the plot image saved in a run directory.
const PlotFileName = "history.png"

var (
	plotWidth  = 12 * vg.Inch
	plotHeight = 4.5 * vg.Inch
)

// newMetricPlot creates a plot with one line per column, skipping unmeasured (NaN) values.
func (h *History) newMetricPlot(title, yLabel string, columns ...string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	epochs := h.epochs()
	for colIdx, colName := range columns {
		values := h.column(colName)
		xys := make(plotter.XYs, 0, len(values))
		for ii, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			xys = append(xys, plotter.XY{X: epochs[ii], Y: v})
		}
		if len(xys) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to plot %q", colName)
		}
		line.Color = plotutil.Color(colIdx)
		line.Width = vg.Points(2)
		points.Color = plotutil.Color(colIdx)
		points.Shape = plotutil.Shape(colIdx)
		p.Add(line, points)
		p.Legend.Add(colName, line, points)
	}
	return p, nil
}

// Image renders the accuracy and loss curves side by side.
func (h *History) Image() (image.Image, error) {
	canvas, err := h.render()
	if err != nil {
		return nil, err
	}
	return canvas.Image(), nil
}

func (h *History) render() (*vgimg.Canvas, error) {
	if len(h.rows) == 0 {
		return nil, errors.Errorf("history %q is empty, nothing to plot", h.Name)
	}
	accPlot, err := h.newMetricPlot(fmt.Sprintf("%s: accuracy", h.Name), "Accuracy", ColTrainAccuracy, ColValidAccuracy)
	if err != nil {
		return nil, err
	}
	lossPlot, err := h.newMetricPlot(fmt.Sprintf("%s: loss", h.Name), "Loss", ColTrainLoss, ColValidLoss)
	if err != nil {
		return nil, err
	}
	plots := [][]*plot.Plot{{accPlot, lossPlot}}
	img := vgimg.New(plotWidth, plotHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(2), PadBottom: vg.Points(2),
		PadLeft: vg.Points(2), PadRight: vg.Points(2),
	}
	canvases := plot.Align(plots, tiles, dc)
	for col, p := range plots[0] {
		p.Draw(canvases[0][col])
	}
	return img, nil
}

// SavePlot saves the accuracy and loss curves as a PNG image to filePath.
func (h *History) SavePlot(filePath string) error {
	canvas, err := h.render()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(filePath), 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", filePath)
	}
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create plot file %q", filePath)
	}
	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err = png.WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write plot to %q", filePath)
	}
	return errors.Wrapf(f.Close(), "failed to close %q", filePath)
}

// Figures returns plotly figures for the accuracy and loss curves.
func (h *History) Figures() []*grob.Fig {
	return []*grob.Fig{
		h.newFigure("Accuracy", ColTrainAccuracy, ColValidAccuracy),
		h.newFigure("Loss", ColTrainLoss, ColValidLoss),
	}
}

func (h *History) newFigure(title string, columns ...string) *grob.Fig {
	fig := &grob.Fig{
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{
				Text: ptypes.S(fmt.Sprintf("%s: %s", h.Name, title)),
			},
			Xaxis: &grob.LayoutXaxis{
				Showgrid: ptypes.B(true),
				Title:    &grob.LayoutXaxisTitle{Text: ptypes.S("Epoch")},
			},
			Yaxis: &grob.LayoutYaxis{
				Showgrid: ptypes.B(true),
			},
		},
	}
	epochs := h.epochs()
	for _, colName := range columns {
		values := h.column(colName)
		var xs, ys []float64
		for ii, v := range values {
			if math.IsNaN(v) {
				continue
			}
			xs = append(xs, epochs[ii])
			ys = append(ys, v)
		}
		fig.Data = append(fig.Data, &grob.Scatter{
			Name: ptypes.S(colName),
			Line: &grob.ScatterLine{
				Shape: grob.ScatterLineShapeLinear,
			},
			Mode: "lines+markers",
			X:    ptypes.DataArray(xs),
			Y:    ptypes.DataArray(ys),
		})
	}
	return fig
}

// Display the history figures if running in a GoNB notebook. It's a no-op otherwise.
func (h *History) Display() error {
	if !gonbui.IsNotebook {
		return nil
	}
	gonbui.DisplayHtmlf("<p><b>Training history: %s</b></p>\n", h.Name)
	for _, fig := range h.Figures() {
		if err := gonbplotly.DisplayFig(fig); err != nil {
			return errors.Wrapf(err, "failed to display history %q", h.Name)
		}
	}
	return nil
}
