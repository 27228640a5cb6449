// Package report draws diagnostics for fitted target encoders.
package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/preprocessing"
)

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// StatisticsSource is the part of a fitted encoder a shrinkage plot needs.
type StatisticsSource interface {
	ColumnStatistics(column string) ([]preprocessing.CategorySummary, error)
	Prior() (float64, error)
}

// ShrinkagePlot plots, for every category of column, its raw target mean
// and its smoothed value against the category count. The prior is drawn as
// a horizontal line; rare categories sit near it.
func ShrinkagePlot(src StatisticsSource, column string) (*plot.Plot, error) {
	stats, err := src.ColumnStatistics(column)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "column %q has no fitted categories", column)
	}
	prior, err := src.Prior()
	if err != nil {
		return nil, err
	}

	raw := make(plotter.XYs, len(stats))
	smoothed := make(plotter.XYs, len(stats))
	maxCount := 1.0
	for i, s := range stats {
		x := float64(s.Count)
		raw[i] = plotter.XY{X: x, Y: s.Mean}
		smoothed[i] = plotter.XY{X: x, Y: s.Smoothed}
		maxCount = math.Max(maxCount, x)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Target encoding shrinkage: %s", column)
	p.X.Label.Text = "category count"
	p.Y.Label.Text = "target value"
	p.X.Min = 0
	p.X.Max = maxCount + 1

	rawPts, err := plotter.NewScatter(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build raw mean points")
	}
	rawPts.GlyphStyle.Shape = draw.CircleGlyph{}
	rawPts.GlyphStyle.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}

	smoothPts, err := plotter.NewScatter(smoothed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build smoothed points")
	}
	smoothPts.GlyphStyle.Shape = draw.TriangleGlyph{}
	smoothPts.GlyphStyle.Color = color.RGBA{R: 40, G: 90, B: 200, A: 255}

	priorLine := plotter.NewFunction(func(float64) float64 { return prior })
	priorLine.Color = color.Gray{Y: 120}
	priorLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), priorLine, rawPts, smoothPts)
	p.Legend.Add("raw mean", rawPts)
	p.Legend.Add("smoothed", smoothPts)
	p.Legend.Add("prior", priorLine)
	p.Legend.Top = true

	return p, nil
}

// SaveShrinkagePlot writes the shrinkage plot of column to path. The image
// format follows the file extension (png, svg, pdf, ...).
func SaveShrinkagePlot(src StatisticsSource, column, path string) error {
	p, err := ShrinkagePlot(src, column)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Save(DefaultWidth, DefaultHeight, path), "failed to save %s", path)
}

// WriteShrinkagePlot writes the shrinkage plot of column to w in format.
func WriteShrinkagePlot(w io.Writer, src StatisticsSource, column, format string) error {
	p, err := ShrinkagePlot(src, column)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, strings.TrimPrefix(format, "."))
	if err != nil {
		return errors.Wrapf(err, "unsupported image format %q", format)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "failed to write plot")
}

// FormatFromPath returns the image format implied by the extension of path.
func FormatFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
