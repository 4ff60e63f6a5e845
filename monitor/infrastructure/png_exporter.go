package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	plotWidth      = 12 * vg.Inch
	plotHeight     = 8 * vg.Inch
	plotTimeFormat = "01-02\n15:04"
)

var (
	flowColor  = color.RGBA{B: 200, A: 255}
	totalColor = color.RGBA{G: 150, A: 255}
)

// PNGExporter renders a snapshot into a two-panel PNG: instantaneous flow over
// time on top, cumulative consumption over time below.
type PNGExporter struct {
	path string
}

// Render writes the image to a temporary file next to the target and renames it
// into place, so a viewer never sees a half-written file.
func (e *PNGExporter) Render(ctx context.Context, snapshot monitorDomain.Snapshot) (monitorDomain.Artifact, error) {
	if len(snapshot) == 0 {
		return monitorDomain.Artifact{}, errors.New("no data to plot")
	}

	flowPlot, err := newTimePlot("Instantaneous flow (L/min)", "L/min", snapshot,
		func(r monitorDomain.Reading) float64 { return r.FlowLPM }, flowColor, vg.Points(1))
	if err != nil {
		return monitorDomain.Artifact{}, err
	}

	totalPlot, err := newTimePlot("Total consumption (L)", "L", snapshot,
		func(r monitorDomain.Reading) float64 { return r.CumulativeLiters }, totalColor, vg.Points(2))
	if err != nil {
		return monitorDomain.Artifact{}, err
	}
	totalPlot.X.Label.Text = "Time"

	if err := ctx.Err(); err != nil {
		return monitorDomain.Artifact{}, err
	}

	plots := [][]*plot.Plot{{flowPlot}, {totalPlot}}
	img := vgimg.New(plotWidth, plotHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 4,
		PadY:      vg.Millimeter * 6,
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		plots[row][0].Draw(canvases[row][0])
	}

	if err := e.writeAtomically(vgimg.PngCanvas{Canvas: img}); err != nil {
		return monitorDomain.Artifact{}, err
	}
	return monitorDomain.Artifact{Path: e.path}, nil
}

func (e *PNGExporter) writeAtomically(png vgimg.PngCanvas) error {
	dir := filepath.Dir(e.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error on creating plot file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := png.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error on encoding plot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error on writing plot: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("error on saving plot: %w", err)
	}
	return nil
}

func newTimePlot(
	title, yLabel string,
	snapshot monitorDomain.Snapshot,
	value func(monitorDomain.Reading) float64,
	lineColor color.Color,
	width vg.Length,
) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{
		Format: plotTimeFormat,
		Time:   plot.UnixTimeIn(time.Local),
	}

	points := make(plotter.XYs, len(snapshot))
	for i, r := range snapshot {
		points[i].X = float64(r.Timestamp.UnixNano()) / float64(time.Second)
		points[i].Y = value(r)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })

	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, fmt.Errorf("error on building %q series: %w", title, err)
	}
	line.LineStyle.Color = lineColor
	line.LineStyle.Width = width

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 220}
	grid.Horizontal.Color = color.Gray{Y: 220}

	p.Add(grid, line)
	return p, nil
}

// NewPNGExporter creates an exporter writing to path.
func NewPNGExporter(path string) *PNGExporter {
	return &PNGExporter{path: path}
}
