package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/tklauser/thesis-scripts/internal/analysis"
	"github.com/tklauser/thesis-scripts/internal/parser"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotOptions controls size and look of a generated figure.
type PlotOptions struct {
	Width, Height vg.Length
	Colormap      string
	Title         string // optional prefix, e.g. the experiment path
}

func (o PlotOptions) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = vg.Points(500)
	}
	if h <= 0 {
		h = vg.Points(500)
	}
	return w, h
}

func (o PlotOptions) title(s string) string {
	if o.Title == "" {
		return s
	}
	return o.Title + ": " + s
}

// matrixGrid adapts a matrix to plotter.GridXYZ: columns along X, rows
// along Y, cell centres at integer coordinates.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}
func (g matrixGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

func newHeatMap(m mat.Matrix, pal palette.Palette) *plotter.HeatMap {
	hm := plotter.NewHeatMap(matrixGrid{m}, pal)
	hm.NaN = color.Gray{Y: 200}
	minV, maxV := math.Inf(1), math.Inf(-1)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	if math.IsInf(minV, 1) {
		minV, maxV = 0, 1
	}
	if minV == maxV {
		maxV = minV + 1
	}
	hm.Min, hm.Max = minV, maxV
	return hm
}

// everyNth returns ticks at cell centres 0, step, 2*step, ... below n.
func everyNth(n, step int) []plot.Tick {
	if step < 1 {
		step = 1
	}
	var ticks []plot.Tick
	for i := 0; i < n; i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)})
	}
	return ticks
}

func renderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// CreateWeightHeatmap draws the weights of all inputs (X axis) to all
// output units (Y axis) of one tensor at the requested step.
func CreateWeightHeatmap(w *parser.WeightTensor, requested int, opts PlotOptions) ([]byte, error) {
	if w == nil || w.Steps() == 0 {
		return nil, fmt.Errorf("no weights to plot")
	}
	pal, _, err := Colormap(opts.Colormap, "gray_r")
	if err != nil {
		return nil, err
	}
	t := analysis.ResolveTimeIndex(requested, w.Steps())
	weights := w.Step(t).Slice(1, w.Outputs+1, 0, w.Inputs)

	p := plot.New()
	p.Title.Text = opts.title(fmt.Sprintf("%s weights, time step %d", w.Axis, t))
	p.X.Label.Text = "inputs"
	p.Y.Label.Text = "outputs"
	p.X.Tick.Marker = plot.ConstantTicks(everyNth(w.Inputs, 5))
	p.Y.Tick.Marker = plot.ConstantTicks(everyNth(w.Outputs, 2))
	p.X.Min, p.X.Max = -0.5, float64(w.Inputs)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(w.Outputs)-0.5
	p.Add(newHeatMap(weights, pal))

	width, height := opts.size()
	return renderPNG(p, width, height)
}

// CreateActivationHeatmap draws how often each input unit was active.
func CreateActivationHeatmap(m *analysis.ActivationMap, opts PlotOptions) ([]byte, error) {
	if m == nil || m.Grid == nil {
		return nil, fmt.Errorf("no activation counts to plot")
	}
	pal, _, err := Colormap(opts.Colormap, "heat")
	if err != nil {
		return nil, err
	}
	rows, cols := m.Grid.Dims()

	p := plot.New()
	p.Title.Text = opts.title(fmt.Sprintf("input activations, time step %d", m.Step))
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.X.Tick.Marker = plot.ConstantTicks(everyNth(cols, 1))
	p.Y.Tick.Marker = plot.ConstantTicks(everyNth(rows, 1))
	p.X.Min, p.X.Max = -0.5, float64(cols)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(rows)-0.5
	p.Add(newHeatMap(m.Grid, pal))

	width, height := opts.size()
	return renderPNG(p, width, height)
}
