package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/tklauser/thesis-scripts/internal/analysis"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type arrow struct {
	x, y, u, v float64
}

// quiver is a plot.Plotter drawing one arrow per grid cell.
type quiver struct {
	arrows []arrow
	draw.LineStyle
	HeadLength vg.Length
}

// newQuiver scales the grid vectors so that the longest arrow spans
// 0.9 cells. Cells with a NaN component get no arrow.
func newQuiver(f *analysis.Field) *quiver {
	rows, cols := f.GridX.Dims()
	q := &quiver{
		LineStyle:  draw.LineStyle{Color: color.RGBA{B: 255, A: 255}, Width: vg.Points(1)},
		HeadLength: vg.Points(4),
	}
	longest := 0.0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			u, v := f.GridX.At(r, c), f.GridY.At(r, c)
			if math.IsNaN(u) || math.IsNaN(v) {
				continue
			}
			q.arrows = append(q.arrows, arrow{x: float64(c + 1), y: float64(r + 1), u: u, v: v})
			longest = math.Max(longest, math.Hypot(u, v))
		}
	}
	if longest > 0 {
		scale := 0.9 / longest
		for i := range q.arrows {
			q.arrows[i].u *= scale
			q.arrows[i].v *= scale
		}
	}
	return q
}

// Plot implements plot.Plotter.
func (q *quiver) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, a := range q.arrows {
		x0, y0 := trX(a.x), trY(a.y)
		x1, y1 := trX(a.x+a.u), trY(a.y+a.v)
		c.StrokeLine2(q.LineStyle, x0, y0, x1, y1)

		dx, dy := float64(x1-x0), float64(y1-y0)
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		head := math.Min(float64(q.HeadLength), l/2)
		ux, uy := dx/l, dy/l
		for _, side := range []float64{-1, 1} {
			// barbs: the reversed direction rotated by +-25 degrees
			sin, cos := math.Sincos(side * 25 * math.Pi / 180)
			hx := -ux*cos + uy*sin
			hy := -ux*sin - uy*cos
			c.StrokeLine2(q.LineStyle, x1, y1, x1+vg.Length(hx*head), y1+vg.Length(hy*head))
		}
	}
}

// DataRange implements plot.DataRanger.
func (q *quiver) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, a := range q.arrows {
		xmin = math.Min(xmin, math.Min(a.x, a.x+a.u))
		xmax = math.Max(xmax, math.Max(a.x, a.x+a.u))
		ymin = math.Min(ymin, math.Min(a.y, a.y+a.v))
		ymax = math.Max(ymax, math.Max(a.y, a.y+a.v))
	}
	return xmin, xmax, ymin, ymax
}

// CreateForceFieldPlot draws the decoded displacement of every input as an
// arrow at its grid position, bottom row first.
func CreateForceFieldPlot(f *analysis.Field, opts PlotOptions) ([]byte, error) {
	if f == nil || f.GridX == nil || f.GridY == nil {
		return nil, fmt.Errorf("no decoded field to plot")
	}
	rows, cols := f.GridX.Dims()

	p := plot.New()
	p.Title.Text = opts.title(fmt.Sprintf("step %d (t=%g)", f.Step, f.Time))
	p.X.Min, p.X.Max = 0, float64(cols+1)
	p.Y.Min, p.Y.Max = 0, float64(rows+1)
	p.X.Tick.Marker = plot.ConstantTicks(axisTicks(cols))
	p.Y.Tick.Marker = plot.ConstantTicks(axisTicks(rows))

	q := newQuiver(f)
	if len(q.arrows) > 0 {
		p.Add(q)
	}
	if len(f.Degenerate) > 0 {
		p.X.Label.Text = fmt.Sprintf("%d undecodable inputs", len(f.Degenerate))
	}

	// Keep cells square.
	w, h := opts.size()
	if cols > 0 && rows > 0 {
		h = w * vg.Length(float64(rows+1)/float64(cols+1))
	}
	return renderPNG(p, w, h)
}

func axisTicks(n int) []plot.Tick {
	ticks := make([]plot.Tick, 0, n)
	for i := 1; i <= n; i++ {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)})
	}
	return ticks
}
