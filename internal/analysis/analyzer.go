package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/tklauser/thesis-scripts/internal/parser"
	"gonum.org/v1/gonum/mat"
)

// ResolveTimeIndex turns a requested step into a valid index. Negative
// values count from the end; anything still out of range is clamped to
// [0, steps-1].
func ResolveTimeIndex(requested, steps int) int {
	t := requested
	if t < 0 {
		t = steps + t
	}
	if t >= steps {
		t = steps - 1
	}
	if t < 0 {
		t = 0
	}
	return t
}

// MovementPositions returns the value encoded by each of n output units,
// evenly spaced from popMin to popMax inclusive.
func MovementPositions(popMin, popMax float64, n int) []float64 {
	pos := make([]float64, n)
	if n == 1 {
		pos[0] = popMin
		return pos
	}
	interval := (popMax - popMin) / float64(n-1)
	for k := range pos {
		pos[k] = popMin + float64(k)*interval
	}
	return pos
}

// Decoder decodes weight tensors with a fixed policy.
type Decoder struct {
	Policy Policy
	// Strict turns undecodable inputs into a DecodeError instead of NaN.
	Strict bool
}

// NewDecoder returns a decoder for the named policy.
func NewDecoder(policy string, strict bool) (*Decoder, error) {
	p, err := ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	return &Decoder{Policy: p, Strict: strict}, nil
}

func (d *Decoder) policy() Policy {
	if d.Policy == nil {
		return WeightedCentroid{}
	}
	return d.Policy
}

// DecodeAxis decodes every input of one tensor at absolute step t. Inputs
// that cannot be decoded are NaN and returned in bad.
func (d *Decoder) DecodeAxis(w *parser.WeightTensor, t int, positions []float64) (vals []float64, bad []int) {
	if len(positions) < w.Outputs {
		panic(fmt.Sprintf("analysis: %d positions for %d outputs", len(positions), w.Outputs))
	}
	pol := d.policy()
	vals = make([]float64, w.Inputs)
	for i := range vals {
		v, ok := pol.Decode(w.Weights(t, i), positions)
		if !ok {
			v = math.NaN()
			bad = append(bad, i)
		}
		vals[i] = v
	}
	return vals, bad
}

// Decode decodes both axes at absolute step t.
func (d *Decoder) Decode(ws *parser.WeightSet, t int, g parser.Geometry) (dx, dy []float64, err error) {
	if t < 0 || t >= ws.Steps() {
		return nil, nil, fmt.Errorf("time step %d out of range [0, %d)", t, ws.Steps())
	}
	if ws.X.Inputs != g.Inputs() || ws.X.Outputs != g.Outputs {
		return nil, nil, fmt.Errorf("weights have %d inputs and %d outputs, geometry declares %d and %d",
			ws.X.Inputs, ws.X.Outputs, g.Inputs(), g.Outputs)
	}

	dx, badX := d.DecodeAxis(ws.X, t, MovementPositions(g.PopMinX, g.PopMaxX, g.Outputs))
	dy, badY := d.DecodeAxis(ws.Y, t, MovementPositions(g.PopMinY, g.PopMaxY, g.Outputs))
	if d.Strict {
		if len(badX) > 0 {
			return nil, nil, &DecodeError{Axis: parser.AxisX, Step: t, Inputs: badX}
		}
		if len(badY) > 0 {
			return nil, nil, &DecodeError{Axis: parser.AxisY, Step: t, Inputs: badY}
		}
	}
	return dx, dy, nil
}

// DecodeField resolves a requested (possibly negative) step and decodes
// it into input grids.
func (d *Decoder) DecodeField(ws *parser.WeightSet, requested int, g parser.Geometry) (*Field, error) {
	t := ResolveTimeIndex(requested, ws.Steps())
	dx, dy, err := d.Decode(ws, t, g)
	if err != nil {
		return nil, err
	}
	return &Field{
		Step:       t,
		Time:       ws.X.At(t, 0, 0),
		Policy:     d.policy().Name(),
		DX:         dx,
		DY:         dy,
		GridX:      ToGrid(dx, g.RowsIn, g.ColsIn, parser.AxisX),
		GridY:      ToGrid(dy, g.RowsIn, g.ColsIn, parser.AxisY),
		Degenerate: nanInputs(dx, dy),
	}, nil
}

func nanInputs(dx, dy []float64) []int {
	var bad []int
	for i := range dx {
		if math.IsNaN(dx[i]) || math.IsNaN(dy[i]) {
			bad = append(bad, i)
		}
	}
	sort.Ints(bad)
	return bad
}

// ToGrid reshapes a per-input vector row-major into rows x cols and flips
// it vertically, since input row 0 is the upper edge of the sensor. X
// values are negated: a positive encoded x means movement to the left.
func ToGrid(vec []float64, rows, cols int, axis parser.Axis) *mat.Dense {
	if len(vec) != rows*cols {
		panic(fmt.Sprintf("analysis: vector of length %d does not fit a %dx%d grid", len(vec), rows, cols))
	}
	grid := mat.NewDense(rows, cols, nil)
	sign := 1.0
	if axis == parser.AxisX {
		sign = -1
	}
	for r := 0; r < rows; r++ {
		grid.SetRow(rows-1-r, vec[r*cols:(r+1)*cols])
	}
	if sign != 1 {
		grid.Scale(sign, grid)
	}
	return grid
}

// FromGrid undoes ToGrid.
func FromGrid(grid mat.Matrix, axis parser.Axis) []float64 {
	rows, cols := grid.Dims()
	vec := make([]float64, 0, rows*cols)
	sign := 1.0
	if axis == parser.AxisX {
		sign = -1
	}
	for r := rows - 1; r >= 0; r-- {
		for c := 0; c < cols; c++ {
			vec = append(vec, sign*grid.At(r, c))
		}
	}
	return vec
}
