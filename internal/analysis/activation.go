package analysis

import (
	"fmt"

	"github.com/tklauser/thesis-scripts/internal/parser"
	"gonum.org/v1/gonum/mat"
)

// ActivationMap counts how often each input was active before a step.
type ActivationMap struct {
	Step int
	Time float64
	Grid *mat.Dense // RowsIn x ColsIn, flipped like the force field grids
}

// resolveActivationStep works like ResolveTimeIndex but never yields 0,
// so that at least one row is counted.
func resolveActivationStep(requested, steps int) int {
	t := ResolveTimeIndex(requested, steps)
	if t < 1 {
		t = 1
	}
	return t
}

// ActivationCounts sums the input log rows [0, t) for the resolved step t
// and lays the per-input totals out on the input grid.
func ActivationCounts(in *parser.TimeSeries, requested, rows, cols int) (*ActivationMap, error) {
	n, inputs := in.Values.Dims()
	if inputs != rows*cols {
		return nil, fmt.Errorf("input log has %d columns, grid is %dx%d", inputs, rows, cols)
	}
	t := resolveActivationStep(requested, n)
	if t > n {
		t = n
	}

	counts := make([]float64, inputs)
	for r := 0; r < t; r++ {
		for i := range counts {
			counts[i] += in.Values.At(r, i)
		}
	}
	timeIdx := t
	if timeIdx >= n {
		timeIdx = n - 1
	}
	return &ActivationMap{
		Step: t,
		Time: in.Time[timeIdx],
		Grid: ToGrid(counts, rows, cols, parser.AxisY),
	}, nil
}
