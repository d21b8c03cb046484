package parser

import (
	"gonum.org/v1/gonum/mat"
)

// DefaultParamsFile is the parameter file written into every experiment directory.
const DefaultParamsFile = "params.log"

// Parameter names needed by the weight and force field analysis.
const (
	KeyRowsIn  = "nRowsIn"
	KeyColsIn  = "nColsIn"
	KeyOutputs = "nOutputs"
	KeyPopMinX = "popMinX"
	KeyPopMaxX = "popMaxX"
	KeyPopMinY = "popMinY"
	KeyPopMaxY = "popMaxY"
)

// Axis selects one of the two output populations.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Params holds the label/value pairs of a parameter file in file order.
// Values are kept as strings; use Int, Float or Geometry to interpret them.
type Params struct {
	Path   string
	names  []string
	values []string
	index  map[string]int
}

func newParams(path string, names, values []string) *Params {
	p := &Params{
		Path:   path,
		names:  names,
		values: values,
		index:  make(map[string]int, len(names)),
	}
	for i, n := range names {
		if _, dup := p.index[n]; !dup {
			p.index[n] = i
		}
	}
	return p
}

// Len returns the number of label/value pairs.
func (p *Params) Len() int { return len(p.names) }

// Names returns the labels in file order.
func (p *Params) Names() []string { return append([]string(nil), p.names...) }

// Values returns the values in file order.
func (p *Params) Values() []string { return append([]string(nil), p.values...) }

// Get returns the raw value of a parameter.
func (p *Params) Get(name string) (string, bool) {
	i, ok := p.index[name]
	if !ok {
		return "", false
	}
	return p.values[i], true
}

// Geometry is the typed view of the parameters describing the input grid
// and the two output populations.
type Geometry struct {
	RowsIn  int
	ColsIn  int
	Outputs int
	PopMinX float64
	PopMaxX float64
	PopMinY float64
	PopMaxY float64
}

// Inputs is the number of input units, RowsIn*ColsIn.
func (g Geometry) Inputs() int { return g.RowsIn * g.ColsIn }

// PopRange returns the encoded value range of the given axis.
func (g Geometry) PopRange(axis Axis) (min, max float64) {
	if axis == AxisX {
		return g.PopMinX, g.PopMaxX
	}
	return g.PopMinY, g.PopMaxY
}

// WeightTensor holds the weight history of one output axis with shape
// [Steps, Outputs+1, Inputs]. Index 0 of the second dimension is the time
// stamp of the row, 1..Outputs are the weights of each output unit.
type WeightTensor struct {
	Axis    Axis
	Outputs int
	Inputs  int
	steps   []*mat.Dense // (Outputs+1) x Inputs per time step
}

// NewWeightTensor allocates a zero filled tensor.
func NewWeightTensor(axis Axis, steps, outputs, inputs int) *WeightTensor {
	w := &WeightTensor{
		Axis:    axis,
		Outputs: outputs,
		Inputs:  inputs,
		steps:   make([]*mat.Dense, steps),
	}
	for t := range w.steps {
		w.steps[t] = mat.NewDense(outputs+1, inputs, nil)
	}
	return w
}

// Dims returns the tensor shape [Steps, Outputs+1, Inputs].
func (w *WeightTensor) Dims() (steps, cols, inputs int) {
	return len(w.steps), w.Outputs + 1, w.Inputs
}

// Steps returns the number of recorded time steps.
func (w *WeightTensor) Steps() int { return len(w.steps) }

// At returns the element [t, k, i].
func (w *WeightTensor) At(t, k, i int) float64 { return w.steps[t].At(k, i) }

// Step returns the (Outputs+1) x Inputs matrix of time step t. The returned
// matrix shares storage with the tensor.
func (w *WeightTensor) Step(t int) *mat.Dense { return w.steps[t] }

// Weights returns a copy of the output weights of input i at step t,
// time column excluded.
func (w *WeightTensor) Weights(t, i int) []float64 {
	col := mat.Col(nil, i, w.steps[t])
	return col[1:]
}

// Time returns the time axis, taken from the time column of input 0.
func (w *WeightTensor) Time() []float64 {
	ts := make([]float64, len(w.steps))
	for t, s := range w.steps {
		ts[t] = s.At(0, 0)
	}
	return ts
}

// setInput copies a Steps x (Outputs+1) block, as read from one weight
// file, into the tensor slice [:, :, i].
func (w *WeightTensor) setInput(i int, block *mat.Dense) {
	rows, cols := block.Dims()
	for t := 0; t < rows; t++ {
		for k := 0; k < cols; k++ {
			w.steps[t].Set(k, i, block.At(t, k))
		}
	}
}

// WeightSet is the result of loading the weight logs of one experiment.
type WeightSet struct {
	Dir string
	X   *WeightTensor
	Y   *WeightTensor
	// Skipped lists file names that looked like weight logs but carried
	// no input index.
	Skipped []string
}

// Time returns the time axis shared by all inputs.
func (ws *WeightSet) Time() []float64 { return ws.X.Time() }

// Steps returns the number of recorded time steps.
func (ws *WeightSet) Steps() int { return ws.X.Steps() }

// Tensor returns the tensor of the given axis.
func (ws *WeightSet) Tensor(axis Axis) *WeightTensor {
	if axis == AxisX {
		return ws.X
	}
	return ws.Y
}
