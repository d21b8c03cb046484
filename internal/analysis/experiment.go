package analysis

import (
	"github.com/tklauser/thesis-scripts/internal/parser"
)

// Experiment bundles the validated inputs of one experiment directory.
type Experiment struct {
	Dir      string
	Params   *parser.Params
	Geometry parser.Geometry
	Weights  *parser.WeightSet
}

// LoadExperiment reads the parameters and weight logs of dir. With
// needPopulation unset only nRowsIn, nColsIn and nOutputs are required.
func LoadExperiment(dir, paramsFile string, needPopulation bool) (*Experiment, error) {
	if paramsFile == "" {
		paramsFile = parser.DefaultParamsFile
	}
	params, err := parser.LoadParamsFile(dir, paramsFile)
	if err != nil {
		return nil, err
	}
	var g parser.Geometry
	if needPopulation {
		g, err = params.Geometry()
	} else {
		g, err = params.GridGeometry()
	}
	if err != nil {
		return nil, err
	}
	ws, err := parser.LoadWeights(dir, g.Inputs(), g.Outputs)
	if err != nil {
		return nil, err
	}
	return &Experiment{Dir: dir, Params: params, Geometry: g, Weights: ws}, nil
}

// Fields decodes every requested step. Steps are resolved against the
// recorded history, so out of range requests yield the nearest step.
func (e *Experiment) Fields(d *Decoder, steps []int) ([]*Field, error) {
	fields := make([]*Field, 0, len(steps))
	for _, s := range steps {
		f, err := d.DecodeField(e.Weights, s, e.Geometry)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
