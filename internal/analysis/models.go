package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tklauser/thesis-scripts/internal/parser"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is wrapped by DecodeError when an input's output weights
// sum to zero and the weighted centroid is undefined.
var ErrDegenerate = errors.New("zero-sum weight vector cannot be decoded")

// Policy turns the weights of one output population into a scalar
// displacement, given the position each output unit encodes.
type Policy interface {
	Name() string
	// Decode returns false if the weights carry no decodable value.
	Decode(weights, positions []float64) (float64, bool)
}

// WeightedCentroid decodes the weight normalised mean of the positions.
type WeightedCentroid struct{}

func (WeightedCentroid) Name() string { return "centroid" }

func (WeightedCentroid) Decode(weights, positions []float64) (float64, bool) {
	total := floats.Sum(weights)
	if total == 0 {
		return 0, false
	}
	return floats.Dot(weights, positions[:len(weights)]) / total, true
}

// WinnerTakeAll decodes the position of the strongest output unit. Ties
// go to the lowest index.
type WinnerTakeAll struct{}

func (WinnerTakeAll) Name() string { return "wta" }

func (WinnerTakeAll) Decode(weights, positions []float64) (float64, bool) {
	if len(weights) == 0 {
		return 0, false
	}
	return positions[floats.MaxIdx(weights)], true
}

// Policies lists the known decoding policies by name.
var Policies = map[string]Policy{
	"centroid":          WeightedCentroid{},
	"weighted-centroid": WeightedCentroid{},
	"wta":               WinnerTakeAll{},
	"winner-take-all":   WinnerTakeAll{},
}

// ParsePolicy looks a policy up by name. The empty name selects the
// weighted centroid.
func ParsePolicy(name string) (Policy, error) {
	if name == "" {
		return WeightedCentroid{}, nil
	}
	if p, ok := Policies[strings.ToLower(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown decoding policy %q (use centroid or wta)", name)
}

// DecodeError reports inputs whose weights could not be decoded.
type DecodeError struct {
	Axis   parser.Axis
	Step   int
	Inputs []int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("step %d, %s axis: %v for inputs %v", e.Step, e.Axis, ErrDegenerate, e.Inputs)
}

func (e *DecodeError) Unwrap() error { return ErrDegenerate }

// Field is the decoded displacement of every input at one time step.
type Field struct {
	Step   int     // resolved time index
	Time   float64 // time stamp of the step
	Policy string

	// DX and DY are indexed by input number, as decoded.
	DX, DY []float64
	// GridX and GridY are RowsIn x ColsIn, flipped so that row 0 is the
	// bottom row, with X negated to point rightwards.
	GridX, GridY *mat.Dense

	// Degenerate lists inputs (either axis) left as NaN.
	Degenerate []int
}
