package analysis

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tklauser/thesis-scripts/internal/parser"
	"gonum.org/v1/gonum/mat"
)

func TestResolveTimeIndex(t *testing.T) {
	tests := []struct {
		requested, steps, want int
	}{
		{-1, 10, 9},
		{-15, 10, 0},
		{15, 10, 9},
		{3, 10, 3},
		{0, 10, 0},
		{-10, 10, 0},
		{10, 10, 9},
		{0, 1, 0},
		{-1, 1, 0},
	}
	for _, tt := range tests {
		if got := ResolveTimeIndex(tt.requested, tt.steps); got != tt.want {
			t.Errorf("ResolveTimeIndex(%d, %d) = %d, want %d", tt.requested, tt.steps, got, tt.want)
		}
	}
}

func TestMovementPositions(t *testing.T) {
	got := MovementPositions(-1, 1, 3)
	want := []float64{-1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovementPositions = %v, want %v", got, want)
		}
	}
	got = MovementPositions(0, 2, 5)
	if len(got) != 5 || got[0] != 0 || got[4] != 2 || got[1] != 0.5 {
		t.Errorf("MovementPositions(0,2,5) = %v", got)
	}
}

func TestPolicies(t *testing.T) {
	pos := []float64{-1, 0, 1}
	tests := []struct {
		policy  Policy
		weights []float64
		want    float64
	}{
		{WeightedCentroid{}, []float64{1, 0, 0}, -1},
		{WeightedCentroid{}, []float64{0, 2, 0}, 0},
		{WeightedCentroid{}, []float64{1, 1, 1}, 0},
		{WeightedCentroid{}, []float64{0, 1, 3}, 0.75},
		{WinnerTakeAll{}, []float64{0.2, 0.9, 0.3}, 0},
		{WinnerTakeAll{}, []float64{0.5, 0.5, 0.1}, -1},
		{WinnerTakeAll{}, []float64{0.1, 0.7, 0.7}, 0},
		{WinnerTakeAll{}, []float64{0, 0, 0}, -1},
	}
	for _, tt := range tests {
		got, ok := tt.policy.Decode(tt.weights, pos)
		if !ok || got != tt.want {
			t.Errorf("%s.Decode(%v) = %g, %v, want %g", tt.policy.Name(), tt.weights, got, ok, tt.want)
		}
	}

	if _, ok := (WeightedCentroid{}).Decode([]float64{0, 0, 0}, pos); ok {
		t.Error("centroid of zero weights should not decode")
	}
	if _, ok := (WeightedCentroid{}).Decode([]float64{1, -1, 0}, pos); ok {
		t.Error("centroid of weights summing to zero should not decode")
	}
}

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]string{"": "centroid", "WTA": "wta", "winner-take-all": "wta", "weighted-centroid": "centroid"} {
		p, err := ParsePolicy(name)
		if err != nil || p.Name() != want {
			t.Errorf("ParsePolicy(%q) = %v, %v", name, p, err)
		}
	}
	if _, err := ParsePolicy("median"); err == nil {
		t.Error("ParsePolicy(median) should fail")
	}
}

func TestToGrid(t *testing.T) {
	vec := []float64{0, 1, 2, 3, 4, 5}

	gy := ToGrid(vec, 2, 3, parser.AxisY)
	wantY := mat.NewDense(2, 3, []float64{3, 4, 5, 0, 1, 2})
	if !mat.Equal(gy, wantY) {
		t.Errorf("y grid = %v, want %v", mat.Formatted(gy), mat.Formatted(wantY))
	}

	gx := ToGrid(vec, 2, 3, parser.AxisX)
	wantX := mat.NewDense(2, 3, []float64{-3, -4, -5, 0, -1, -2})
	if !mat.Equal(gx, wantX) {
		t.Errorf("x grid = %v, want %v", mat.Formatted(gx), mat.Formatted(wantX))
	}
}

func TestGridRoundTrip(t *testing.T) {
	vec := []float64{0.25, -1, 3.5, 0, 7, -0.125, 2, 9, -4, 1e-9, 6, 8}
	for _, shape := range [][2]int{{3, 4}, {4, 3}, {1, 12}, {12, 1}} {
		for _, axis := range []parser.Axis{parser.AxisX, parser.AxisY} {
			got := FromGrid(ToGrid(vec, shape[0], shape[1], axis), axis)
			for i := range vec {
				if got[i] != vec[i] {
					t.Fatalf("%dx%d %s: round trip = %v, want %v", shape[0], shape[1], axis, got, vec)
				}
			}
		}
	}
}

// newWeightSet builds a set with the given weights at every step:
// weights[axis][input] are the output weights.
func newWeightSet(steps int, wx, wy [][]float64) *parser.WeightSet {
	inputs, outputs := len(wx), len(wx[0])
	ws := &parser.WeightSet{
		X: parser.NewWeightTensor(parser.AxisX, steps, outputs, inputs),
		Y: parser.NewWeightTensor(parser.AxisY, steps, outputs, inputs),
	}
	for t := 0; t < steps; t++ {
		for i := 0; i < inputs; i++ {
			ws.X.Step(t).Set(0, i, float64(t))
			ws.Y.Step(t).Set(0, i, float64(t))
			for k := 0; k < outputs; k++ {
				ws.X.Step(t).Set(k+1, i, wx[i][k]*float64(t+1))
				ws.Y.Step(t).Set(k+1, i, wy[i][k]*float64(t+1))
			}
		}
	}
	return ws
}

var geom2x2 = parser.Geometry{RowsIn: 2, ColsIn: 2, Outputs: 3, PopMinX: -1, PopMaxX: 1, PopMinY: -1, PopMaxY: 1}

func TestDecodeField(t *testing.T) {
	ws := newWeightSet(5,
		[][]float64{{1, 0, 0}, {0, 2, 0}, {0, 0, 1}, {1, 1, 1}},
		[][]float64{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}, {0, 1, 3}},
	)

	d, err := NewDecoder("centroid", false)
	if err != nil {
		t.Fatal(err)
	}
	f, err := d.DecodeField(ws, -1, geom2x2)
	if err != nil {
		t.Fatalf("DecodeField: %v", err)
	}
	if f.Step != 4 || f.Time != 4 || f.Policy != "centroid" {
		t.Errorf("step %d time %g policy %s", f.Step, f.Time, f.Policy)
	}
	wantDX := []float64{-1, 0, 1, 0}
	wantDY := []float64{1, -1, 0, 0.75}
	for i := range wantDX {
		if f.DX[i] != wantDX[i] || f.DY[i] != wantDY[i] {
			t.Errorf("input %d: (%g, %g), want (%g, %g)", i, f.DX[i], f.DY[i], wantDX[i], wantDY[i])
		}
	}
	// Row 0 of the grid is input row 1 (inputs 2 and 3), X negated.
	wantGX := mat.NewDense(2, 2, []float64{-1, 0, 1, 0})
	wantGY := mat.NewDense(2, 2, []float64{0, 0.75, 1, -1})
	if !mat.Equal(f.GridX, wantGX) || !mat.Equal(f.GridY, wantGY) {
		t.Errorf("grids x=%v y=%v", mat.Formatted(f.GridX), mat.Formatted(f.GridY))
	}
	if len(f.Degenerate) != 0 {
		t.Errorf("Degenerate = %v", f.Degenerate)
	}

	f, err = d.DecodeField(ws, 100, geom2x2)
	if err != nil || f.Step != 4 {
		t.Errorf("clamped step = %v, %v", f, err)
	}

	wta := &Decoder{Policy: WinnerTakeAll{}}
	f, err = wta.DecodeField(ws, 0, geom2x2)
	if err != nil {
		t.Fatal(err)
	}
	wantDX = []float64{-1, 0, 1, -1}
	for i := range wantDX {
		if f.DX[i] != wantDX[i] {
			t.Errorf("wta dx[%d] = %g, want %g", i, f.DX[i], wantDX[i])
		}
	}
}

func TestDecodeDegenerate(t *testing.T) {
	ws := newWeightSet(2,
		[][]float64{{1, 0, 0}, {0, 0, 0}, {0, 0, 1}, {1, 1, 1}},
		[][]float64{{0, 0, 1}, {1, 0, 0}, {0, 0, 0}, {0, 1, 3}},
	)

	d := &Decoder{Policy: WeightedCentroid{}}
	f, err := d.DecodeField(ws, -1, geom2x2)
	if err != nil {
		t.Fatalf("DecodeField: %v", err)
	}
	if !math.IsNaN(f.DX[1]) || !math.IsNaN(f.DY[2]) {
		t.Errorf("dx=%v dy=%v, want NaN for undecodable inputs", f.DX, f.DY)
	}
	if len(f.Degenerate) != 2 || f.Degenerate[0] != 1 || f.Degenerate[1] != 2 {
		t.Errorf("Degenerate = %v, want [1 2]", f.Degenerate)
	}

	d.Strict = true
	_, err = d.DecodeField(ws, -1, geom2x2)
	var derr *DecodeError
	if !errors.As(err, &derr) || !errors.Is(err, ErrDegenerate) {
		t.Fatalf("strict err = %v, want DecodeError", err)
	}
	if derr.Axis != parser.AxisX || derr.Step != 1 || len(derr.Inputs) != 1 || derr.Inputs[0] != 1 {
		t.Errorf("DecodeError = %+v", derr)
	}

	// Winner-take-all always has a winner.
	d = &Decoder{Policy: WinnerTakeAll{}, Strict: true}
	if _, err := d.DecodeField(ws, -1, geom2x2); err != nil {
		t.Errorf("wta strict: %v", err)
	}
}

func TestDecodeGeometryMismatch(t *testing.T) {
	ws := newWeightSet(2, [][]float64{{1, 0, 0}}, [][]float64{{1, 0, 0}})
	d := &Decoder{}
	if _, _, err := d.Decode(ws, 0, geom2x2); err == nil {
		t.Error("expected geometry mismatch error")
	}
	g := parser.Geometry{RowsIn: 1, ColsIn: 1, Outputs: 3, PopMinX: -1, PopMaxX: 1, PopMinY: -1, PopMaxY: 1}
	if _, _, err := d.Decode(ws, 2, g); err == nil {
		t.Error("expected out of range step error")
	}
}

func writeExperiment(t *testing.T, dir string, rows, cols, outputs, steps int) {
	t.Helper()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(parser.DefaultParamsFile, fmt.Sprintf(
		"nRowsIn,nColsIn,nOutputs,popMinX,popMaxX,popMinY,popMaxY,rewardMode\n%d,%d,%d,-1,1,-1,1,sparse\n",
		rows, cols, outputs))
	for n := rows*cols - 1; n >= 0; n-- {
		for _, axis := range []string{"x", "y"} {
			var b strings.Builder
			for s := 0; s < steps; s++ {
				fmt.Fprintf(&b, "%d", s*10)
				for k := 0; k < outputs; k++ {
					w := 0.1
					if k == (n+s)%outputs {
						w = 1
					}
					fmt.Fprintf(&b, ",%g", w)
				}
				b.WriteString("\n")
			}
			write(fmt.Sprintf("weights_%s_in_%d.log", axis, n), b.String())
		}
	}
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeExperiment(t, dir, 2, 2, 3, 6)

	exp, err := LoadExperiment(dir, "", true)
	if err != nil {
		t.Fatalf("LoadExperiment: %v", err)
	}
	d, err := NewDecoder("", false)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := exp.Fields(d, []int{0, -1})
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 2 || fields[1].Step != 5 || fields[1].Time != 50 {
		t.Fatalf("fields = %+v", fields)
	}
	for _, f := range fields {
		for _, g := range []*mat.Dense{f.GridX, f.GridY} {
			if r, c := g.Dims(); r != 2 || c != 2 {
				t.Errorf("grid dims %dx%d", r, c)
			}
		}
	}
	// At the last step input 0 has its peak on output (0+5)%3 = 2 -> +1 side.
	if got := fields[1].DX[0]; got <= 0 {
		t.Errorf("dx[0] = %g, want positive", got)
	}
	// Input 0 lands in the bottom-left cell, negated.
	if fields[1].GridX.At(1, 0) != -fields[1].DX[0] {
		t.Errorf("grid x bottom left = %g", fields[1].GridX.At(1, 0))
	}
}

func TestLoadExperimentMissingPopulation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, parser.DefaultParamsFile), []byte("nRowsIn,nColsIn,nOutputs\n1,1,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadExperiment(dir, "", true)
	var cerr *parser.ConfigError
	if !errors.As(err, &cerr) || len(cerr.Missing) != 4 {
		t.Errorf("err = %v, want 4 missing population keys", err)
	}
}
