package parser

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
)

// weightValue gives every cell of a fixture a distinct, recognisable value.
func weightValue(axis string, input, step, output int) float64 {
	base := 0.0
	if axis == "y" {
		base = 0.5
	}
	return base + float64(input) + float64(step)/10 + float64(output)/1000
}

func weightLog(axis string, input, steps, outputs int) string {
	var b strings.Builder
	for s := 0; s < steps; s++ {
		fmt.Fprintf(&b, "%d", s*100)
		for k := 1; k <= outputs; k++ {
			fmt.Fprintf(&b, ",%g", weightValue(axis, input, s, k))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// writeWeights writes one x and one y weight log per input, in a random
// order and with the naming variants seen in experiment directories.
func writeWeights(t *testing.T, dir string, inputs, steps, outputs int, seed int64) {
	t.Helper()
	order := rand.New(rand.NewSource(seed)).Perm(inputs)
	for _, n := range order {
		for _, axis := range []string{"x", "y"} {
			name := fmt.Sprintf("weights_%s_in_%d.log", axis, n)
			if n%3 == 1 {
				name = fmt.Sprintf("weights_%s_in%d_run1.log", axis, n)
			}
			writeFile(t, dir, name, weightLog(axis, n, steps, outputs))
		}
	}
}

func TestLoadWeightsPlacesFilesByEmbeddedIndex(t *testing.T) {
	const inputs, steps, outputs = 12, 4, 3
	dir := t.TempDir()
	writeWeights(t, dir, inputs, steps, outputs, 1)
	writeFile(t, dir, "weights_x_in_all.log", "1,2,3\n")
	writeFile(t, dir, "weights_all_x.log", "1\n")

	ws, err := LoadWeights(dir, inputs, outputs)
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	for _, tensor := range []*WeightTensor{ws.X, ws.Y} {
		s, c, n := tensor.Dims()
		if s != steps || c != outputs+1 || n != inputs {
			t.Fatalf("%s dims = %d,%d,%d", tensor.Axis, s, c, n)
		}
		for i := 0; i < inputs; i++ {
			for st := 0; st < steps; st++ {
				if got := tensor.At(st, 0, i); got != float64(st*100) {
					t.Errorf("%s time[%d,%d] = %g", tensor.Axis, st, i, got)
				}
				for k := 1; k <= outputs; k++ {
					want := weightValue(tensor.Axis.String(), i, st, k)
					if got := tensor.At(st, k, i); got != want {
						t.Errorf("%s[%d,%d,%d] = %g, want %g", tensor.Axis, st, k, i, got, want)
					}
				}
			}
		}
	}
	if got := ws.X.Weights(2, 5); len(got) != outputs || got[0] != weightValue("x", 5, 2, 1) {
		t.Errorf("Weights(2,5) = %v", got)
	}
	if tm := ws.Time(); len(tm) != steps || tm[steps-1] != float64((steps-1)*100) {
		t.Errorf("Time() = %v", tm)
	}
	if len(ws.Skipped) != 1 || ws.Skipped[0] != "weights_x_in_all.log" {
		t.Errorf("Skipped = %v", ws.Skipped)
	}
}

func TestLoadWeightsIgnoresWriteOrder(t *testing.T) {
	const inputs, steps, outputs = 9, 3, 4
	a, b := t.TempDir(), t.TempDir()
	writeWeights(t, a, inputs, steps, outputs, 7)
	writeWeights(t, b, inputs, steps, outputs, 99)

	wa, err := LoadWeights(a, inputs, outputs)
	if err != nil {
		t.Fatal(err)
	}
	wb, err := LoadWeights(b, inputs, outputs)
	if err != nil {
		t.Fatal(err)
	}
	for st := 0; st < steps; st++ {
		for k := 0; k <= outputs; k++ {
			for i := 0; i < inputs; i++ {
				if wa.X.At(st, k, i) != wb.X.At(st, k, i) || wa.Y.At(st, k, i) != wb.Y.At(st, k, i) {
					t.Fatalf("tensors differ at [%d,%d,%d]", st, k, i)
				}
			}
		}
	}
}

func TestDiscoverWeightFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "weights_x_in_10.log", "")
	writeFile(t, dir, "weights_x_in_2.log", "")
	writeFile(t, dir, "weights_y_in3.log", "")
	writeFile(t, dir, "weights_z_in_1.log", "")
	writeFile(t, dir, "in.log", "")

	wf, err := DiscoverWeightFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if wf.X[10] != filepath.Join(dir, "weights_x_in_10.log") || wf.X[2] != filepath.Join(dir, "weights_x_in_2.log") {
		t.Errorf("X = %v", wf.X)
	}
	if len(wf.Y) != 1 || wf.Y[3] == "" {
		t.Errorf("Y = %v", wf.Y)
	}

	writeFile(t, dir, "weights_x_in_2_copy.log", "")
	if _, err := DiscoverWeightFiles(dir); !errors.Is(err, ErrDuplicateInput) {
		t.Errorf("duplicate index err = %v", err)
	}
}

func TestLoadWeightsFileCount(t *testing.T) {
	tests := []struct {
		name         string
		xs, ys       int
		nInputs      int
		wantX, wantY int
	}{
		{name: "too few", xs: 3, ys: 3, nInputs: 4, wantX: 3, wantY: 3},
		{name: "x/y mismatch", xs: 4, ys: 3, nInputs: 4, wantX: 4, wantY: 3},
		{name: "no y files", xs: 4, ys: 0, nInputs: 4, wantX: 4, wantY: 0},
		{name: "none", nInputs: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for n := 0; n < tt.xs; n++ {
				writeFile(t, dir, fmt.Sprintf("weights_x_in_%d.log", n), weightLog("x", n, 2, 3))
			}
			for n := 0; n < tt.ys; n++ {
				writeFile(t, dir, fmt.Sprintf("weights_y_in_%d.log", n), weightLog("y", n, 2, 3))
			}
			ws, err := LoadWeights(dir, tt.nInputs, 3)
			if ws != nil {
				t.Error("partial result returned")
			}
			var serr *ShapeError
			if !errors.As(err, &serr) || !errors.Is(err, ErrWeightFileCount) {
				t.Fatalf("err = %v, want file count error", err)
			}
			if serr.Expected != tt.nInputs || serr.FoundX != tt.wantX || serr.FoundY != tt.wantY {
				t.Errorf("counts = %d %d/%d", serr.Expected, serr.FoundX, serr.FoundY)
			}
		})
	}
}

func TestLoadWeightsShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		wantErr error
	}{
		{
			name: "output count",
			setup: func(t *testing.T, dir string) {
				for n := 0; n < 2; n++ {
					writeFile(t, dir, fmt.Sprintf("weights_x_in_%d.log", n), weightLog("x", n, 3, 4))
					writeFile(t, dir, fmt.Sprintf("weights_y_in_%d.log", n), weightLog("y", n, 3, 4))
				}
			},
			wantErr: ErrOutputCount,
		},
		{
			name: "short file",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "weights_x_in_0.log", weightLog("x", 0, 3, 3))
				writeFile(t, dir, "weights_y_in_0.log", weightLog("y", 0, 3, 3))
				writeFile(t, dir, "weights_x_in_1.log", weightLog("x", 1, 2, 3))
				writeFile(t, dir, "weights_y_in_1.log", weightLog("y", 1, 3, 3))
			},
			wantErr: ErrInconsistentShape,
		},
		{
			name: "ragged rows",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "weights_x_in_0.log", weightLog("x", 0, 3, 3))
				writeFile(t, dir, "weights_y_in_0.log", weightLog("y", 0, 3, 3))
				writeFile(t, dir, "weights_x_in_1.log", weightLog("x", 1, 3, 3))
				writeFile(t, dir, "weights_y_in_1.log", "0,1,2,3\n100,1,2\n200,1,2,3\n")
			},
			wantErr: ErrInconsistentShape,
		},
		{
			name: "time axis",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "weights_x_in_0.log", weightLog("x", 0, 3, 3))
				writeFile(t, dir, "weights_y_in_0.log", weightLog("y", 0, 3, 3))
				writeFile(t, dir, "weights_x_in_1.log", weightLog("x", 1, 3, 3))
				writeFile(t, dir, "weights_y_in_1.log", "0,1,2,3\n150,1,2,3\n200,1,2,3\n")
			},
			wantErr: ErrTimeAxisMismatch,
		},
		{
			name: "index out of range",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "weights_x_in_0.log", weightLog("x", 0, 3, 3))
				writeFile(t, dir, "weights_y_in_0.log", weightLog("y", 0, 3, 3))
				writeFile(t, dir, "weights_x_in_5.log", weightLog("x", 5, 3, 3))
				writeFile(t, dir, "weights_y_in_1.log", weightLog("y", 1, 3, 3))
			},
			wantErr: ErrInputIndexRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			ws, err := LoadWeights(dir, 2, 3)
			if ws != nil {
				t.Error("partial result returned")
			}
			var serr *ShapeError
			if !errors.As(err, &serr) || !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadLogs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, InputLogFile, "# time,in0,in1\n0,1,0\n1,0,1\n2,1,1\n")
	writeFile(t, dir, RewardLogFile, "0,0.5\n1,-1\n")

	in, err := LoadInputLog(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	if in.Steps() != 3 || in.Values.At(2, 1) != 1 || in.Time[1] != 1 {
		t.Errorf("input log = %+v", in)
	}
	if _, err := LoadInputLog(dir, 3); !errors.Is(err, ErrInconsistentShape) {
		t.Errorf("wrong input count err = %v", err)
	}

	r, err := LoadRewardLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if r.Values.At(1, 0) != -1 {
		t.Errorf("reward = %v", r.Values)
	}

	writeFile(t, dir, "empty/"+RewardLogFile, "\n")
	if _, err := LoadRewardLog(filepath.Join(dir, "empty")); !errors.Is(err, ErrEmptyLog) {
		t.Errorf("empty log err = %v", err)
	}
}
