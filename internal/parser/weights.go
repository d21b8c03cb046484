package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

var (
	// weightFileLoose matches everything the experiment could have written
	// as a per-input weight log.
	weightFileLoose = regexp.MustCompile(`^weights_([xy])_in.*\.log$`)
	// weightFileIndexed captures the input index, which is the first digit
	// run after the prefix.
	weightFileIndexed = regexp.MustCompile(`^weights_([xy])_in_?(\d+).*\.log$`)
)

// WeightFiles maps input indices to weight log paths for both axes.
// Listing order of the directory plays no role in the mapping.
type WeightFiles struct {
	X, Y    map[int]string
	Skipped []string
}

// DiscoverWeightFiles lists dir and sorts the weight logs by axis and
// embedded input index.
func DiscoverWeightFiles(dir string) (*WeightFiles, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if fi, serr := os.Stat(dir); serr != nil || !fi.IsDir() {
			return nil, &ConfigError{Path: dir, Err: ErrNotDirectory}
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	wf := &WeightFiles{X: make(map[int]string), Y: make(map[int]string)}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !weightFileLoose.MatchString(name) {
			continue
		}
		match := weightFileIndexed.FindStringSubmatch(name)
		if match == nil {
			wf.Skipped = append(wf.Skipped, name)
			continue
		}
		n, err := strconv.Atoi(match[2])
		if err != nil {
			wf.Skipped = append(wf.Skipped, name)
			continue
		}
		files := wf.X
		if match[1] == "y" {
			files = wf.Y
		}
		if prev, dup := files[n]; dup {
			return nil, &ShapeError{Path: dir, Err: ErrDuplicateInput,
				Detail: fmt.Sprintf("input %d claimed by %s and %s", n, filepath.Base(prev), name)}
		}
		files[n] = filepath.Join(dir, name)
	}
	sort.Strings(wf.Skipped)
	return wf, nil
}

// LoadWeights reads the per-input weight logs of an experiment directory
// into one tensor per axis, shaped [steps, nOutputs+1, nInputs]. Either
// both tensors are returned or an error; the directory is never modified.
func LoadWeights(dir string, nInputs, nOutputs int) (*WeightSet, error) {
	wf, err := DiscoverWeightFiles(dir)
	if err != nil {
		return nil, err
	}

	nx, ny := len(wf.X), len(wf.Y)
	if nx == 0 || ny == 0 || nx != ny || nx != nInputs {
		return nil, &ShapeError{Path: dir, Err: ErrWeightFileCount, Expected: nInputs, FoundX: nx, FoundY: ny}
	}
	for _, files := range []map[int]string{wf.X, wf.Y} {
		for n, path := range files {
			if n >= nInputs {
				return nil, &ShapeError{Path: path, Err: ErrInputIndexRange,
					Detail: fmt.Sprintf("index %d, nInputs is %d", n, nInputs)}
			}
		}
	}

	// Counts match and all indices are in range, so 0 is present for both axes.
	probeX, err := ReadNumericCSV(wf.X[0])
	if err != nil {
		return nil, err
	}
	probeY, err := ReadNumericCSV(wf.Y[0])
	if err != nil {
		return nil, err
	}
	rowsX, colsX := probeX.Dims()
	rowsY, colsY := probeY.Dims()
	if colsX-1 != nOutputs || colsY-1 != nOutputs {
		return nil, &ShapeError{Path: dir, Err: ErrOutputCount,
			Detail: fmt.Sprintf("nOutputs is %d, found %d/%d (x/y) weight columns", nOutputs, colsX-1, colsY-1)}
	}
	if rowsX != rowsY {
		return nil, &ShapeError{Path: dir, Err: ErrInconsistentShape,
			Detail: fmt.Sprintf("%d rows in %s but %d rows in %s",
				rowsX, filepath.Base(wf.X[0]), rowsY, filepath.Base(wf.Y[0]))}
	}
	timeAxis := mat.Col(nil, 0, probeX)

	ws := &WeightSet{
		Dir:     dir,
		X:       NewWeightTensor(AxisX, rowsX, nOutputs, nInputs),
		Y:       NewWeightTensor(AxisY, rowsY, nOutputs, nInputs),
		Skipped: wf.Skipped,
	}

	fill := func(t *WeightTensor, files map[int]string, probe *mat.Dense) error {
		for n := 0; n < nInputs; n++ {
			block := probe
			if n != 0 {
				if block, err = ReadNumericCSV(files[n]); err != nil {
					return err
				}
			}
			if err := checkBlock(files[n], block, rowsX, nOutputs+1, timeAxis); err != nil {
				return err
			}
			t.setInput(n, block)
		}
		return nil
	}
	if err := fill(ws.X, wf.X, probeX); err != nil {
		return nil, err
	}
	if err := fill(ws.Y, wf.Y, probeY); err != nil {
		return nil, err
	}
	return ws, nil
}

func checkBlock(path string, block *mat.Dense, rows, cols int, timeAxis []float64) error {
	r, c := block.Dims()
	if r != rows || c != cols {
		return &ShapeError{Path: path, Err: ErrInconsistentShape,
			Detail: fmt.Sprintf("expected %dx%d, found %dx%d", rows, cols, r, c)}
	}
	for t, ts := range timeAxis {
		if block.At(t, 0) != ts {
			return &ShapeError{Path: path, Err: ErrTimeAxisMismatch,
				Detail: fmt.Sprintf("row %d has time %g, expected %g", t+1, block.At(t, 0), ts)}
		}
	}
	return nil
}
