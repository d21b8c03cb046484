package parser

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Log files written next to params.log besides the weight logs.
const (
	InputLogFile  = "in.log"
	RewardLogFile = "reward.log"
)

// TimeSeries is a log whose first column is the time stamp of the row.
type TimeSeries struct {
	Path   string
	Time   []float64
	Values *mat.Dense // rows x (columns-1), time column stripped
}

// Steps returns the number of rows.
func (ts *TimeSeries) Steps() int { return len(ts.Time) }

func loadTimeSeries(path string) (*TimeSeries, error) {
	m, err := ReadNumericCSV(path)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	if cols < 2 {
		return nil, &ShapeError{Path: path, Err: ErrInconsistentShape,
			Detail: fmt.Sprintf("need a time column and at least one value column, found %d columns", cols)}
	}
	return &TimeSeries{
		Path:   path,
		Time:   mat.Col(nil, 0, m),
		Values: mat.DenseCopyOf(m.Slice(0, rows, 1, cols)),
	}, nil
}

// LoadInputLog reads in.log, one column per input unit holding its
// activation at each step. The column count must be nInputs.
func LoadInputLog(dir string, nInputs int) (*TimeSeries, error) {
	ts, err := loadTimeSeries(filepath.Join(dir, InputLogFile))
	if err != nil {
		return nil, err
	}
	if _, c := ts.Values.Dims(); c != nInputs {
		return nil, &ShapeError{Path: ts.Path, Err: ErrInconsistentShape,
			Detail: fmt.Sprintf("expected %d input columns, found %d", nInputs, c)}
	}
	return ts, nil
}

// LoadRewardLog reads reward.log.
func LoadRewardLog(dir string) (*TimeSeries, error) {
	return loadTimeSeries(filepath.Join(dir, RewardLogFile))
}
