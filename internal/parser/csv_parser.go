package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ReadNumericCSV reads a comma separated file of floating point rows into
// a dense matrix. Blank lines and lines starting with '#' are skipped.
// Every row must have the same number of fields.
func ReadNumericCSV(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()
	return readNumericCSV(path, file)
}

func readNumericCSV(path string, r io.Reader) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.ReuseRecord = true

	var data []float64
	rows, cols := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				return nil, &ShapeError{Path: path, Err: ErrInconsistentShape,
					Detail: fmt.Sprintf("line %d has a different number of columns", perr.Line)}
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if rows == 0 {
			cols = len(record)
		}
		for c, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d, column %d: could not convert %q to a number: %w",
					path, rows+1, c+1, field, err)
			}
			data = append(data, v)
		}
		rows++
	}

	if rows == 0 {
		return nil, &ShapeError{Path: path, Err: ErrEmptyLog}
	}
	return mat.NewDense(rows, cols, data), nil
}
