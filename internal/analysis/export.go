package analysis

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tklauser/thesis-scripts/internal/parser"
)

// Files written by ExportFinalWeights.
const (
	AllWeightsXFile = "weights_all_x.log"
	AllWeightsYFile = "weights_all_y.log"
)

// FinalWeights returns the weights of the last recorded step, time column
// stripped, input major: element i*Outputs+k is output k of input i.
func FinalWeights(w *parser.WeightTensor) []float64 {
	last := w.Steps() - 1
	out := make([]float64, 0, w.Inputs*w.Outputs)
	for i := 0; i < w.Inputs; i++ {
		out = append(out, w.Weights(last, i)...)
	}
	return out
}

// ExportFinalWeights writes the final weights of both axes to
// weights_all_x.log and weights_all_y.log in dir, one value per line.
// It returns the written paths.
func ExportFinalWeights(dir string, ws *parser.WeightSet) ([]string, error) {
	var written []string
	for _, out := range []struct {
		name string
		w    *parser.WeightTensor
	}{
		{AllWeightsXFile, ws.X},
		{AllWeightsYFile, ws.Y},
	} {
		path := filepath.Join(dir, out.name)
		if err := writeColumn(path, FinalWeights(out.w)); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeColumn(path string, vals []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create weight file: %w", err)
	}
	w := bufio.NewWriter(file)
	for _, v := range vals {
		fmt.Fprintf(w, "%1.12f\n", v)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
