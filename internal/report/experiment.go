package report

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/tklauser/thesis-scripts/internal/analysis"
	"github.com/tklauser/thesis-scripts/internal/parser"
)

const rewardChartSize = 600

// Assemble renders every figure of one experiment: a force field and both
// weight heat maps per decoded field, plus the activation heat map and the
// reward chart when in.log and reward.log exist. Plots that fail are
// recorded as warnings and left out.
func Assemble(exp *analysis.Experiment, fields []*analysis.Field, opts PlotOptions) *ExperimentReport {
	r := NewExperimentReport(exp.Dir)
	r.Params = exp.Params
	r.Steps = exp.Weights.Steps()
	if len(fields) > 0 {
		r.Policy = fields[0].Policy
	}

	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("%s: %s", exp.Dir, msg)
		r.Warnings = append(r.Warnings, msg)
	}
	add := func(key, title string, png []byte, ratio float64) {
		r.Figures = append(r.Figures, Figure{Key: key, Title: title, PNG: png, Ratio: ratio})
	}
	w, h := opts.size()
	square := float64(h / w)

	for _, f := range fields {
		png, err := CreateForceFieldPlot(f, opts)
		if err != nil {
			warn("force field at step %d: %v", f.Step, err)
		} else {
			g := exp.Geometry
			add(fmt.Sprintf("field_%d", f.Step), fmt.Sprintf("Force field, step %d (t=%g)", f.Step, f.Time), png,
				float64(g.RowsIn+1)/float64(g.ColsIn+1))
		}
		if len(f.Degenerate) > 0 {
			warn("step %d: %d inputs have zero total weight and were not decoded", f.Step, len(f.Degenerate))
		}
		for _, axis := range []parser.Axis{parser.AxisX, parser.AxisY} {
			png, err := CreateWeightHeatmap(exp.Weights.Tensor(axis), f.Step, opts)
			if err != nil {
				warn("%s weights at step %d: %v", axis, f.Step, err)
				continue
			}
			add(fmt.Sprintf("weights_%s_%d", axis, f.Step), fmt.Sprintf("%s weights, step %d", axis, f.Step), png, square)
		}
	}

	if in, err := parser.LoadInputLog(exp.Dir, exp.Geometry.Inputs()); err == nil {
		m, err := analysis.ActivationCounts(in, -1, exp.Geometry.RowsIn, exp.Geometry.ColsIn)
		if err == nil {
			var png []byte
			png, err = CreateActivationHeatmap(m, opts)
			if err == nil {
				add("activations", fmt.Sprintf("Input activations up to step %d", m.Step), png, square)
			}
		}
		if err != nil {
			warn("activation heat map: %v", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		warn("input log: %v", err)
	}

	if rw, err := parser.LoadRewardLog(exp.Dir); err == nil {
		curve := analysis.CumulativeReward(rw)
		png, err := CreateRewardChart(curve, "cumulative reward", rewardChartSize, rewardChartSize/2)
		if err != nil {
			warn("reward chart: %v", err)
		} else {
			add("reward", fmt.Sprintf("Cumulative reward (final %g)", curve.Final), png, 0.5)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		warn("reward log: %v", err)
	}

	return r
}
