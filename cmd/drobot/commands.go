package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tklauser/thesis-scripts/internal/analysis"
	"github.com/tklauser/thesis-scripts/internal/batch"
	"github.com/tklauser/thesis-scripts/internal/config"
	"github.com/tklauser/thesis-scripts/internal/parser"
	"github.com/tklauser/thesis-scripts/internal/report"
)

// stepsFlag is a comma separated list of time steps, e.g. "0,-1".
type stepsFlag []int

func (s *stepsFlag) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (s *stepsFlag) Set(v string) error {
	steps, err := config.ParseTimeSteps(v)
	if err != nil {
		return err
	}
	*s = steps
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: drobot %s %s\n", name, commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseDirs parses the flags and returns the remaining directory arguments.
func parseDirs(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errors.New("no experiment directory given")
	}
	return fs.Args(), nil
}

// runEach runs job on every directory and logs the failures.
func runEach(ctx context.Context, dirs []string, workers int, job batch.Job) error {
	results := batch.Run(ctx, dirs, workers, job)
	failed := batch.Failed(results)
	for _, r := range failed {
		log.Printf("%s: %v", r.Dir, r.Err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d directories failed", len(failed), len(results))
	}
	return nil
}

func writePNG(dir, outDir, name string, png []byte) (string, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	path := report.OutputPath(dir, outDir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write plot: %w", err)
	}
	return path, nil
}

func runParams(ctx context.Context, args []string) error {
	fs := newFlagSet("params")
	recursive := fs.Bool("R", false, "search the directories recursively for experiments")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	if *recursive {
		var found []string
		for _, d := range dirs {
			sub, err := parser.FindExperiments(d, parser.DefaultParamsFile, true)
			if err != nil {
				return err
			}
			if len(sub) == 0 {
				log.Printf("%s: no experiments found", d)
			}
			found = append(found, sub...)
		}
		dirs = found
	}

	// One worker keeps the listing in argument order.
	return runEach(ctx, dirs, 1, func(_ context.Context, dir string) error {
		p, err := parser.LoadParams(dir)
		if err != nil {
			return err
		}
		return report.FormatParams(os.Stdout, dir, p)
	})
}

func runForceFields(ctx context.Context, args []string) error {
	fs := newFlagSet("forcefields")
	steps := stepsFlag{0, -1}
	fs.Var(&steps, "t", "comma separated time steps, negative values count from the end")
	policy := fs.String("p", "centroid", "decoding policy (centroid, wta)")
	strict := fs.Bool("strict", false, "fail when an input has zero total weight")
	out := fs.String("o", "", "output directory (default: the experiment directory)")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	d, err := analysis.NewDecoder(*policy, *strict)
	if err != nil {
		return err
	}
	return runEach(ctx, dirs, 1, func(_ context.Context, dir string) error {
		exp, err := analysis.LoadExperiment(dir, "", true)
		if err != nil {
			return err
		}
		fields, err := exp.Fields(d, steps)
		if err != nil {
			return err
		}
		for _, f := range fields {
			png, err := report.CreateForceFieldPlot(f, report.PlotOptions{Title: dir})
			if err != nil {
				return err
			}
			path, err := writePNG(dir, *out, fmt.Sprintf("forcefield_t%d.png", f.Step), png)
			if err != nil {
				return err
			}
			fmt.Printf("%s: step %d (t=%g), %d of %d inputs decoded -> %s\n",
				dir, f.Step, f.Time, len(f.DX)-len(f.Degenerate), len(f.DX), path)
		}
		return nil
	})
}

func runWeights(ctx context.Context, args []string) error {
	fs := newFlagSet("weights")
	steps := stepsFlag{0, -1}
	fs.Var(&steps, "t", "comma separated time steps, negative values count from the end")
	colormap := fs.String("c", "gray_r", "colour map of the heat maps")
	out := fs.String("o", "", "output directory (default: the experiment directory)")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	return runEach(ctx, dirs, 1, func(_ context.Context, dir string) error {
		exp, err := analysis.LoadExperiment(dir, "", false)
		if err != nil {
			return err
		}
		opts := report.PlotOptions{Title: dir, Colormap: *colormap}
		for _, s := range steps {
			t := analysis.ResolveTimeIndex(s, exp.Weights.Steps())
			for _, axis := range []parser.Axis{parser.AxisX, parser.AxisY} {
				png, err := report.CreateWeightHeatmap(exp.Weights.Tensor(axis), t, opts)
				if err != nil {
					return err
				}
				path, err := writePNG(dir, *out, fmt.Sprintf("heatmap_%s_t%d.png", axis, t), png)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s weights at step %d -> %s\n", dir, axis, t, path)
			}
		}
		return nil
	})
}

func runHeatmap(ctx context.Context, args []string) error {
	fs := newFlagSet("heatmap")
	steps := stepsFlag{-1}
	fs.Var(&steps, "t", "comma separated time steps, negative values count from the end")
	colormap := fs.String("c", "heat", "colour map of the heat maps")
	out := fs.String("o", "", "output directory (default: the experiment directory)")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	return runEach(ctx, dirs, 1, func(_ context.Context, dir string) error {
		p, err := parser.LoadParams(dir)
		if err != nil {
			return err
		}
		g, err := p.GridGeometry()
		if err != nil {
			return err
		}
		in, err := parser.LoadInputLog(dir, g.Inputs())
		if err != nil {
			return err
		}
		opts := report.PlotOptions{Title: dir, Colormap: *colormap}
		for _, s := range steps {
			m, err := analysis.ActivationCounts(in, s, g.RowsIn, g.ColsIn)
			if err != nil {
				return err
			}
			png, err := report.CreateActivationHeatmap(m, opts)
			if err != nil {
				return err
			}
			path, err := writePNG(dir, *out, fmt.Sprintf("activations_t%d.png", m.Step), png)
			if err != nil {
				return err
			}
			fmt.Printf("%s: activations up to step %d -> %s\n", dir, m.Step, path)
		}
		return nil
	})
}

func runReward(ctx context.Context, args []string) error {
	fs := newFlagSet("reward")
	out := fs.String("o", "", "output directory (default: the experiment directory)")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	return runEach(ctx, dirs, 1, func(_ context.Context, dir string) error {
		rw, err := parser.LoadRewardLog(dir)
		if err != nil {
			return err
		}
		curve := analysis.CumulativeReward(rw)
		fmt.Printf("%s: cumulative reward %g over %d steps\n", dir, curve.Final, rw.Steps())
		if len(curve.Cumulative) < 2 {
			return nil
		}
		png, err := report.CreateRewardChart(curve, dir, 800, 400)
		if err != nil {
			return err
		}
		path, err := writePNG(dir, *out, "reward.png", png)
		if err != nil {
			return err
		}
		fmt.Printf("%s: reward chart -> %s\n", dir, path)
		return nil
	})
}

func runExportWeights(ctx context.Context, args []string) error {
	fs := newFlagSet("export-weights")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	return runEach(ctx, dirs, 1, func(_ context.Context, dir string) error {
		exp, err := analysis.LoadExperiment(dir, "", false)
		if err != nil {
			return err
		}
		written, err := analysis.ExportFinalWeights(dir, exp.Weights)
		if err != nil {
			return err
		}
		fmt.Printf("%s: wrote %s\n", dir, strings.Join(written, ", "))
		return nil
	})
}

func runReport(ctx context.Context, args []string) error {
	fs := newFlagSet("report")
	cfgPath := fs.String("config", "", "YAML configuration file")
	workers := fs.Int("j", 0, "number of experiments processed in parallel (default from config)")
	var steps stepsFlag
	fs.Var(&steps, "t", "comma separated time steps (default from config)")
	out := fs.String("o", "", "output directory (default from config)")
	dirs, err := parseDirs(fs, args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if len(steps) > 0 {
		cfg.TimeSteps = steps
	}
	if *out != "" {
		cfg.Output.Dir = *out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Printf("building reports for %d experiments with %d workers", len(dirs), cfg.Workers)
	return runEach(ctx, dirs, cfg.Workers, func(ctx context.Context, dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, r, err := report.GenerateReport(dir, cfg)
		if err != nil {
			return err
		}
		log.Printf("%s: report %s written to %s (%d figures, %d warnings)", dir, r.ID, path, len(r.Figures), len(r.Warnings))
		return nil
	})
}
