package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tklauser/thesis-scripts/internal/analysis"
	"github.com/tklauser/thesis-scripts/internal/config"
	"gonum.org/v1/plot/vg"
)

// ReportFile is the name of the PDF written per experiment.
const ReportFile = "report.pdf"

// OutputPath returns where a file called name produced for the experiment
// in dir is written. With an empty outDir it goes next to the logs,
// otherwise into outDir prefixed with the flattened experiment path so
// that several experiments can share one output directory.
func OutputPath(dir, outDir, name string) string {
	if outDir == "" {
		return filepath.Join(dir, name)
	}
	clean := filepath.ToSlash(filepath.Clean(dir))
	var parts []string
	for _, p := range strings.Split(clean, "/") {
		if p != "" && p != "." && p != ".." {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(outDir, strings.Join(parts, "_")+"_"+name)
}

// OptionsFromConfig returns the plot options of cfg for the experiment in dir.
func OptionsFromConfig(cfg *config.Config, dir string) PlotOptions {
	opts := PlotOptions{
		Width:    vg.Points(cfg.Output.WidthPt),
		Height:   vg.Points(cfg.Output.HeightPt),
		Colormap: cfg.Output.Colormap,
	}
	if cfg.Output.ShowTitle {
		opts.Title = dir
	}
	return opts
}

// GenerateReport loads, decodes and plots the experiment in dir and writes
// its PDF report. It returns the path of the written file.
func GenerateReport(dir string, cfg *config.Config) (string, *ExperimentReport, error) {
	exp, err := analysis.LoadExperiment(dir, cfg.ParamsFile, true)
	if err != nil {
		return "", nil, err
	}
	d, err := cfg.Decoder()
	if err != nil {
		return "", nil, err
	}
	fields, err := exp.Fields(d, cfg.TimeSteps)
	if err != nil {
		return "", nil, err
	}

	r := Assemble(exp, fields, OptionsFromConfig(cfg, dir))
	for _, name := range exp.Weights.Skipped {
		r.Warnings = append(r.Warnings, fmt.Sprintf("ignored weight log without input index: %s", name))
	}

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return "", nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	path := OutputPath(dir, cfg.Output.Dir, ReportFile)
	if err := BuildPDFReport(path, r); err != nil {
		return "", nil, fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, r, nil
}
