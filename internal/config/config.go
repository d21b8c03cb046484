package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tklauser/thesis-scripts/internal/analysis"
	"github.com/tklauser/thesis-scripts/internal/parser"
	"gopkg.in/yaml.v3"
)

// Config controls a batch analysis run.
type Config struct {
	ParamsFile string `yaml:"params_file"`
	Policy     string `yaml:"policy"`
	// TimeSteps are requested steps; negative values count from the end.
	TimeSteps []int `yaml:"time_steps"`
	// Strict fails a directory when an input cannot be decoded.
	Strict  bool         `yaml:"strict"`
	Workers int          `yaml:"workers"`
	Output  OutputConfig `yaml:"output"`
}

// OutputConfig holds settings of the generated figures and reports.
type OutputConfig struct {
	// Dir receives the reports; empty writes into each experiment directory.
	Dir       string  `yaml:"dir"`
	Colormap  string  `yaml:"colormap"`
	ShowTitle bool    `yaml:"show_title"`
	WidthPt   float64 `yaml:"width_pt"`
	HeightPt  float64 `yaml:"height_pt"`
}

// Default returns the settings used when no file is given: first and last
// time step, weighted centroid decoding, one worker.
func Default() *Config {
	return &Config{
		ParamsFile: parser.DefaultParamsFile,
		Policy:     "centroid",
		TimeSteps:  []int{0, -1},
		Workers:    1,
		Output: OutputConfig{
			Colormap: "gray_r",
			WidthPt:  500,
			HeightPt: 500,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := analysis.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if len(c.TimeSteps) == 0 {
		return fmt.Errorf("time_steps must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ParamsFile == "" {
		return fmt.Errorf("params_file must not be empty")
	}
	if c.Output.WidthPt <= 0 || c.Output.HeightPt <= 0 {
		return fmt.Errorf("output size must be positive, got %gx%g", c.Output.WidthPt, c.Output.HeightPt)
	}
	return nil
}

// Decoder builds the decoder selected by the configuration.
func (c *Config) Decoder() (*analysis.Decoder, error) {
	return analysis.NewDecoder(c.Policy, c.Strict)
}

// ParseTimeSteps parses a comma separated list of time steps such as
// "0,-1". Empty fields are ignored.
func ParseTimeSteps(v string) ([]int, error) {
	var steps []int
	for _, f := range strings.Split(v, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid time step %q", f)
		}
		steps = append(steps, n)
	}
	if len(steps) == 0 {
		return nil, errors.New("no time steps given")
	}
	return steps, nil
}
