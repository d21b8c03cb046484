package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drobot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
policy: wta
time_steps: [-1, -100, 5]
workers: 4
output:
  dir: /tmp/out
  show_title: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy != "wta" || cfg.Workers != 4 || len(cfg.TimeSteps) != 3 || cfg.TimeSteps[1] != -100 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Output.Dir != "/tmp/out" || !cfg.Output.ShowTitle {
		t.Errorf("output = %+v", cfg.Output)
	}
	// Untouched keys keep their defaults.
	if cfg.ParamsFile != "params.log" || cfg.Output.Colormap != "gray_r" || cfg.Output.WidthPt != 500 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	d, err := cfg.Decoder()
	if err != nil || d.Policy.Name() != "wta" {
		t.Errorf("Decoder = %v, %v", d, err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"policy":     "policy: median\n",
		"workers":    "workers: 0\n",
		"time steps": "time_steps: []\n",
		"size":       "output:\n  width_pt: -1\n",
		"yaml":       "policy: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseTimeSteps(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"0,-1", []int{0, -1}, false},
		{" 3 , 7,", []int{3, 7}, false},
		{"-5", []int{-5}, false},
		{"", nil, true},
		{",", nil, true},
		{"1,x", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeSteps(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeSteps(%q) error = %v", tt.in, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseTimeSteps(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTimeSteps(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
