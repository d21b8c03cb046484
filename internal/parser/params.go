package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadParams reads params.log from an experiment directory.
func LoadParams(dir string) (*Params, error) {
	return LoadParamsFile(dir, DefaultParamsFile)
}

// LoadParamsFile reads a two line parameter file: a comma separated list
// of labels followed by a comma separated list of values. The file is read
// on every call.
func LoadParamsFile(dir, name string) (*Params, error) {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, &ConfigError{Path: dir, Err: ErrNotDirectory}
	}

	path := filepath.Join(dir, name)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: ErrParamsNotFound}
		}
		return nil, fmt.Errorf("failed to open parameter file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := make([]string, 0, 2)
	for len(lines) < 2 && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	for len(lines) < 2 {
		lines = append(lines, "")
	}

	labels := splitFields(lines[0])
	values := splitFields(lines[1])
	if len(labels) == 0 || len(values) == 0 {
		return nil, &ConfigError{Path: path, Err: ErrNoParams}
	}
	if len(labels) != len(values) {
		return nil, &ConfigError{Path: path, Err: ErrParamCountMismatch}
	}
	return newParams(path, labels, values), nil
}

func splitFields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return strings.Split(line, ",")
}

// Int parses a required integer parameter.
func (p *Params) Int(key string) (int, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, &ConfigError{Path: p.Path, Missing: []string{key}}
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ConfigError{Path: p.Path, Invalid: []string{fmt.Sprintf("%s=%q", key, v)}}
	}
	return n, nil
}

// Float parses a required floating point parameter.
func (p *Params) Float(key string) (float64, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, &ConfigError{Path: p.Path, Missing: []string{key}}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &ConfigError{Path: p.Path, Invalid: []string{fmt.Sprintf("%s=%q", key, v)}}
	}
	return f, nil
}

// keyCollector gathers missing and malformed keys so that a single error
// lists all of them.
type keyCollector struct {
	p       *Params
	missing []string
	invalid []string
}

func (c *keyCollector) intKey(key string, min int) int {
	v, ok := c.p.Get(key)
	if !ok {
		c.missing = append(c.missing, key)
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < min {
		c.invalid = append(c.invalid, fmt.Sprintf("%s=%q", key, v))
		return 0
	}
	return n
}

func (c *keyCollector) floatKey(key string) float64 {
	v, ok := c.p.Get(key)
	if !ok {
		c.missing = append(c.missing, key)
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("%s=%q", key, v))
		return 0
	}
	return f
}

func (c *keyCollector) err() error {
	if len(c.missing) == 0 && len(c.invalid) == 0 {
		return nil
	}
	return &ConfigError{Path: c.p.Path, Missing: c.missing, Invalid: c.invalid}
}

// GridGeometry interprets nRowsIn, nColsIn and nOutputs only. The
// population ranges of the returned Geometry are zero.
func (p *Params) GridGeometry() (Geometry, error) {
	c := &keyCollector{p: p}
	g := Geometry{
		RowsIn:  c.intKey(KeyRowsIn, 1),
		ColsIn:  c.intKey(KeyColsIn, 1),
		Outputs: c.intKey(KeyOutputs, 2),
	}
	return g, c.err()
}

// Geometry interprets every parameter needed to decode the output
// populations. All missing or malformed keys are reported together.
func (p *Params) Geometry() (Geometry, error) {
	c := &keyCollector{p: p}
	g := Geometry{
		RowsIn:  c.intKey(KeyRowsIn, 1),
		ColsIn:  c.intKey(KeyColsIn, 1),
		Outputs: c.intKey(KeyOutputs, 2),
		PopMinX: c.floatKey(KeyPopMinX),
		PopMaxX: c.floatKey(KeyPopMaxX),
		PopMinY: c.floatKey(KeyPopMinY),
		PopMaxY: c.floatKey(KeyPopMaxY),
	}
	return g, c.err()
}

// FindExperiments returns dir itself if it holds a parameter file and, when
// recursive is set, every directory below it that does. Directories are
// returned in lexical order.
func FindExperiments(dir, paramsFile string, recursive bool) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, &ConfigError{Path: dir, Err: ErrNotDirectory}
	}

	hasParams := func(d string) bool {
		st, err := os.Stat(filepath.Join(d, paramsFile))
		return err == nil && st.Mode().IsRegular()
	}

	if !recursive {
		if hasParams(dir) {
			return []string{dir}, nil
		}
		return nil, nil
	}

	var dirs []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && hasParams(path) {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}
