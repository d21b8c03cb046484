package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Causes carried by ConfigError. Use errors.Is to tell them apart.
var (
	ErrNotDirectory       = errors.New("not a directory")
	ErrParamsNotFound     = errors.New("parameter file not found")
	ErrNoParams           = errors.New("no parameters found")
	ErrParamCountMismatch = errors.New("number of labels doesn't correspond to number of values")
	ErrMissingParam       = errors.New("necessary parameter not found")
	ErrInvalidParam       = errors.New("parameter value is not a valid number")
)

// Causes carried by ShapeError.
var (
	ErrWeightFileCount   = errors.New("unexpected number of weight files")
	ErrDuplicateInput    = errors.New("duplicate input index in weight files")
	ErrInputIndexRange   = errors.New("input index out of range")
	ErrOutputCount       = errors.New("invalid number of outputs in weight files")
	ErrInconsistentShape = errors.New("inconsistent weight file shape")
	ErrTimeAxisMismatch  = errors.New("weight files do not share the same time axis")
	ErrEmptyLog          = errors.New("log file contains no data rows")
)

// ConfigError reports a missing or malformed experiment directory or
// parameter file. Missing and Invalid list every offending key when the
// error comes from building a typed Geometry.
type ConfigError struct {
	Path    string
	Err     error
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	b.WriteString(": ")
	var parts []string
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%v: %s", ErrMissingParam, strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("%v: %s", ErrInvalidParam, strings.Join(e.Invalid, ", ")))
	}
	b.WriteString(strings.Join(parts, "; "))
	return b.String()
}

func (e *ConfigError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if len(e.Missing) > 0 {
		errs = append(errs, ErrMissingParam)
	}
	if len(e.Invalid) > 0 {
		errs = append(errs, ErrInvalidParam)
	}
	return errs
}

// ShapeError reports weight or log files whose number or dimensions do not
// agree with the declared experiment geometry.
type ShapeError struct {
	Path   string
	Err    error
	Detail string

	// Set for ErrWeightFileCount.
	Expected, FoundX, FoundY int
}

func (e *ShapeError) Error() string {
	if e.Err == ErrWeightFileCount {
		return fmt.Sprintf("%s: not enough weight files, should be %d (nInputs), but %d/%d (x/y) found",
			e.Path, e.Expected, e.FoundX, e.FoundY)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, e.Detail)
}

func (e *ShapeError) Unwrap() error { return e.Err }
