// Package config validates the parsed CLI arguments into the
// Configuration values the rest of the pipeline consumes, surfacing
// bad input as a Configuration-kind error (§7).
package config

import (
	"github.com/sarat-asymmetrica/baderpart/internal/baderr"
)

// Method selects the gradient-classification algorithm.
type Method int

const (
	MethodWeight Method = iota
	MethodOngrid
	MethodNeargrid
)

// ParseMethod resolves a --method flag value. Ongrid and Neargrid are
// recognised but rejected by Validate: this build only implements the
// Weight method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "weight":
		return MethodWeight, nil
	case "ongrid":
		return MethodOngrid, nil
	case "neargrid":
		return MethodNeargrid, nil
	default:
		return 0, baderr.Newf(baderr.Configuration, "unknown method %q", s)
	}
}

// FileType selects the volumetric reader.
type FileType int

const (
	FileTypeVASP FileType = iota
	FileTypeCube
)

// ParseFileType resolves a --file-type flag value.
func ParseFileType(s string) (FileType, error) {
	switch s {
	case "", "vasp":
		return FileTypeVASP, nil
	case "cube":
		return FileTypeCube, nil
	default:
		return 0, baderr.Newf(baderr.Configuration, "unknown file type %q", s)
	}
}

const (
	DefaultVacuumTolerance = 1e-6
	DefaultWeightTolerance = 1e-8
)

// Config holds the validated run parameters for one partitioning job.
type Config struct {
	DensityPath     string
	ReferencePaths  []string
	SpinPath        string
	Method          Method
	FileType        FileType
	Threads         int
	VacuumTolerance float64
	WeightTolerance float64
	Verbose         bool
}

// Validate enforces the Configuration-kind invariants: thread count
// must be positive, tolerances non-negative.
func (c *Config) Validate() error {
	if c.DensityPath == "" {
		return baderr.New(baderr.Configuration, "density file path is required")
	}
	if c.Threads <= 0 {
		return baderr.Newf(baderr.Configuration, "thread count must be positive, got %d", c.Threads)
	}
	if c.VacuumTolerance < 0 {
		return baderr.Newf(baderr.Configuration, "vacuum tolerance must be non-negative, got %v", c.VacuumTolerance)
	}
	if c.WeightTolerance < 0 {
		return baderr.Newf(baderr.Configuration, "weight tolerance must be non-negative, got %v", c.WeightTolerance)
	}
	if c.Method != MethodWeight {
		return baderr.New(baderr.Configuration, "only the weight method is implemented in this build")
	}
	return nil
}

// New builds a Config with the documented numerical defaults (§4.5)
// and a single-threaded run, to be overridden by CLI flags.
func New(densityPath string) *Config {
	return &Config{
		DensityPath:     densityPath,
		Method:          MethodWeight,
		FileType:        FileTypeVASP,
		Threads:         1,
		VacuumTolerance: DefaultVacuumTolerance,
		WeightTolerance: DefaultWeightTolerance,
	}
}
