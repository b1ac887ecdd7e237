// Package ioformat defines the reader contract consumed by the
// pipeline driver: a reader turns a volumetric file into density
// arrays, atoms, a grid, and a voxel origin (§6). Specific file
// formats (VASP CHGCAR/LOCPOT-style grids, Gaussian cube files) are
// thin adapters implementing this interface under ioformat/vasp and
// ioformat/cube.
package ioformat

import (
	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
)

// Result is everything a reader must produce from a density file.
type Result struct {
	Densities   [][]float64 // one array per channel (charge, spin, ...)
	Size        [3]int
	Lattice     atoms.Mat3
	Positions   []atoms.Vec3
	VoxelOrigin atoms.Vec3
}

// Reader parses one volumetric density file.
type Reader interface {
	Read(path string) (*Result, error)
}

// Reference builds the reference density consumed by the sweep: the
// first channel of the primary result, plus any additional reference
// files summed in (§6).
func Reference(primary *Result, extra []*Result) []float64 {
	reference := make([]float64, len(primary.Densities[0]))
	copy(reference, primary.Densities[0])
	for _, r := range extra {
		for i, v := range r.Densities[0] {
			reference[i] += v
		}
	}
	return reference
}
