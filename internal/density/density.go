// Package density holds the reference and per-channel density arrays
// read from a volumetric file, plus the vacuum tolerance and the
// descending-sorted index order the weight partitioner sweeps in.
package density

import (
	"sort"

	"github.com/pkg/errors"
)

// Density holds one or more scalar fields on the same grid, plus the
// reference field used to drive the weight sweep.
type Density struct {
	Reference      []float64
	Channels       [][]float64
	VacuumTolerance float64
}

// New validates that every channel has the same length as the
// reference field and that the vacuum tolerance is non-negative.
func New(reference []float64, channels [][]float64, vacuumTolerance float64) (*Density, error) {
	if vacuumTolerance < 0 {
		return nil, errors.Errorf("vacuum tolerance must be non-negative, got %v", vacuumTolerance)
	}
	for i, c := range channels {
		if len(c) != len(reference) {
			return nil, errors.Errorf("channel %d has length %d, want %d", i, len(c), len(reference))
		}
	}
	return &Density{Reference: reference, Channels: channels, VacuumTolerance: vacuumTolerance}, nil
}

// IsVacuum reports whether voxel p is below the vacuum tolerance and
// therefore excluded from the sweep and from basin reduction.
func (d *Density) IsVacuum(p int) bool {
	return d.Reference[p] < d.VacuumTolerance
}

// SortedNonVacuumIndices returns the voxel indices with reference
// density at or above the vacuum tolerance, sorted by strictly
// non-increasing reference density. Ties are broken by ascending
// voxel index: this gives the sweep a total order, so a tied voxel
// only ever depends on neighbours that sort strictly before it or
// that are guaranteed to have already published (equal-density
// neighbours contribute zero flux per the weight step and are never
// awaited).
func (d *Density) SortedNonVacuumIndices() []int {
	out := make([]int, 0, len(d.Reference))
	for p := range d.Reference {
		if !d.IsVacuum(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i], out[j]
		if d.Reference[pi] != d.Reference[pj] {
			return d.Reference[pi] > d.Reference[pj]
		}
		return pi < pj
	})
	return out
}
