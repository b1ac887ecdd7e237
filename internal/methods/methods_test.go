package methods

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/density"
	"github.com/sarat-asymmetrica/baderpart/internal/grid"
	"github.com/sarat-asymmetrica/baderpart/internal/voxelmap"
)

func cubicGrid(t *testing.T, n int, cell float64) *grid.Grid {
	t.Helper()
	basis := atoms.Mat3{{cell, 0, 0}, {0, cell, 0}, {0, 0, cell}}
	g, err := grid.New(basis, [3]int{n, n, n}, atoms.Vec3{0, 0, 0})
	require.NoError(t, err)
	return g
}

func TestWeightStepBoundaryBetweenTwoMaxima(t *testing.T) {
	n := 4
	g := cubicGrid(t, n, float64(n)*3.0)
	total := n * n * n
	dens := make([]float64, total)
	for p := range dens {
		dens[p] = float64(p)
	}
	dens[34] = 0

	vm := voxelmap.NewBlocking(total)
	for i, p := range []int{37, 45, 49} {
		vm.MaximaStore(p, 62-(i%2))
	}

	result := WeightStep(33, dens, g, vm, 1e-8)
	require.Equal(t, ResultBoundary, result.Kind)
	require.Len(t, result.Boundary, 2)
	assert.InDelta(t, 1.0, sumWeights(result.Boundary), 1e-9)
}

func sumWeights(entries []voxelmap.Entry) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.Weight
	}
	return total
}

func TestWeightStepLocalMaximumHasNoUpwardFlux(t *testing.T) {
	n := 4
	g := cubicGrid(t, n, float64(n)*3.0)
	total := n * n * n
	dens := make([]float64, total)
	// Make voxel 0 the global maximum.
	dens[0] = 1000
	vm := voxelmap.NewBlocking(total)

	result := WeightStep(0, dens, g, vm, 1e-8)
	assert.Equal(t, ResultMaxima, result.Kind)
}

func TestWeightConservesBasinMembershipOnCheckerboard(t *testing.T) {
	n := 4
	g := cubicGrid(t, n, float64(n)*3.0)
	total := n * n * n
	dens := make([]float64, total)
	for p := 0; p < total; p++ {
		i, j, k := g.Decompose(p)
		dens[p] = float64((i + j + k) % 2)
	}

	d, err := density.New(dens, nil, 0)
	require.NoError(t, err)
	index := d.SortedNonVacuumIndices()

	vm := voxelmap.NewBlocking(total)
	MarkVacuum(d, vm)
	Weight(dens, g, vm, index, nil, 4, 1e-8)

	// Every voxel must have been published; every maximum must be a
	// self-maximum (checkerboard scenario has no mixtures).
	maxima := vm.MaximaList()
	assert.NotEmpty(t, maxima)
	for p := 0; p < total; p++ {
		state := vm.MaximaGet(p)
		assert.Equal(t, voxelmap.KindMaximum, state.Kind, "voxel %d should not be a mixture", p)
	}
}

func TestWeightThreadCountInvariance(t *testing.T) {
	n := 4
	g := cubicGrid(t, n, float64(n)*3.0)
	total := n * n * n
	dens := make([]float64, total)
	for p := range dens {
		i, j, k := g.Decompose(p)
		dens[p] = 10 + float64(i)*1.3 + float64(j)*0.7 - float64(k)*0.4
	}
	d, err := density.New(dens, nil, 0)
	require.NoError(t, err)
	index := d.SortedNonVacuumIndices()

	results := make([][]int, 0, 3)
	for _, threads := range []int{1, 2, 8} {
		vm := voxelmap.NewBlocking(total)
		MarkVacuum(d, vm)
		Weight(dens, g, vm, index, nil, threads, 1e-8)
		results = append(results, vm.MaximaList())
	}
	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i], "maxima should be thread-count invariant")
	}
}
