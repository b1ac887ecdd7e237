package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/grid"
	"github.com/sarat-asymmetrica/baderpart/internal/voxelmap"
)

func smallGrid(t *testing.T) *grid.Grid {
	t.Helper()
	basis := atoms.Mat3{{5, 0, 0}, {0, 3, 0}, {0, 0, 2}}
	g, err := grid.New(basis, [3]int{5, 3, 2}, atoms.Vec3{0, 0, 0})
	require.NoError(t, err)
	return g
}

func TestNewAllVacuum(t *testing.T) {
	total := 5 * 3 * 2
	vm := voxelmap.NewBlocking(total)
	for p := 0; p < total; p++ {
		vm.VacuumStore(p)
	}
	a := New(voxelmap.FromBlocking(vm), 1, 1)
	assert.Empty(t, a.BaderMaxima)
}

func TestChargeSumConservesTotalCharge(t *testing.T) {
	g := smallGrid(t)
	total := g.Size.Total
	vm := voxelmap.NewBlocking(total)
	// Voxel p belongs to maximum (p % 2): 0 or 1, both self-maxima.
	for p := 0; p < total; p++ {
		m := p % 2
		vm.MaximaStore(p, m)
	}

	nb := voxelmap.FromBlocking(vm)
	a := New(nb, 1, 2)
	require.Len(t, a.BaderMaxima, 2)

	lattice, err := atoms.NewLattice(atoms.Mat3{{5, 0, 0}, {0, 3, 0}, {0, 0, 2}})
	require.NoError(t, err)
	at, err := atoms.NewAtoms([]atoms.Vec3{{0, 0, 0}, {2.5, 1.5, 1}}, lattice)
	require.NoError(t, err)

	a.AssignAtoms(at, g, 2, nil)
	require.Len(t, a.AssignedAtom, 2)

	densities := [][]float64{make([]float64, total)}
	for p := range densities[0] {
		densities[0][p] = 1.0
	}
	err = a.ChargeSum(at, densities, nb, g, nil)
	require.NoError(t, err)
	a.AtomsChargeSum()

	sumBasins := 0.0
	for _, c := range a.BaderCharge[0] {
		sumBasins += c
	}
	expected := float64(total) * g.VoxelLattice.Volume
	assert.InDelta(t, expected, sumBasins, 1e-9)
	assert.InDelta(t, expected, a.TotalCharge[0], 1e-9)
	assert.InDelta(t, 0.0, a.VacuumVolume, 1e-9)
}
