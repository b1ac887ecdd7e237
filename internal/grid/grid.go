// Package grid maps voxel indices to (i,j,k) triples and Cartesian
// points, and resolves periodic neighbour lookups through the Voronoi
// shift table (§4.3).
package grid

import (
	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/voronoi"
)

// Size is the voxel grid's (nx, ny, nz) dimensions.
type Size struct {
	NX, NY, NZ int
	Total      int
}

// Grid indexes a regular voxel grid embedded in a (possibly
// non-orthogonal) unit cell.
type Grid struct {
	Size         Size
	VoxelLattice *atoms.Lattice
	Voronoi      *voronoi.Table
	VoxelOrigin  atoms.Vec3 // fractional offset
}

// New builds a Grid for the given cell basis, size, and fractional
// voxel origin. The voxel lattice is the cell basis with each row
// scaled down by the corresponding grid dimension (§3).
func New(cellBasis atoms.Mat3, size [3]int, voxelOrigin atoms.Vec3) (*Grid, error) {
	if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
		return nil, errors.Errorf("grid size must be positive, got %v", size)
	}
	voxelBasis := atoms.Mat3{
		{cellBasis[0][0] / float64(size[0]), cellBasis[0][1] / float64(size[0]), cellBasis[0][2] / float64(size[0])},
		{cellBasis[1][0] / float64(size[1]), cellBasis[1][1] / float64(size[1]), cellBasis[1][2] / float64(size[1])},
		{cellBasis[2][0] / float64(size[2]), cellBasis[2][1] / float64(size[2]), cellBasis[2][2] / float64(size[2])},
	}
	voxelLattice, err := atoms.NewLattice(voxelBasis)
	if err != nil {
		return nil, errors.Wrap(err, "building voxel lattice")
	}
	table, err := voronoi.Build(voxelLattice)
	if err != nil {
		return nil, errors.Wrap(err, "building voronoi table")
	}
	total := size[0] * size[1] * size[2]
	return &Grid{
		Size:         Size{NX: size[0], NY: size[1], NZ: size[2], Total: total},
		VoxelLattice: voxelLattice,
		Voronoi:      table,
		VoxelOrigin:  voxelOrigin,
	}, nil
}

// Decompose turns a flat voxel index p into its (i,j,k) triple using a
// row-major, k-fastest stride convention: p = (i*NY + j)*NZ + k.
func (g *Grid) Decompose(p int) (i, j, k int) {
	k = p % g.Size.NZ
	rem := p / g.Size.NZ
	j = rem % g.Size.NY
	i = rem / g.Size.NY
	return
}

// Compose is the inverse of Decompose.
func (g *Grid) Compose(i, j, k int) int {
	return (i*g.Size.NY+j)*g.Size.NZ + k
}

// ToCartesian converts a voxel index to its Cartesian point:
// voxel_lattice.basis . (i,j,k) + voxel_origin_cartesian.
func (g *Grid) ToCartesian(p int) atoms.Vec3 {
	i, j, k := g.Decompose(p)
	frac := atoms.Vec3{float64(i), float64(j), float64(k)}
	point := g.VoxelLattice.ToCartesianPoint(frac)
	origin := g.VoxelLattice.ToCartesianPoint(g.VoxelOrigin)
	return atoms.Vec3{point[0] + origin[0], point[1] + origin[1], point[2] + origin[2]}
}

// VoronoiShift returns the grid index of p shifted by the given
// Voronoi vector under periodic boundary conditions, wrapping each
// coordinate independently.
func (g *Grid) VoronoiShift(p int, shift voronoi.Shift) int {
	i, j, k := g.Decompose(p)
	ni := wrap(i+shift.DI, g.Size.NX)
	nj := wrap(j+shift.DJ, g.Size.NY)
	nk := wrap(k+shift.DK, g.Size.NZ)
	return g.Compose(ni, nj, nk)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
