// Package voronoi computes the Voronoi-neighbour shifts of a voxel
// lattice and their gradient-flux alpha weights, used by the weight
// partitioner to know which neighbouring voxels can receive upward
// density flux (§4.2 of the design).
//
// The facet areas behind each alpha are not enumerated geometrically
// (that needs a 3D convex-hull routine); instead they are recovered from
// the divergence-theorem identity that any valid set of Voronoi facets
// must satisfy:
//
//	sum_i area_i * (v_i (x) v_i) / (2 |v_i|) == Volume * I
//
// (apply the divergence theorem to the position vector field over the
// Voronoi cell; each facet is centred at v_i/2 by the lattice's
// inversion symmetry, which is where the factor of 2 comes from). With
// up to 14 candidate neighbours and only 6
// independent symmetric equations the system is underdetermined, so we
// take its minimum-norm solution via gonum's SVD — the same
// mat.Dense/SVD machinery hkanpak21-Lattice-Lab and the gonum example
// repo use for lattice linear algebra.
package voronoi

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
)

// Shift is a single lattice-vector Voronoi neighbour: the integer
// (di,dj,dk) offset, its Cartesian vector, and its flux-weight alpha.
type Shift struct {
	DI, DJ, DK int
	Vector     atoms.Vec3
	Alpha      float64
}

// Table is the set of accepted Voronoi neighbours of the origin for a
// given voxel lattice, typically 8-14 entries.
type Table struct {
	Shifts []Shift
}

type candidate struct {
	di, dj, dk int
	v          atoms.Vec3
	n2         float64
}

// Build enumerates candidates in a small box (di,dj,dk in [-2,2]),
// applies the Dirichlet-region acceptance test, and solves for each
// accepted vector's alpha weight.
func Build(voxelLattice *atoms.Lattice) (*Table, error) {
	candidates := enumerate(voxelLattice.Basis)
	accepted := acceptDirichlet(candidates)
	alphas, err := solveAlphas(accepted, voxelLattice.Volume)
	if err != nil {
		return nil, errors.Wrap(err, "solving voronoi alpha weights")
	}

	shifts := make([]Shift, 0, len(accepted))
	for i, c := range accepted {
		shifts = append(shifts, Shift{DI: c.di, DJ: c.dj, DK: c.dk, Vector: c.v, Alpha: alphas[i]})
	}
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].DI != shifts[j].DI {
			return shifts[i].DI < shifts[j].DI
		}
		if shifts[i].DJ != shifts[j].DJ {
			return shifts[i].DJ < shifts[j].DJ
		}
		return shifts[i].DK < shifts[j].DK
	})
	return &Table{Shifts: shifts}, nil
}

func enumerate(basis atoms.Mat3) []candidate {
	var out []candidate
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			for k := -2; k <= 2; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				v := dotBasis(i, j, k, basis)
				out = append(out, candidate{i, j, k, v, norm2(v)})
			}
		}
	}
	return out
}

// acceptDirichlet keeps candidate c iff no other candidate w places the
// perpendicular bisector of (origin, c) strictly inside |c|, i.e.
// |c|^2 <= |c-w|^2 for every other w (§4.2).
func acceptDirichlet(candidates []candidate) []candidate {
	var accepted []candidate
	for _, c := range candidates {
		ok := true
		for _, w := range candidates {
			if w == c {
				continue
			}
			diff := sub(c.v, w.v)
			if norm2(diff) < c.n2-1e-9 {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

// solveAlphas recovers facet_area_i / (|v_i| * volume) for each accepted
// vector via the minimum-norm solution of the divergence-theorem system
// described in the package doc comment.
func solveAlphas(accepted []candidate, volume float64) ([]float64, error) {
	n := len(accepted)
	if n == 0 {
		return nil, errors.New("no voronoi neighbours found")
	}
	// 6 independent equations from the symmetric 3x3 identity: xx, yy,
	// zz, xy, xz, yz.
	// Coefficients carry a factor of 1/(2|v_i|): the Voronoi facet for a
	// centrosymmetric (Bravais) lattice is centred at v_i/2, so
	// integrating the position vector field over it picks up that half
	// before the divergence theorem equates the sum to Volume*I.
	a := mat.NewDense(6, n, nil)
	for col, c := range accepted {
		v := c.v
		norm := math.Sqrt(c.n2)
		a.Set(0, col, v[0]*v[0]/(2*norm))
		a.Set(1, col, v[1]*v[1]/(2*norm))
		a.Set(2, col, v[2]*v[2]/(2*norm))
		a.Set(3, col, v[0]*v[1]/(2*norm))
		a.Set(4, col, v[0]*v[2]/(2*norm))
		a.Set(5, col, v[1]*v[2]/(2*norm))
	}
	b := mat.NewDense(6, 1, []float64{volume, volume, volume, 0, 0, 0})

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, errors.New("svd factorization failed")
	}
	var areas mat.Dense
	rank := svd.SolveTo(&areas, b, 1e-12)
	if rank == 0 {
		return nil, errors.New("degenerate voronoi system")
	}

	alphas := make([]float64, n)
	for i, c := range accepted {
		area := areas.At(i, 0)
		alphas[i] = area / (math.Sqrt(c.n2) * volume)
	}
	return alphas, nil
}

func dotBasis(i, j, k int, basis atoms.Mat3) atoms.Vec3 {
	return atoms.Vec3{
		float64(i)*basis[0][0] + float64(j)*basis[1][0] + float64(k)*basis[2][0],
		float64(i)*basis[0][1] + float64(j)*basis[1][1] + float64(k)*basis[2][1],
		float64(i)*basis[0][2] + float64(j)*basis[1][2] + float64(k)*basis[2][2],
	}
}

func sub(a, b atoms.Vec3) atoms.Vec3 {
	return atoms.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func norm2(v atoms.Vec3) float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}
