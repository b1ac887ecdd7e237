// Package atoms implements the crystallographic lattice arithmetic and
// atom bookkeeping that the rest of the partitioning pipeline builds on:
// direct and LLL-reduced lattices, fractional/Cartesian conversions, and
// minimum-image distance via a 27-shift periodic search.
//
// Grounded on bader-rs's atoms module (original_source/src/lib.rs doc
// comments, analysis.rs's inline use of reduced_lattice / to_fractional /
// cartesian_shift_matrix) and on gonum.org/v1/gonum/mat for the 3x3
// inverse and determinant (see hkanpak21-Lattice-Lab/lab1.go for the
// same mat.Dense usage over a lattice basis).
package atoms

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Vec3 is a Cartesian or fractional 3-vector.
type Vec3 [3]float64

func (v Vec3) add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) norm2() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Mat3 is a row-major 3x3 matrix of basis vectors (one row per vector).
type Mat3 [3][3]float64

// Lattice holds a basis, its fractional<->Cartesian transforms and
// volume, plus the 27 periodic image shifts of the basis.
type Lattice struct {
	Basis               Mat3
	ToCartesian         Mat3 // == Basis, applied as row vector times matrix (see dot)
	ToFractional        Mat3
	Volume              float64
	CartesianShiftMatrix [27]Vec3
}

// NewLattice builds a Lattice from a row-major 3x3 basis: basis[i] is the
// i-th lattice vector.
func NewLattice(basis Mat3) (*Lattice, error) {
	l := &Lattice{Basis: basis, ToCartesian: basis}
	m := mat.NewDense(3, 3, flatten(basis))
	det := mat.Det(m)
	if math.Abs(det) < 1e-12 {
		return nil, errors.New("lattice basis is singular")
	}
	l.Volume = math.Abs(det)
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, errors.Wrap(err, "inverting lattice basis")
	}
	l.ToFractional = unflatten(&inv)
	l.CartesianShiftMatrix = shiftMatrix(basis)
	return l, nil
}

func flatten(m Mat3) []float64 {
	return []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	}
}

func unflatten(m *mat.Dense) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// shiftMatrix enumerates basis*(i,j,k) for i,j,k in {-1,0,1}, i.e. the 27
// periodic image translations (§3 of the spec).
func shiftMatrix(basis Mat3) [27]Vec3 {
	var shifts [27]Vec3
	n := 0
	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			for k := -1; k <= 1; k++ {
				shifts[n] = dot(Vec3{float64(i), float64(j), float64(k)}, basis)
				n++
			}
		}
	}
	return shifts
}

// dot applies a row-vector * matrix product: out = v . m, matching the
// original's utils::dot(vector, matrix) convention where each matrix row
// is a basis vector.
func dot(v Vec3, m Mat3) Vec3 {
	return Vec3{
		v[0]*m[0][0] + v[1]*m[1][0] + v[2]*m[2][0],
		v[0]*m[0][1] + v[1]*m[1][1] + v[2]*m[2][1],
		v[0]*m[0][2] + v[1]*m[1][2] + v[2]*m[2][2],
	}
}

// ToCartesianPoint converts a fractional coordinate to Cartesian.
func (l *Lattice) ToCartesianPoint(frac Vec3) Vec3 {
	return dot(frac, l.ToCartesian)
}

// ToFractionalPoint converts a Cartesian coordinate to fractional.
func (l *Lattice) ToFractionalPoint(cart Vec3) Vec3 {
	return dot(cart, l.ToFractional)
}

// remEuclid1 mirrors Rust's f64::rem_euclid(1.): always returns a
// non-negative result regardless of the sign of x.
func remEuclid1(x float64) float64 {
	r := math.Mod(x, 1.0)
	if r < 0 {
		r += 1.0
	}
	return r
}

// WrapFractional wraps each fractional coordinate into [0, 1).
func WrapFractional(v Vec3) Vec3 {
	return Vec3{remEuclid1(v[0]), remEuclid1(v[1]), remEuclid1(v[2])}
}
