package atoms

import "math"

// ReducedLattice is the LLL-reduced form of a Lattice. Because its three
// vectors are short and pairwise nearly orthogonal, the shortest periodic
// image of any displacement is guaranteed to lie within its own 27-entry
// CartesianShiftMatrix, turning minimum-image queries into a flat 27-way
// minimum (§4.1).
type ReducedLattice struct {
	*Lattice
	// ChangeOfBasis maps reduced-lattice fractional coordinates to
	// original-lattice fractional coordinates: frac = frac_lll * ChangeOfBasis.
	ChangeOfBasis Mat3
}

// lllDelta is the classical LLL reduction parameter (3/4 trades well
// between basis quality and reduction cost).
const lllDelta = 0.75

// NewReducedLattice LLL-reduces the given basis and returns the reduced
// lattice along with the integer change-of-basis used to get there.
func NewReducedLattice(basis Mat3) (*ReducedLattice, error) {
	reducedBasis, cob := lllReduce(basis)
	lat, err := NewLattice(reducedBasis)
	if err != nil {
		return nil, err
	}
	return &ReducedLattice{Lattice: lat, ChangeOfBasis: cob}, nil
}

// lllReduce runs classical LLL (delta = 3/4) on the 3 row-vectors of
// basis, returning the reduced basis and the integer matrix H such that
// reduced = H * basis, i.e. reduced[i] = sum_k H[i][k] * basis[k].
func lllReduce(basis Mat3) (Mat3, Mat3) {
	b := [3]Vec3{basis[0], basis[1], basis[2]}
	h := Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} // tracks integer combinations applied to rows of `b`, row for row.

	gramSchmidt := func() ([3]Vec3, [3][3]float64) {
		var bstar [3]Vec3
		var mu [3][3]float64
		for i := 0; i < 3; i++ {
			bstar[i] = b[i]
			for j := 0; j < i; j++ {
				mu[i][j] = proj(b[i], bstar[j])
				bstar[i] = bstar[i].sub(scale(bstar[j], mu[i][j]))
			}
		}
		return bstar, mu
	}

	k := 1
	for k < 3 {
		bstar, mu := gramSchmidt()
		for j := k - 1; j >= 0; j-- {
			if math.Abs(mu[k][j]) > 0.5 {
				r := math.Round(mu[k][j])
				b[k] = b[k].sub(scale(b[j], r))
				h[k] = h[k].sub3(scaleRow(h[j], r))
				bstar, mu = gramSchmidt()
			}
		}
		lhs := bstar[k].norm2()
		rhs := (lllDelta - mu[k][k-1]*mu[k][k-1]) * bstar[k-1].norm2()
		if lhs >= rhs {
			k++
		} else {
			b[k], b[k-1] = b[k-1], b[k]
			h[k], h[k-1] = h[k-1], h[k]
			if k > 1 {
				k--
			}
		}
	}
	return Mat3{b[0], b[1], b[2]}, h
}

func proj(v, onto Vec3) float64 {
	d := onto.norm2()
	if d == 0 {
		return 0
	}
	return (v[0]*onto[0] + v[1]*onto[1] + v[2]*onto[2]) / d
}

func scale(v Vec3, s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// sub3/scaleRow treat a Vec3 as a row of integer(ish) combination
// coefficients rather than a Cartesian vector; kept distinct from
// sub/scale so the two uses (geometry vs. bookkeeping) read separately.
func (v Vec3) sub3(o Vec3) Vec3 { return v.sub(o) }
func scaleRow(v Vec3, s float64) Vec3 { return scale(v, s) }

// MinimumImage returns the minimum-image squared distance from Cartesian
// point q to Cartesian atom position a, both expressed in the reduced
// lattice's own Cartesian frame (callers are expected to have already
// converted through ToFractional/wrap/ToCartesian as needed — see
// atoms.Atoms.ReducedPositions and grid callers in package analysis).
func (r *ReducedLattice) MinimumImage(q, a Vec3) float64 {
	best := math.Inf(1)
	for _, shift := range r.CartesianShiftMatrix {
		shifted := a.add(shift)
		d := q.sub(shifted).norm2()
		if d < best {
			best = d
		}
	}
	return best
}

// MinimumImageFromCartesian converts q (in the *original* Cartesian
// frame) into the reduced lattice's wrapped fractional/Cartesian frame
// before minimizing over the 27 shifts against a, exactly as bader-rs's
// analysis.rs inlines it (maxima_lll_fractional / rem_euclid / dot).
func (r *ReducedLattice) MinimumImageFromCartesian(qCartesian, aReduced Vec3) float64 {
	frac := r.ToFractionalPoint(qCartesian)
	frac = WrapFractional(frac)
	qLLL := r.ToCartesianPoint(frac)
	return r.MinimumImage(qLLL, aReduced)
}
