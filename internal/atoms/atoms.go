package atoms

import (
	"math"

	"github.com/pkg/errors"
)

// Atoms holds the atomic positions of a calculation in the original
// Cartesian frame, plus their images under the LLL-reduced lattice used
// for fast periodic minimum-image queries (§3).
type Atoms struct {
	Positions        []Vec3
	Lattice          *Lattice
	ReducedLattice   *ReducedLattice
	ReducedPositions []Vec3
}

// NewAtoms builds an Atoms from Cartesian positions and a direct
// lattice, deriving the LLL-reduced lattice and each atom's reduced,
// wrapped-fractional Cartesian image.
func NewAtoms(positions []Vec3, lattice *Lattice) (*Atoms, error) {
	if lattice == nil {
		return nil, errors.New("nil lattice")
	}
	reduced, err := NewReducedLattice(lattice.Basis)
	if err != nil {
		return nil, errors.Wrap(err, "reducing lattice")
	}
	reducedPositions := make([]Vec3, len(positions))
	for i, p := range positions {
		frac := reduced.ToFractionalPoint(p)
		frac = WrapFractional(frac)
		reducedPositions[i] = reduced.ToCartesianPoint(frac)
	}
	return &Atoms{
		Positions:        positions,
		Lattice:          lattice,
		ReducedLattice:   reduced,
		ReducedPositions: reducedPositions,
	}, nil
}

// NearestAtom returns the index of, and minimum-image distance (not
// squared) to, the atom nearest to the Cartesian point q.
func (a *Atoms) NearestAtom(q Vec3) (int, float64) {
	best := -1
	bestDist := -1.0
	for i, atom := range a.ReducedPositions {
		d := a.ReducedLattice.MinimumImageFromCartesian(q, atom)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if bestDist < 0 {
		return best, 0
	}
	return best, math.Sqrt(bestDist)
}
