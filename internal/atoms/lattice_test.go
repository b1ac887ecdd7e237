package atoms

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubicBasis(a float64) Mat3 {
	return Mat3{{a, 0, 0}, {0, a, 0}, {0, 0, a}}
}

func TestNewLatticeCubicVolume(t *testing.T) {
	l, err := NewLattice(cubicBasis(8.0))
	require.NoError(t, err)
	assert.InDelta(t, 512.0, l.Volume, 1e-9)
}

func TestNewLatticeSingularRejected(t *testing.T) {
	_, err := NewLattice(Mat3{{1, 0, 0}, {2, 0, 0}, {0, 0, 1}})
	assert.Error(t, err)
}

func TestWrapFractionalIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := Vec3{rng.Float64()*10 - 5, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
		once := WrapFractional(v)
		twice := WrapFractional(once)
		assert.InDelta(t, once[0], twice[0], 1e-12)
		assert.InDelta(t, once[1], twice[1], 1e-12)
		assert.InDelta(t, once[2], twice[2], 1e-12)
		for _, c := range once {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.Less(t, c, 1.0)
		}
	}
}

func TestToCartesianToFractionalRoundTrip(t *testing.T) {
	l, err := NewLattice(Mat3{{5, 0.3, 0}, {0.1, 4.5, 0.2}, {0, 0.4, 6}})
	require.NoError(t, err)
	frac := Vec3{0.3, 0.7, 0.1}
	cart := l.ToCartesianPoint(frac)
	back := l.ToFractionalPoint(cart)
	for i := range frac {
		assert.InDelta(t, frac[i], back[i], 1e-9)
	}
}

// bruteForceMinimumImage searches the original (non-reduced) lattice's
// images over [-3,3]^3, used as the ground truth for property 7.
func bruteForceMinimumImage(basis Mat3, q, a Vec3) float64 {
	best := math.Inf(1)
	for i := -3; i <= 3; i++ {
		for j := -3; j <= 3; j++ {
			for k := -3; k <= 3; k++ {
				shift := Vec3{
					float64(i)*basis[0][0] + float64(j)*basis[1][0] + float64(k)*basis[2][0],
					float64(i)*basis[0][1] + float64(j)*basis[1][1] + float64(k)*basis[2][1],
					float64(i)*basis[0][2] + float64(j)*basis[1][2] + float64(k)*basis[2][2],
				}
				shifted := a.add(shift)
				d := q.sub(shifted).norm2()
				if d < best {
					best = d
				}
			}
		}
	}
	return best
}

func TestMinimumImageMatchesBruteForce(t *testing.T) {
	basis := cubicBasis(8.0)
	reduced, err := NewReducedLattice(basis)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		q := Vec3{rng.Float64() * 8, rng.Float64() * 8, rng.Float64() * 8}
		a := Vec3{rng.Float64() * 8, rng.Float64() * 8, rng.Float64() * 8}
		aReduced := reduced.ToCartesianPoint(WrapFractional(reduced.ToFractionalPoint(a)))

		got := reduced.MinimumImageFromCartesian(q, aReduced)
		want := bruteForceMinimumImage(basis, q, a)
		assert.InDelta(t, want, got, 1e-6, "displacement %d", i)
	}
}

func TestMinimumImageTriclinicMatchesBruteForce(t *testing.T) {
	// 60-degree triclinic cell, roughly: a along x, b at 60deg in xy, c tilted.
	basis := Mat3{
		{8, 0, 0},
		{4, 6.9282, 0},
		{2, 1.1547, 6.5320},
	}
	reduced, err := NewReducedLattice(basis)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		q := Vec3{rng.Float64() * 8, rng.Float64() * 8, rng.Float64() * 8}
		a := Vec3{rng.Float64() * 8, rng.Float64() * 8, rng.Float64() * 8}
		aReduced := reduced.ToCartesianPoint(WrapFractional(reduced.ToFractionalPoint(a)))
		got := reduced.MinimumImageFromCartesian(q, aReduced)
		want := bruteForceMinimumImage(basis, q, a)
		assert.InDelta(t, want, got, 1e-4, "displacement %d", i)
	}
}
