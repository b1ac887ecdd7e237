// Package analysis consumes a completed Voxel Map to produce
// per-basin and per-atom charge/volume aggregates, and the
// optional atom/volume projections used for visualization (§4.6).
package analysis

import (
	"math"
	"sync"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/baderr"
	"github.com/sarat-asymmetrica/baderpart/internal/grid"
	"github.com/sarat-asymmetrica/baderpart/internal/progress"
	"github.com/sarat-asymmetrica/baderpart/internal/voxelmap"
)

// Analysis holds every aggregate derived from a partitioned Voxel Map.
type Analysis struct {
	AssignedAtom    []int // per basin, indexed like BaderMaxima
	MinimumDistance []float64
	SurfaceDistance []float64 // per atom

	maximaIndex map[int]int
	BaderMaxima []int

	BaderCharge []([]float64) // [density][basin]
	BaderVolume []float64

	AtomsCharge  [][]float64 // [density][atom]
	AtomsVolume  []float64
	VacuumCharge []float64
	VacuumVolume float64
	TotalCharge  []float64
}

// New builds an Analysis scaffold from a completed voxel map's maxima
// list, sized for densitiesLen density channels and atomNum atoms.
func New(vm voxelmap.Map, densitiesLen, atomNum int) *Analysis {
	maxima := vm.MaximaList()
	index := make(map[int]int, len(maxima))
	for i, m := range maxima {
		index[m] = i
	}
	baderCharge := make([][]float64, densitiesLen)
	for i := range baderCharge {
		baderCharge[i] = make([]float64, len(maxima))
	}
	atomsCharge := make([][]float64, densitiesLen)
	for i := range atomsCharge {
		atomsCharge[i] = make([]float64, atomNum)
	}
	return &Analysis{
		maximaIndex:  index,
		BaderMaxima:  maxima,
		BaderCharge:  baderCharge,
		BaderVolume:  make([]float64, len(maxima)),
		AtomsCharge:  atomsCharge,
		AtomsVolume:  make([]float64, atomNum),
		VacuumCharge: make([]float64, densitiesLen),
		TotalCharge:  make([]float64, densitiesLen),
	}
}

func (a *Analysis) indexGet(maxima int) (int, error) {
	i, ok := a.maximaIndex[maxima]
	if !ok {
		return 0, baderr.Newf(baderr.Invariant, "voxel %d was never classified as a maximum", maxima)
	}
	return i, nil
}

// AtomGet returns the atom assigned to a basin maximum.
func (a *Analysis) AtomGet(maxima int) (int, error) {
	i, err := a.indexGet(maxima)
	if err != nil {
		return 0, err
	}
	return a.AssignedAtom[i], nil
}

// nearestReducedAtom reproduces the LLL minimum-image search shared by
// maxima assignment and surface-distance tracking: wrap the query
// point into the reduced lattice's fractional cell, then take the
// minimum over the 27 Cartesian shifts against every atom's
// already-wrapped reduced position.
func nearestReducedAtom(cartesian atoms.Vec3, reducedAtoms *atoms.ReducedLattice, positions []atoms.Vec3) (int, float64) {
	frac := atoms.WrapFractional(reducedAtoms.ToFractionalPoint(cartesian))
	lllCartesian := reducedAtoms.ToCartesianPoint(frac)

	best := 0
	bestDist := math.Inf(1)
	for i, atom := range positions {
		for _, shift := range reducedAtoms.CartesianShiftMatrix {
			dx := lllCartesian[0] - (atom[0] + shift[0])
			dy := lllCartesian[1] - (atom[1] + shift[1])
			dz := lllCartesian[2] - (atom[2] + shift[2])
			d := dx*dx + dy*dy + dz*dz
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
	}
	return best, bestDist
}

// AssignAtoms assigns each basin maximum to its nearest atom, chunked
// across goroutines since the work is embarrassingly parallel.
func (a *Analysis) AssignAtoms(at *atoms.Atoms, g *grid.Grid, threads int, bar *progress.Bar) {
	n := len(a.BaderMaxima)
	assigned := make([]int, n)
	minDist := make([]float64, n)

	chunkSize := chunkSizeFor(n, threads)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				maxima := a.BaderMaxima[i]
				cart := g.ToCartesian(maxima)
				atomNum, dist2 := nearestReducedAtom(cart, at.ReducedLattice, at.ReducedPositions)
				assigned[i] = atomNum
				minDist[i] = math.Sqrt(dist2)
				if bar != nil {
					bar.Tick()
				}
			}
		}(start, end)
	}
	wg.Wait()
	a.AssignedAtom = assigned
	a.MinimumDistance = minDist
}

func chunkSizeFor(n, threads int) int {
	if threads < 1 {
		threads = 1
	}
	size := n / threads
	if n%threads != 0 {
		size++
	}
	if size < 1 {
		size = 1
	}
	return size
}

// ChargeSum walks every voxel exactly once, accumulating basin charge
// and volume (and vacuum accumulators), and tracks each atom's surface
// distance from its boundary voxels (§4.6).
func (a *Analysis) ChargeSum(at *atoms.Atoms, densities [][]float64, vm voxelmap.Map, g *grid.Grid, bar *progress.Bar) error {
	volume := g.VoxelLattice.Volume
	minDistance := make([]float64, len(at.Positions))
	for i := range minDistance {
		minDistance[i] = math.Inf(1)
	}
	baderCharge := make([][]float64, len(a.BaderCharge))
	for i := range baderCharge {
		baderCharge[i] = make([]float64, len(a.BaderMaxima))
	}
	baderVolume := make([]float64, len(a.BaderMaxima))

	for p := 0; p < g.Size.Total; p++ {
		state := vm.MaximaGet(p)
		switch state.Kind {
		case voxelmap.KindMaximum:
			i, err := a.indexGet(state.Maximum)
			if err != nil {
				return err
			}
			baderVolume[i]++
			for d, dens := range densities {
				baderCharge[d][i] += dens[p]
			}
		case voxelmap.KindMixture:
			entries := vm.WeightGet(state.Mixture)
			primaryAtom, err := a.AtomGet(entries[0].Maximum)
			if err != nil {
				return err
			}
			isAtomBoundary := false
			for _, e := range entries {
				i, err := a.indexGet(e.Maximum)
				if err != nil {
					return err
				}
				atomNum, err := a.AtomGet(e.Maximum)
				if err != nil {
					return err
				}
				if atomNum != primaryAtom {
					isAtomBoundary = true
				}
				baderVolume[i] += e.Weight
				for d, dens := range densities {
					baderCharge[d][i] += e.Weight * dens[p]
				}
			}
			if isAtomBoundary {
				cart := g.ToCartesian(p)
				atom := at.ReducedPositions[primaryAtom]
				frac := atoms.WrapFractional(at.ReducedLattice.ToFractionalPoint(cart))
				lllCart := at.ReducedLattice.ToCartesianPoint(frac)
				for _, shift := range at.ReducedLattice.CartesianShiftMatrix {
					dx := lllCart[0] - (atom[0] + shift[0])
					dy := lllCart[1] - (atom[1] + shift[1])
					dz := lllCart[2] - (atom[2] + shift[2])
					d := dx*dx + dy*dy + dz*dz
					if d < minDistance[primaryAtom] {
						minDistance[primaryAtom] = d
					}
				}
			}
		case voxelmap.KindVacuum:
			a.VacuumVolume += volume
			for d, dens := range densities {
				a.VacuumCharge[d] += volume * dens[p]
			}
		}
		if bar != nil {
			bar.Tick()
		}
	}

	for d := range baderCharge {
		for i := range baderCharge[d] {
			a.BaderCharge[d][i] = baderCharge[d][i] * volume
		}
	}
	for i := range baderVolume {
		a.BaderVolume[i] = baderVolume[i] * volume
	}
	a.SurfaceDistance = make([]float64, len(minDistance))
	for i, d := range minDistance {
		if math.IsInf(d, 1) {
			a.SurfaceDistance[i] = 0
		} else {
			a.SurfaceDistance[i] = math.Sqrt(d)
		}
	}
	return nil
}

// AtomsChargeSum reduces the per-basin charge and volume to their
// assigned atoms, and tracks the running total charge.
func (a *Analysis) AtomsChargeSum() {
	for i, atomNum := range a.AssignedAtom {
		for d, charge := range a.BaderCharge {
			a.AtomsCharge[d][atomNum] += charge[i]
			a.TotalCharge[d] += charge[i]
		}
		a.AtomsVolume[atomNum] += a.BaderVolume[i]
	}
}

// OutputAtomMap projects the voxel map onto a single atom: each voxel
// is the weight it contributes to atomNum, or nil if it contributes
// none.
func (a *Analysis) OutputAtomMap(g *grid.Grid, vm voxelmap.Map, atomNum int, bar *progress.Bar) ([]*float64, error) {
	out := make([]*float64, g.Size.Total)
	for p := 0; p < g.Size.Total; p++ {
		state := vm.MaximaGet(p)
		switch state.Kind {
		case voxelmap.KindMaximum:
			atomOf, err := a.AtomGet(state.Maximum)
			if err != nil {
				return nil, err
			}
			if atomOf == atomNum {
				one := 1.0
				out[p] = &one
			}
		case voxelmap.KindMixture:
			for _, e := range vm.WeightGet(state.Mixture) {
				atomOf, err := a.AtomGet(e.Maximum)
				if err != nil {
					return nil, err
				}
				if atomOf == atomNum {
					if out[p] == nil {
						w := 0.0
						out[p] = &w
					}
					*out[p] += e.Weight
				}
			}
		}
		if bar != nil {
			bar.Tick()
		}
	}
	return out, nil
}

// OutputVolumeMap projects the voxel map onto a single basin.
func (a *Analysis) OutputVolumeMap(g *grid.Grid, vm voxelmap.Map, maximaOut int, bar *progress.Bar) []*float64 {
	out := make([]*float64, g.Size.Total)
	for p := 0; p < g.Size.Total; p++ {
		state := vm.MaximaGet(p)
		switch state.Kind {
		case voxelmap.KindMaximum:
			if state.Maximum == maximaOut {
				one := 1.0
				out[p] = &one
			}
		case voxelmap.KindMixture:
			for _, e := range vm.WeightGet(state.Mixture) {
				if e.Maximum == maximaOut {
					w := e.Weight
					out[p] = &w
					break
				}
			}
		}
		if bar != nil {
			bar.Tick()
		}
	}
	return out
}
