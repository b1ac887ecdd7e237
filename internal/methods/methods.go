// Package methods implements the weight partitioner, the core
// gradient-flux algorithm that classifies every non-vacuum voxel as a
// basin maximum, an interior voxel, or a boundary mixture (§4.5).
package methods

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sarat-asymmetrica/baderpart/internal/density"
	"github.com/sarat-asymmetrica/baderpart/internal/grid"
	"github.com/sarat-asymmetrica/baderpart/internal/progress"
	"github.com/sarat-asymmetrica/baderpart/internal/voxelmap"
)

// MarkVacuum publishes Vacuum for every voxel below the vacuum
// tolerance. It must run before Weight, since the sweep's index list
// excludes vacuum voxels and never visits them to publish on its own;
// analysis relies on every voxel having been published exactly once.
func MarkVacuum(d *density.Density, vm *voxelmap.Blocking) {
	for p := range d.Reference {
		if d.IsVacuum(p) {
			vm.VacuumStore(p)
		}
	}
}

// ResultKind classifies the outcome of a single weight step.
type ResultKind int

const (
	ResultMaxima ResultKind = iota
	ResultInterior
	ResultBoundary
)

// Result is the outcome of WeightStep for one voxel.
type Result struct {
	Kind     ResultKind
	Maximum  int             // valid when Kind == ResultInterior
	Boundary []voxelmap.Entry // valid when Kind == ResultBoundary, sorted by descending weight
}

// WeightStep classifies voxel p by scanning its Voronoi neighbours
// for upward density flux and bucketing that flux by the maxima (or
// mixture constituents) those neighbours have already published to.
// Neighbours are read through vm.MaximaGet, which blocks until the
// neighbour's classification is visible — safe because the ordering
// contract guarantees every upward neighbour sorts earlier in the
// sweep.
func WeightStep(p int, density []float64, g *grid.Grid, vm *voxelmap.Blocking, weightTolerance float64) Result {
	control := density[p]
	buckets := make(map[int]float64)
	tSum := 0.0

	for _, shift := range g.Voronoi.Shifts {
		pt := g.VoronoiShift(p, shift)
		diff := density[pt] - control
		if diff <= 0 {
			continue
		}
		flux := diff * shift.Alpha
		state := vm.MaximaGet(pt)
		switch state.Kind {
		case voxelmap.KindMaximum:
			buckets[state.Maximum] += flux
		case voxelmap.KindMixture:
			for _, e := range vm.WeightGet(state.Mixture) {
				buckets[e.Maximum] += flux * e.Weight
			}
		case voxelmap.KindVacuum:
			// unreachable for a strictly higher-density neighbour once
			// the vacuum tolerance is respected; skip defensively.
		}
		tSum += flux
	}

	switch len(buckets) {
	case 0:
		return Result{Kind: ResultMaxima}
	case 1:
		for m := range buckets {
			return Result{Kind: ResultInterior, Maximum: m}
		}
	}

	entries := make([]voxelmap.Entry, 0, len(buckets))
	total := 0.0
	for m, w := range buckets {
		weight := w / tSum
		if weight > weightTolerance {
			entries = append(entries, voxelmap.Entry{Maximum: m, Weight: weight})
			total += weight
		}
	}
	if len(entries) <= 1 {
		if len(entries) == 0 {
			// Every bucket fell below tolerance: treat p as its own
			// maximum rather than producing an empty mixture.
			return Result{Kind: ResultMaxima}
		}
		return Result{Kind: ResultInterior, Maximum: entries[0].Maximum}
	}

	for i := range entries {
		entries[i].Weight /= total
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Weight > entries[j].Weight })
	return Result{Kind: ResultBoundary, Boundary: entries}
}

// Weight runs the parallel sweep described in §4.5 and §5: threads
// workers claim indices from a shared atomic counter over the
// pre-sorted, vacuum-stripped index list and publish each voxel's
// classification exactly once.
func Weight(density []float64, g *grid.Grid, vm *voxelmap.Blocking, index []int, bar *progress.Bar, threads int, weightTolerance float64) {
	if threads < 1 {
		threads = 1
	}
	var counter int64 = -1
	var wg sync.WaitGroup
	wg.Add(threads)
	for t := 0; t < threads; t++ {
		go func() {
			defer wg.Done()
			for {
				i := atomic.AddInt64(&counter, 1)
				if int(i) >= len(index) {
					return
				}
				p := index[i]
				switch result := WeightStep(p, density, g, vm, weightTolerance); result.Kind {
				case ResultMaxima:
					vm.MaximaStore(p, p)
				case ResultInterior:
					vm.MaximaStore(p, result.Maximum)
				case ResultBoundary:
					k := vm.WeightPush(result.Boundary)
					vm.WeightStore(p, k)
				}
				if bar != nil {
					bar.Tick()
				}
			}
		}()
	}
	wg.Wait()
}
