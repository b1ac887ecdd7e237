// Package voxelmap implements the per-voxel state store described in
// the design's Voxel Map section: each voxel is either a Maximum, a
// Mixture (indexing an append-only weight table), or Vacuum, encoded
// as a single signed integer per voxel so a publication is a single
// machine-word write.
//
// Two accessor flavours share the Map interface: Blocking spins on
// maxima_get until a slot is published (the sweep's synchronization
// point) and Nonblocking assumes the sweep has already finished.
package voxelmap

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// sentinel marks an unpublished voxel. Maximum(m) is encoded as
// m >= 0, Mixture(k) as -k-2 <= -2, Vacuum as -1; -2^62 lies outside
// [-(total+2), total) for any grid of fewer than 2^62 voxels, so it
// never collides with a published value.
const sentinel = int64(-1) << 62

// State is the decoded classification of a voxel.
type State struct {
	Kind    Kind
	Maximum int // valid when Kind == Maximum
	Mixture int // weight_map index, valid when Kind == Mixture
}

// Kind enumerates the three voxel classifications.
type Kind int

const (
	KindVacuum Kind = iota
	KindMaximum
	KindMixture
)

// Entry is one (maximum_index, weight) pair within a Mixture,
// decoded from its compact f64 encoding.
type Entry struct {
	Maximum int
	Weight  float64
}

// Map is the shared accessor interface implemented by Blocking and
// Nonblocking.
type Map interface {
	MaximaStore(p, value int)
	VacuumStore(p int)
	WeightPush(list []Entry) int
	WeightStore(p, k int)
	MaximaGet(p int) State
	WeightGet(k int) []Entry
	MaximaList() []int
	Total() int
}

type shared struct {
	slots     []int64
	weightMu  sync.Mutex
	weightMap [][]float64
}

func newShared(total int) *shared {
	slots := make([]int64, total)
	for i := range slots {
		slots[i] = sentinel
	}
	return &shared{slots: slots}
}

func (s *shared) total() int { return len(s.slots) }

func (s *shared) store(p int, encoded int64) {
	atomic.StoreInt64(&s.slots[p], encoded)
}

// weightPush encodes list into the compact f64 representation and
// atomically appends it, returning its index. Under contention the
// append is serialized by weightMu; the critical section is short,
// just a slice append.
func (s *shared) weightPush(list []Entry) int {
	encoded := EncodeMixture(list)
	s.weightMu.Lock()
	k := len(s.weightMap)
	s.weightMap = append(s.weightMap, encoded)
	s.weightMu.Unlock()
	return k
}

func (s *shared) weightGet(k int) []Entry {
	s.weightMu.Lock()
	encoded := s.weightMap[k]
	s.weightMu.Unlock()
	return DecodeMixture(encoded)
}

func decode(encoded int64) State {
	switch {
	case encoded == -1:
		return State{Kind: KindVacuum}
	case encoded >= 0:
		return State{Kind: KindMaximum, Maximum: int(encoded)}
	default:
		return State{Kind: KindMixture, Mixture: int(-encoded - 2)}
	}
}

func (s *shared) maximaList() []int {
	var out []int
	for p, v := range s.slots {
		if v == int64(p) {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// Blocking is used during the weight sweep: MaximaGet spins until the
// requested slot has been published, since a voxel's upward
// neighbours are guaranteed to publish before it needs them (the
// ordering contract of the weight partitioner).
type Blocking struct {
	*shared
}

// NewBlocking allocates a Blocking map for a grid of the given total
// voxel count, with every slot unpublished.
func NewBlocking(total int) *Blocking {
	return &Blocking{shared: newShared(total)}
}

func (b *Blocking) MaximaStore(p, value int) { b.store(p, int64(value)) }
func (b *Blocking) VacuumStore(p int)        { b.store(p, -1) }
func (b *Blocking) WeightPush(list []Entry) int { return b.weightPush(list) }
func (b *Blocking) WeightStore(p, k int)     { b.store(p, int64(-k-2)) }
func (b *Blocking) WeightGet(k int) []Entry  { return b.weightGet(k) }
func (b *Blocking) MaximaList() []int        { return b.maximaList() }
func (b *Blocking) Total() int               { return b.total() }

// MaximaGet blocks (busy-spinning on atomic loads) until voxel p has
// been published. This is the engine's synchronization point: it is
// only ever called on an upward neighbour, which by the ordering
// contract publishes no later than the caller.
func (b *Blocking) MaximaGet(p int) State {
	for {
		v := atomic.LoadInt64(&b.slots[p])
		if v != sentinel {
			return decode(v)
		}
		// busy-wait: acceptable since the awaited neighbour is already
		// in flight or about to be claimed by another worker, never
		// blocked transitively on us.
	}
}

// Nonblocking is used during analysis, once the sweep has fully
// populated the map. Neither read waits: MaximaGetChecked reports an
// unpublished slot as an error, MaximaGet reads it as Vacuum.
type Nonblocking struct {
	*shared
}

// FromBlocking adapts a completed Blocking sweep into a Nonblocking
// reader over the same underlying storage, avoiding a copy.
func FromBlocking(b *Blocking) *Nonblocking {
	return &Nonblocking{shared: b.shared}
}

func (n *Nonblocking) MaximaStore(p, value int)     { n.store(p, int64(value)) }
func (n *Nonblocking) VacuumStore(p int)            { n.store(p, -1) }
func (n *Nonblocking) WeightPush(list []Entry) int  { return n.weightPush(list) }
func (n *Nonblocking) WeightStore(p, k int)         { n.store(p, int64(-k-2)) }
func (n *Nonblocking) WeightGet(k int) []Entry      { return n.weightGet(k) }
func (n *Nonblocking) MaximaList() []int            { return n.maximaList() }
func (n *Nonblocking) Total() int                   { return n.total() }

// MaximaGetChecked is the non-spinning read used by analysis: it
// returns an error rather than blocking when a slot was never
// published, since by this point every voxel must have been
// classified by the sweep.
func (n *Nonblocking) MaximaGetChecked(p int) (State, error) {
	v := atomic.LoadInt64(&n.slots[p])
	if v == sentinel {
		return State{}, errors.Errorf("voxel %d was never published by the sweep", p)
	}
	return decode(v), nil
}

// MaximaGet implements Map by panicking-free best effort: it treats
// an unpublished slot as Vacuum. Analysis code that needs the strict
// invariant check should call MaximaGetChecked instead.
func (n *Nonblocking) MaximaGet(p int) State {
	v := atomic.LoadInt64(&n.slots[p])
	if v == sentinel {
		return State{Kind: KindVacuum}
	}
	return decode(v)
}

// EncodeMixture packs a sorted-by-descending-weight list of (maximum,
// weight) pairs into the compact f64 representation described in the
// design: maximum_index as f64 plus weight, since weight < 1 and
// maximum_index is a non-negative integer.
func EncodeMixture(list []Entry) []float64 {
	out := make([]float64, len(list))
	for i, e := range list {
		out[i] = float64(e.Maximum) + e.Weight
	}
	return out
}

// DecodeMixture is the inverse of EncodeMixture: the integer part of
// each entry is the maximum index, the fractional part its weight.
func DecodeMixture(encoded []float64) []Entry {
	out := make([]Entry, len(encoded))
	for i, f := range encoded {
		m := int(f)
		out[i] = Entry{Maximum: m, Weight: f - float64(m)}
	}
	return out
}
