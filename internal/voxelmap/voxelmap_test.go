package voxelmap

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMixtureRoundTrip(t *testing.T) {
	list := []Entry{{Maximum: 17, Weight: 0.75}, {Maximum: 4, Weight: 0.25}}
	encoded := EncodeMixture(list)
	decoded := DecodeMixture(encoded)
	require.Len(t, decoded, 2)
	assert.Equal(t, 17, decoded[0].Maximum)
	assert.InDelta(t, 0.75, decoded[0].Weight, 1e-12)
	assert.Equal(t, 4, decoded[1].Maximum)
	assert.InDelta(t, 0.25, decoded[1].Weight, 1e-12)
}

func TestBlockingMaximaStoreAndGet(t *testing.T) {
	b := NewBlocking(4)
	b.MaximaStore(0, 0)
	b.VacuumStore(1)
	k := b.WeightPush([]Entry{{Maximum: 0, Weight: 0.6}, {Maximum: 2, Weight: 0.4}})
	b.WeightStore(2, k)
	b.MaximaStore(3, 0)

	assert.Equal(t, State{Kind: KindMaximum, Maximum: 0}, b.MaximaGet(0))
	assert.Equal(t, State{Kind: KindVacuum}, b.MaximaGet(1))
	mix := b.MaximaGet(2)
	require.Equal(t, KindMixture, mix.Kind)
	entries := b.WeightGet(mix.Mixture)
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Maximum)
	assert.InDelta(t, 0.6, entries[0].Weight, 1e-12)
}

func TestBlockingMaximaGetBlocksUntilPublished(t *testing.T) {
	b := NewBlocking(2)
	var wg sync.WaitGroup
	wg.Add(1)
	var got State
	go func() {
		defer wg.Done()
		got = b.MaximaGet(1)
	}()

	time.Sleep(20 * time.Millisecond)
	b.MaximaStore(1, 1)
	wg.Wait()
	assert.Equal(t, State{Kind: KindMaximum, Maximum: 1}, got)
}

func TestMaximaListFindsSelfMaxima(t *testing.T) {
	b := NewBlocking(5)
	b.MaximaStore(0, 0)
	b.MaximaStore(1, 0)
	b.MaximaStore(2, 2)
	b.VacuumStore(3)
	b.MaximaStore(4, 2)

	assert.Equal(t, []int{0, 2}, b.MaximaList())
}

func TestNonblockingSharesStorageWithBlocking(t *testing.T) {
	b := NewBlocking(3)
	b.MaximaStore(0, 0)
	n := FromBlocking(b)
	assert.Equal(t, State{Kind: KindMaximum, Maximum: 0}, n.MaximaGet(0))

	_, err := n.MaximaGetChecked(1)
	assert.Error(t, err)

	assert.Equal(t, State{Kind: KindVacuum}, n.MaximaGet(1))
}
