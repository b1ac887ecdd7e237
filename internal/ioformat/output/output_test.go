package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionsFileACFSingleChannel(t *testing.T) {
	positions := []Position{
		{X: "0.000000", Y: "0.000000", Z: "0.000000"},
		{X: "1.500000", Y: "0.000000", Z: "0.000000"},
	}
	density := [][]float64{{3.0, 5.0}}
	volume := []float64{1.0, 2.0}
	total := []float64{8.0}

	s, err := PartitionsFile(positions, density, volume, total, 3.0, []float64{0.1, 0.2}, nil)
	require.NoError(t, err)

	assert.Contains(t, s, "Charge")
	assert.Contains(t, s, "Distance")
	assert.Contains(t, s, "Vacuum Charge:")
	assert.Contains(t, s, "Partitioned Charge:")
	assert.NotContains(t, s, "Spin")
	assert.NotContains(t, s, "Atom:")

	lines := strings.Split(s, "\n")
	require.True(t, len(lines) >= 5)
}

func TestPartitionsFileACFTwoChannelsHasSpin(t *testing.T) {
	positions := []Position{{X: "0", Y: "0", Z: "0"}}
	density := [][]float64{{1.0}, {0.5}}
	volume := []float64{1.0}
	total := []float64{1.0, 0.5}

	s, err := PartitionsFile(positions, density, volume, total, 1.0, []float64{0.0}, nil)
	require.NoError(t, err)
	assert.Contains(t, s, "Spin")
	assert.Contains(t, s, "Vacuum Spin:")
	assert.NotContains(t, s, "Spin X")
}

func TestPartitionsFileACFFourChannelsHasSpinXYZ(t *testing.T) {
	positions := []Position{{X: "0", Y: "0", Z: "0"}}
	density := [][]float64{{1.0}, {0.1}, {0.2}, {0.3}}
	volume := []float64{1.0}
	total := []float64{1.0, 0.1, 0.2, 0.3}

	s, err := PartitionsFile(positions, density, volume, total, 1.0, []float64{0.0}, nil)
	require.NoError(t, err)
	assert.Contains(t, s, "Spin X")
	assert.Contains(t, s, "Spin Y")
	assert.Contains(t, s, "Spin Z")
	assert.Contains(t, s, "Vacuum Spin X:")
}

func TestPartitionsFileBCFGroupsByAtomWithSeparators(t *testing.T) {
	positions := []Position{
		{X: "0.000000", Y: "0.000000", Z: "0.000000"},
		{X: "1.000000", Y: "0.000000", Z: "0.000000"},
		{X: "2.000000", Y: "0.000000", Z: "0.000000"},
	}
	density := [][]float64{{1.0, 2.0, 3.0}}
	volume := []float64{1.0, 1.0, 1.0}
	total := []float64{6.0}
	atomMap := []int{0, 0, 1}

	s, err := PartitionsFile(positions, density, volume, total, 3.0, []float64{0.1, 0.2, 0.3}, atomMap)
	require.NoError(t, err)
	assert.Contains(t, s, "Atom: 1")
	assert.Contains(t, s, "Atom: 2")
	assert.NotContains(t, s, "Vacuum")
}

func TestPartitionsFileRejectsEmptyDensity(t *testing.T) {
	_, err := PartitionsFile(nil, nil, nil, nil, 0, nil, nil)
	assert.Error(t, err)
}

func TestCenterPadsEvenlyAndLeavesWideStringsAlone(t *testing.T) {
	assert.Equal(t, "  ab  ", center("ab", 6))
	assert.Equal(t, "toolong", center("toolong", 3))
}

func TestNewTableColumnWidthGrowsByDensityCount(t *testing.T) {
	single := NewTable(AtomsCharge, 1)
	two := NewTable(AtomsCharge, 2)
	four := NewTable(AtomsCharge, 4)
	assert.Less(t, len(single.columnWidth), len(two.columnWidth))
	assert.Less(t, len(two.columnWidth), len(four.columnWidth))
}
