// Package output formats the ACF (per atom) and BCF (per basin)
// plain-text tables written at the end of a run, and writes them to
// disk (§6).
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// TableType selects which table is being rendered.
type TableType int

const (
	// AtomsCharge is the ACF table: one row per atom.
	AtomsCharge TableType = iota
	// BaderCharge is the BCF table: one row per basin, grouped by atom
	// with an "Atom: n" separator before each group.
	BaderCharge
)

// Position is a single atom's formatted Cartesian coordinate triple.
type Position struct {
	X, Y, Z string
}

// Table accumulates rows and computes column widths as it goes, then
// renders a single formatted string.
type Table struct {
	columnWidth []int
	densityNum  int
	rows        [][]string // nil row == separator
	separators  []int
	tableType   TableType
}

// NewTable builds an empty table with the minimum column widths for
// the given number of density channels (charge, and optionally spin
// or spin x/y/z).
func NewTable(tableType TableType, densityNum int) *Table {
	width := []int{1, 1, 1, 1, 6}
	switch {
	case densityNum > 2:
		width = append(width, 6, 6, 6)
	case densityNum == 2:
		width = append(width, 6)
	}
	width = append(width, 6, 8)

	var separators []int
	if tableType == AtomsCharge {
		separators = []int{0, 0}
	}
	return &Table{columnWidth: width, densityNum: densityNum, rows: [][]string{nil}, separators: separators, tableType: tableType}
}

// AddRow appends a data row, growing column widths to fit.
func (t *Table) AddRow(index int, p Position, density []float64, volume, distance float64) {
	row := make([]string, 0, 6+t.densityNum)
	row = append(row, fmt.Sprintf("%d", index), p.X, p.Y, p.Z)
	for _, d := range density {
		row = append(row, fmt.Sprintf("%.6f", d))
	}
	row = append(row, fmt.Sprintf("%.6f", volume), fmt.Sprintf("%.6f", distance))
	for i, col := range row {
		if len(col) > t.columnWidth[i] {
			t.columnWidth[i] = len(col)
		}
	}
	t.rows = append(t.rows, row)
}

// AddSeparator inserts a blank row that renders as a ruled separator
// line; index is the atom number shown on a BaderCharge separator.
func (t *Table) AddSeparator(index int) {
	t.rows = append(t.rows, nil)
	t.separators = append(t.separators, index)
}

func (t *Table) formatHeader() string {
	var b strings.Builder
	names := []string{"#", "X", "Y", "Z", "Charge"}
	switch {
	case t.densityNum == 2:
		names = append(names, "Spin")
	case t.densityNum > 2:
		names = append(names, "Spin X", "Spin Y", "Spin Z")
	}
	names = append(names, "Volume")
	for i, name := range names {
		fmt.Fprintf(&b, " %s |", center(name, t.columnWidth[i]))
	}
	last := len(names)
	fmt.Fprintf(&b, " %s\n", center("Distance", t.columnWidth[last]))
	return b.String()
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func (t *Table) formatSeparator(atomIndex int) string {
	var b strings.Builder
	for _, w := range t.columnWidth {
		b.WriteString("-" + strings.Repeat("-", w) + "-+")
	}
	sep := strings.TrimSuffix(b.String(), "+")
	sep = strings.TrimSuffix(sep, "-")

	if t.tableType == BaderCharge {
		label := fmt.Sprintf("Atom: %*d", t.columnWidth[0], atomIndex)
		runes := []rune(sep)
		end := t.columnWidth[0] + 7
		if end > len(runes) {
			end = len(runes)
		}
		sep = string(runes[:1]) + label + string(runes[end:])
	}
	return sep
}

func (t *Table) formatFooter(vacuumDensity []float64, vacuumVolume float64, partitionedDensity []float64, partitionedVolume float64) string {
	if t.tableType != AtomsCharge {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.formatSeparator(0))
	switch {
	case t.densityNum < 2:
		fmt.Fprintf(&b, "\n  Vacuum Charge: %18.4f\n  Vacuum Volume: %18.4f\n  Partitioned Charge: %13.4f\n  Partitioned Volume: %13.4f",
			vacuumDensity[0], vacuumVolume, partitionedDensity[0], partitionedVolume)
	case t.densityNum == 2:
		fmt.Fprintf(&b, "\n  Vacuum Charge: %18.4f\n  Vacuum Spin: %20.4f\n  Vacuum Volume: %18.4f\n  Partitioned Charge: %13.4f\n  Partitioned Spin: %15.4f\n  Partitioned Volume: %13.4f",
			vacuumDensity[0], vacuumDensity[1], vacuumVolume, partitionedDensity[0], partitionedDensity[1], partitionedVolume)
	default:
		fmt.Fprintf(&b, "\n  Vacuum Charge: %18.4f\n  Vacuum Spin X: %18.4f\n  Vacuum Spin Y: %18.4f\n  Vacuum Spin Z: %18.4f\n  Vacuum Volume: %18.4f\n  Partitioned Charge: %13.4f\n  Partitioned Spin X: %13.4f\n  Partitioned Spin Y: %13.4f\n  Partitioned Spin Z: %13.4f\n  Partitioned Volume: %13.4f",
			vacuumDensity[0], vacuumDensity[1], vacuumDensity[2], vacuumDensity[3], vacuumVolume,
			partitionedDensity[0], partitionedDensity[1], partitionedDensity[2], partitionedDensity[3], partitionedVolume)
	}
	return b.String()
}

// GetString renders the complete table as a single string.
func (t *Table) GetString(vacuumDensity []float64, vacuumVolume float64, partitionedDensity []float64, partitionedVolume float64) string {
	var b strings.Builder
	b.WriteString(t.formatHeader())
	sepIdx := 0
	for _, row := range t.rows {
		if row == nil {
			b.WriteString(t.formatSeparator(t.separators[sepIdx]))
			sepIdx++
		} else {
			var line strings.Builder
			for i, col := range row {
				fmt.Fprintf(&line, " %*s |", t.columnWidth[i], col)
			}
			s := line.String()
			s = strings.TrimSuffix(s, " |")
			b.WriteString(s)
		}
		b.WriteByte('\n')
	}
	b.WriteString(t.formatFooter(vacuumDensity, vacuumVolume, partitionedDensity, partitionedVolume))
	return b.String()
}

// PartitionsFile builds either the ACF table (atomMap == nil) or the
// BCF table (atomMap supplies, for each basin, its assigned atom),
// mirroring partitions_file.
func PartitionsFile(positions []Position, partitionedDensity [][]float64, partitionedVolume []float64, totalDensity []float64, totalVolume float64, distance []float64, atomMap []int) (string, error) {
	if len(partitionedDensity) == 0 {
		return "", errors.New("no partitioned density channels supplied")
	}
	densityNum := len(partitionedDensity)
	totalPartitionedDensity := make([]float64, len(partitionedDensity))
	for i, d := range partitionedDensity {
		for _, v := range d {
			totalPartitionedDensity[i] += v
		}
	}
	totalPartitionedVolume := 0.0
	for _, v := range partitionedVolume {
		totalPartitionedVolume += v
	}
	vacuumDensity := make([]float64, len(totalDensity))
	for i := range vacuumDensity {
		vacuumDensity[i] = totalDensity[i] - totalPartitionedDensity[i]
	}
	vacuumVolume := totalVolume - totalPartitionedVolume

	if atomMap != nil {
		table := NewTable(BaderCharge, densityNum)
		index := make([]int, len(atomMap))
		for i := range index {
			index[i] = i
		}
		sort.Slice(index, func(a, b int) bool { return atomMap[index[a]] < atomMap[index[b]] })
		atomNum := atomMap[index[0]]
		table.separators = append(table.separators, atomNum+1)
		for _, i := range index {
			a := atomMap[i]
			if a != atomNum {
				table.AddSeparator(a + 1)
				atomNum = a
			}
			table.AddRow(i, positions[i], channelsAt(partitionedDensity, i), partitionedVolume[i], distance[i])
		}
		return table.GetString(vacuumDensity, vacuumVolume, totalPartitionedDensity, totalPartitionedVolume), nil
	}

	table := NewTable(AtomsCharge, densityNum)
	for i, p := range positions {
		table.AddRow(i+1, p, channelsAt(partitionedDensity, i), partitionedVolume[i], distance[i])
	}
	return table.GetString(vacuumDensity, vacuumVolume, totalPartitionedDensity, totalPartitionedVolume), nil
}

func channelsAt(densities [][]float64, i int) []float64 {
	out := make([]float64, len(densities))
	for d := range densities {
		out[d] = densities[d][i]
	}
	return out
}

// Write creates (or truncates) filename and writes s to it.
func Write(s, filename string) error {
	return errors.Wrap(os.WriteFile(filename, []byte(s), 0o644), "writing output file")
}
