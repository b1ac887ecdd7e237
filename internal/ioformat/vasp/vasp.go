// Package vasp reads VASP CHGCAR/LOCPOT-style volumetric files: a
// POSCAR header (comment, scale, lattice, species counts, Cartesian
// or Direct positions) followed by one or more FFT grids of
// whitespace/newline separated density samples in x-fastest order.
package vasp

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/ioformat"
)

// Reader implements ioformat.Reader for the VASP grid format.
type Reader struct{}

// Read parses path into an ioformat.Result.
func (Reader) Read(path string) (*ioformat.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening vasp density file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)
	lines := func() []string {
		var out []string
		for scanner.Scan() {
			out = append(out, scanner.Text())
		}
		return out
	}()
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading vasp density file")
	}
	if len(lines) < 8 {
		return nil, errors.New("vasp file is too short to contain a POSCAR header")
	}

	scale, err := parseFloat(lines[1])
	if err != nil {
		return nil, errors.Wrap(err, "parsing scale factor")
	}

	var lattice atoms.Mat3
	for i := 0; i < 3; i++ {
		row, err := parseFloats(lines[2+i])
		if err != nil || len(row) != 3 {
			return nil, errors.Errorf("malformed lattice row %d", i)
		}
		lattice[i][0] = row[0] * scale
		lattice[i][1] = row[1] * scale
		lattice[i][2] = row[2] * scale
	}

	cursor := 5
	// Optional VASP5 species-name line: skip if not purely numeric.
	counts, err := parseInts(lines[cursor])
	if err != nil {
		cursor++
		counts, err = parseInts(lines[cursor])
		if err != nil {
			return nil, errors.Wrap(err, "parsing species counts")
		}
	}
	cursor++
	nAtoms := 0
	for _, c := range counts {
		nAtoms += c
	}

	mode := strings.ToLower(strings.TrimSpace(lines[cursor]))
	cursor++
	direct := strings.HasPrefix(mode, "d")

	positions := make([]atoms.Vec3, 0, nAtoms)
	for i := 0; i < nAtoms; i++ {
		row, err := parseFloats(lines[cursor+i])
		if err != nil || len(row) < 3 {
			return nil, errors.Errorf("malformed position line for atom %d", i)
		}
		p := atoms.Vec3{row[0], row[1], row[2]}
		if direct {
			p = dot(p, lattice)
		} else {
			p = atoms.Vec3{p[0] * scale, p[1] * scale, p[2] * scale}
		}
		positions = append(positions, p)
	}
	cursor += nAtoms

	// Blank separator line, then the grid size line.
	for cursor < len(lines) && strings.TrimSpace(lines[cursor]) == "" {
		cursor++
	}
	sizeRow, err := parseInts(lines[cursor])
	if err != nil || len(sizeRow) != 3 {
		return nil, errors.New("malformed grid size line")
	}
	cursor++
	size := [3]int{sizeRow[0], sizeRow[1], sizeRow[2]}
	total := size[0] * size[1] * size[2]

	values := make([]float64, 0, total)
	for cursor < len(lines) && len(values) < total {
		row, err := parseFloats(lines[cursor])
		cursor++
		if err != nil {
			continue
		}
		values = append(values, row...)
	}
	if len(values) < total {
		return nil, errors.Errorf("grid declares %d points, found %d", total, len(values))
	}
	// The file stores x fastest; the grid indexes (i*NY + j)*NZ + k.
	reordered := make([]float64, total)
	for p, v := range values[:total] {
		i := p % size[0]
		j := (p / size[0]) % size[1]
		k := p / (size[0] * size[1])
		reordered[(i*size[1]+j)*size[2]+k] = v
	}

	return &ioformat.Result{
		Densities:   [][]float64{reordered},
		Size:        size,
		Lattice:     lattice,
		Positions:   positions,
		VoxelOrigin: atoms.Vec3{0, 0, 0},
	}, nil
}

func dot(v atoms.Vec3, m atoms.Mat3) atoms.Vec3 {
	return atoms.Vec3{
		v[0]*m[0][0] + v[1]*m[1][0] + v[2]*m[2][0],
		v[0]*m[0][1] + v[1]*m[1][1] + v[2]*m[2][1],
		v[0]*m[0][2] + v[1]*m[1][2] + v[2]*m[2][2],
	}
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
