// Package cube reads Gaussian cube volumetric files: two comment
// lines, an atom-count/origin line, three axis-count/voxel-vector
// lines, then one line per atom, followed by the density grid in
// z-fastest order.
package cube

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/ioformat"
)

// bohrToAngstrom converts cube-file atomic units (bohr) to the
// angstrom convention used elsewhere in the pipeline.
const bohrToAngstrom = 0.52917721067

// Reader implements ioformat.Reader for the Gaussian cube format.
type Reader struct{}

// Read parses path into an ioformat.Result.
func (Reader) Read(path string) (*ioformat.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening cube density file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading cube density file")
	}
	if len(lines) < 6 {
		return nil, errors.New("cube file is too short to contain a header")
	}

	atomLine, err := parseFloats(lines[2])
	if err != nil || len(atomLine) < 4 {
		return nil, errors.New("malformed atom-count/origin line")
	}
	nAtoms := int(atomLine[0])

	size := [3]int{}
	var lattice atoms.Mat3
	for axis := 0; axis < 3; axis++ {
		row, err := parseFloats(lines[3+axis])
		if err != nil || len(row) != 4 {
			return nil, errors.Errorf("malformed axis line %d", axis)
		}
		n := int(row[0])
		size[axis] = n
		lattice[axis] = atoms.Vec3{row[1] * float64(n) * bohrToAngstrom, row[2] * float64(n) * bohrToAngstrom, row[3] * float64(n) * bohrToAngstrom}
	}

	positions := make([]atoms.Vec3, 0, nAtoms)
	for i := 0; i < nAtoms; i++ {
		row, err := parseFloats(lines[6+i])
		if err != nil || len(row) < 5 {
			return nil, errors.Errorf("malformed atom line %d", i)
		}
		positions = append(positions, atoms.Vec3{row[2] * bohrToAngstrom, row[3] * bohrToAngstrom, row[4] * bohrToAngstrom})
	}

	cursor := 6 + nAtoms
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
	values = reorderZFastestToKFastest(values[:total], size)

	return &ioformat.Result{
		Densities:   [][]float64{values},
		Size:        size,
		Lattice:     lattice,
		Positions:   positions,
		VoxelOrigin: atoms.Vec3{0, 0, 0},
	}, nil
}

// reorderZFastestToKFastest is the identity permutation under this
// package's own (i,j,k)-with-k-fastest stride convention, since cube
// files already store z (the third axis) fastest; kept as an explicit
// step so a future format with a different native order has a single
// place to plug in a real permutation.
func reorderZFastestToKFastest(values []float64, size [3]int) []float64 {
	_ = size
	return values
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
