// Command bader runs the weight-based Bader charge partitioner over a
// VASP or cube volumetric density file and writes the ACF/BCF tables.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"github.com/sarat-asymmetrica/baderpart/internal/analysis"
	"github.com/sarat-asymmetrica/baderpart/internal/atoms"
	"github.com/sarat-asymmetrica/baderpart/internal/baderr"
	"github.com/sarat-asymmetrica/baderpart/internal/config"
	"github.com/sarat-asymmetrica/baderpart/internal/density"
	"github.com/sarat-asymmetrica/baderpart/internal/grid"
	"github.com/sarat-asymmetrica/baderpart/internal/ioformat"
	"github.com/sarat-asymmetrica/baderpart/internal/ioformat/cube"
	"github.com/sarat-asymmetrica/baderpart/internal/ioformat/output"
	"github.com/sarat-asymmetrica/baderpart/internal/ioformat/vasp"
	"github.com/sarat-asymmetrica/baderpart/internal/logging"
	"github.com/sarat-asymmetrica/baderpart/internal/methods"
	"github.com/sarat-asymmetrica/baderpart/internal/progress"
	"github.com/sarat-asymmetrica/baderpart/internal/voxelmap"
)

func main() {
	app := cli.NewApp()
	app.Name = "bader"
	app.Usage = "multi-threaded Bader charge analysis"
	app.ArgsUsage = "<density-file>"
	app.Flags = []cli.Flag{
		cli.StringSliceFlag{Name: "reference", Usage: "additional density file summed into the reference (repeatable)"},
		cli.StringFlag{Name: "spin", Usage: "treat as a second (spin) density"},
		cli.StringFlag{Name: "method", Value: "weight", Usage: "partitioning method: weight, ongrid, neargrid"},
		cli.StringFlag{Name: "file-type", Value: "vasp", Usage: "density file format: vasp, cube"},
		cli.IntFlag{Name: "threads", Value: 1, Usage: "worker thread count"},
		cli.Float64Flag{Name: "vacuum-tolerance", Value: config.DefaultVacuumTolerance, Usage: "reference density below which a voxel is vacuum"},
		cli.Float64Flag{Name: "weight-tolerance", Value: config.DefaultWeightTolerance, Usage: "mixture weights below which a constituent is dropped"},
		cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return baderr.New(baderr.Configuration, "expected exactly one density file argument")
	}

	method, err := config.ParseMethod(c.String("method"))
	if err != nil {
		return err
	}
	fileType, err := config.ParseFileType(c.String("file-type"))
	if err != nil {
		return err
	}
	cfg := &config.Config{
		DensityPath:     c.Args().Get(0),
		ReferencePaths:  c.StringSlice("reference"),
		SpinPath:        c.String("spin"),
		Method:          method,
		FileType:        fileType,
		Threads:         c.Int("threads"),
		VacuumTolerance: c.Float64("vacuum-tolerance"),
		WeightTolerance: c.Float64("weight-tolerance"),
		Verbose:         c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Verbose)
	return runPipeline(cfg, logger)
}

func readerFor(ft config.FileType) ioformat.Reader {
	switch ft {
	case config.FileTypeCube:
		return cube.Reader{}
	default:
		return vasp.Reader{}
	}
}

func runPipeline(cfg *config.Config, logger zerolog.Logger) error {
	reader := readerFor(cfg.FileType)

	primary, err := reader.Read(cfg.DensityPath)
	if err != nil {
		return baderr.Wrap(baderr.Input, err, "reading density file")
	}
	logger.Info().Str("file", cfg.DensityPath).
		Ints("size", []int{primary.Size[0], primary.Size[1], primary.Size[2]}).
		Msg("read density file")

	densities := primary.Densities
	if cfg.SpinPath != "" {
		spin, err := reader.Read(cfg.SpinPath)
		if err != nil {
			return baderr.Wrap(baderr.Input, err, "reading spin density file")
		}
		if spin.Size != primary.Size {
			return baderr.New(baderr.Input, "spin density grid size does not match primary density")
		}
		densities = append(densities, spin.Densities[0])
	}

	var extraRefs []*ioformat.Result
	for _, path := range cfg.ReferencePaths {
		r, err := reader.Read(path)
		if err != nil {
			return baderr.Wrap(baderr.Input, err, "reading reference density file")
		}
		if r.Size != primary.Size {
			return baderr.New(baderr.Input, "reference density grid size does not match primary density")
		}
		extraRefs = append(extraRefs, r)
	}
	reference := ioformat.Reference(primary, extraRefs)

	lattice, err := atoms.NewLattice(primary.Lattice)
	if err != nil {
		return baderr.Wrap(baderr.Input, err, "building lattice")
	}
	at, err := atoms.NewAtoms(primary.Positions, lattice)
	if err != nil {
		return baderr.Wrap(baderr.Input, err, "building atoms")
	}
	g, err := grid.New(primary.Lattice, primary.Size, primary.VoxelOrigin)
	if err != nil {
		return baderr.Wrap(baderr.Input, err, "building grid")
	}

	dens, err := density.New(reference, densities, cfg.VacuumTolerance)
	if err != nil {
		return err
	}
	index := dens.SortedNonVacuumIndices()
	logger.Info().Int("total", g.Size.Total).Int("non_vacuum", len(index)).Msg("sorted density")

	vm := voxelmap.NewBlocking(g.Size.Total)
	methods.MarkVacuum(dens, vm)

	bar := progress.New(os.Stderr, "partitioning", len(index), !cfg.Verbose)
	methods.Weight(dens.Reference, g, vm, index, bar, cfg.Threads, cfg.WeightTolerance)
	bar.Done()

	nb := voxelmap.FromBlocking(vm)
	an := analysis.New(nb, len(densities), len(at.Positions))
	an.AssignAtoms(at, g, cfg.Threads, nil)
	if err := an.ChargeSum(at, densities, nb, g, nil); err != nil {
		return baderr.Wrap(baderr.Invariant, err, "summing basin densities")
	}
	an.AtomsChargeSum()

	if err := writeResults(at, g, an, densities); err != nil {
		return err
	}
	logger.Info().Msg("ACF.dat and BCF.dat written successfully")
	return nil
}

func writeResults(at *atoms.Atoms, g *grid.Grid, an *analysis.Analysis, densities [][]float64) error {
	positions := make([]output.Position, len(at.Positions))
	for i, p := range at.Positions {
		positions[i] = output.Position{
			X: fmt.Sprintf("%.6f", p[0]),
			Y: fmt.Sprintf("%.6f", p[1]),
			Z: fmt.Sprintf("%.6f", p[2]),
		}
	}
	totalDensity := make([]float64, len(densities))
	for d, dens := range densities {
		sum := 0.0
		for _, v := range dens {
			sum += v
		}
		totalDensity[d] = sum * g.VoxelLattice.Volume
	}
	totalVolume := float64(g.Size.Total) * g.VoxelLattice.Volume

	acf, err := output.PartitionsFile(positions, an.AtomsCharge, an.AtomsVolume, totalDensity, totalVolume, an.SurfaceDistance, nil)
	if err != nil {
		return errors.Wrap(err, "building ACF table")
	}
	if err := output.Write(acf, "ACF.dat"); err != nil {
		return err
	}

	maximaPositions := make([]output.Position, len(an.BaderMaxima))
	for i, m := range an.BaderMaxima {
		cart := g.ToCartesian(m)
		maximaPositions[i] = output.Position{
			X: fmt.Sprintf("%.6f", cart[0]),
			Y: fmt.Sprintf("%.6f", cart[1]),
			Z: fmt.Sprintf("%.6f", cart[2]),
		}
	}
	bcf, err := output.PartitionsFile(maximaPositions, an.BaderCharge, an.BaderVolume, totalDensity, totalVolume, an.MinimumDistance, an.AssignedAtom)
	if err != nil {
		return errors.Wrap(err, "building BCF table")
	}
	return output.Write(bcf, "BCF.dat")
}
