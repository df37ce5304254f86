package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/notargets/PAKernel/fem"
	"github.com/notargets/PAKernel/mesh"
	"github.com/notargets/PAKernel/pa"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// applier is satisfied by both operator kinds
type applier interface {
	AddMult(x, y []float64) error
	Free()
}

func newRunCmd() *cobra.Command {
	var (
		path string
		n    int
	)
	cfg := defaultConfig()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Set up mass, diffusion and upwind face operators and time AddMult",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(path)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("dim") {
				loaded.Dim = cfg.Dim
			}
			if flags.Changed("n") {
				loaded.N = [3]int{n, n, n}
			}
			if flags.Changed("order") {
				loaded.Order = cfg.Order
			}
			if flags.Changed("workers") {
				loaded.Workers = cfg.Workers
			}
			if flags.Changed("mode") {
				loaded.Mode = cfg.Mode
			}
			if flags.Changed("repeat") {
				loaded.Repeat = cfg.Repeat
			}
			if err := loaded.validate(); err != nil {
				return err
			}
			return runBench(loaded)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "YAML run configuration")
	cmd.Flags().IntVar(&cfg.Dim, "dim", cfg.Dim, "mesh dimension")
	cmd.Flags().IntVar(&n, "n", cfg.N[0], "elements per axis")
	cmd.Flags().IntVar(&cfg.Order, "order", cfg.Order, "polynomial order")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "Forall workers, 0 uses GOMAXPROCS")
	cmd.Flags().StringVar(&cfg.Mode, "mode", cfg.Mode, "Host or an OCCA mode (Serial, OpenMP, CUDA)")
	cmd.Flags().IntVar(&cfg.Repeat, "repeat", cfg.Repeat, "applications per operator")
	return cmd
}

func runBench(cfg BenchConfig) error {
	backend, err := openBackend(cfg.Mode, cfg.Workers)
	if err != nil {
		return err
	}
	defer backend.Free()

	mcfg := mesh.CartesianConfig{Dim: cfg.Dim, N: cfg.N}
	for d := 0; d < cfg.Dim; d++ {
		mcfg.Periodic[d] = true
	}
	if cfg.Twist {
		rng := rand.New(rand.NewSource(1))
		twists := make(map[int]int)
		nrot := len(mesh.ProperRotations(cfg.Dim))
		mcfg.Twist = func(e int) int {
			if _, ok := twists[e]; !ok {
				twists[e] = rng.Intn(nrot)
			}
			return twists[e]
		}
	}
	m, err := mesh.Cartesian(mcfg)
	if err != nil {
		return err
	}
	space, err := fem.NewSpace(m, cfg.Order)
	if err != nil {
		return err
	}
	logger.Info("mesh ready",
		zap.String("mode", backend.Mode()),
		zap.Int("elements", m.NumElements()),
		zap.Int("faces", len(m.Faces)),
		zap.Int("dofs", space.Size()))

	order := 2 * cfg.Order
	beta := fem.ConstantVector(cfg.Beta[:cfg.Dim])
	builders := []struct {
		name  string
		build func() (applier, error)
	}{
		{"mass", func() (applier, error) {
			return pa.NewDomainOperator(backend, space, order, pa.Mass{}, fem.Coefficient(fem.ConstantCoefficient(1)))
		}},
		{"diffusion", func() (applier, error) {
			return pa.NewDomainOperator(backend, space, order, pa.Diffusion{}, fem.Coefficient(fem.ConstantCoefficient(cfg.Kappa)))
		}},
		{"convection", func() (applier, error) {
			return pa.NewDomainOperator(backend, space, order, pa.Convection{}, fem.VectorCoefficient(beta))
		}},
		{"upwind", func() (applier, error) {
			return pa.NewFaceOperator(backend, space, order, pa.UpwindConvection{}, fem.VectorCoefficient(beta))
		}},
	}

	x := space.Project(func(p []float64) float64 { return p[0] })
	y := make([]float64, space.Size())
	for _, b := range builders {
		start := time.Now()
		op, err := b.build()
		if err != nil {
			return fmt.Errorf("%s setup: %w", b.name, err)
		}
		setup := time.Since(start)

		start = time.Now()
		err = repeatApply(op, x, y, cfg.Repeat)
		backend.Finish()
		apply := time.Since(start) / time.Duration(cfg.Repeat)
		op.Free()
		if errors.Is(err, pa.ErrNotImplemented) {
			logger.Warn("skipping apply", zap.String("operator", b.name), zap.Error(err))
			continue
		}
		if err != nil {
			return fmt.Errorf("%s apply: %w", b.name, err)
		}
		logger.Info("operator timing",
			zap.String("operator", b.name),
			zap.Duration("setup", setup),
			zap.Duration("apply", apply),
			zap.Float64("MDof/s", float64(space.Size())/apply.Seconds()/1e6))
	}
	return nil
}

func repeatApply(op applier, x, y []float64, repeat int) error {
	for r := 0; r < repeat; r++ {
		if err := op.AddMult(x, y); err != nil {
			return err
		}
	}
	return nil
}
