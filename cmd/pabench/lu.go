package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/dense"
	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/device/occa"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLUCmd() *cobra.Command {
	var (
		m, n, workers int
		mode          string
	)
	cmd := &cobra.Command{
		Use:   "lu",
		Short: "Factor and solve a batch of random dense blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if m < 1 || n < 1 {
				return fmt.Errorf("need positive block size and count, got m=%d n=%d", m, n)
			}
			return runLU(mode, workers, m, n)
		},
	}
	cmd.Flags().IntVar(&m, "m", 8, "block size")
	cmd.Flags().IntVar(&n, "n", 10000, "number of blocks")
	cmd.Flags().IntVar(&workers, "workers", 0, "Forall workers, 0 uses GOMAXPROCS")
	cmd.Flags().StringVar(&mode, "mode", device.ModeHost, "Host or an OCCA mode (Serial, OpenMP, CUDA)")
	return cmd
}

func runLU(mode string, workers, m, n int) error {
	backend, err := openBackend(mode, workers)
	if err != nil {
		return err
	}
	defer backend.Free()

	blocks, err := dense.NewBlocks(backend, m, n)
	if err != nil {
		return err
	}
	defer blocks.Free()
	rng := rand.New(rand.NewSource(1))
	v := make([]float64, m*m)
	for e := 0; e < n; e++ {
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		// diagonally dominant so no block is singular
		for i := 0; i < m; i++ {
			v[i+i*m] += float64(m)
		}
		blocks.SetBlock(e, v)
	}
	blocks.Data.Push()

	rhs, err := array.AllocXYZ[float64](backend, m, 1, n)
	if err != nil {
		return err
	}
	defer rhs.Free()
	for i := range rhs.Data() {
		rhs.Set(i, 1)
	}
	rhs.Push()

	factor, solve := blocks.Factor, blocks.Solve
	if ob, ok := backend.(*occa.Backend); ok {
		solver, err := occa.NewBlockSolver(ob)
		if err != nil {
			return err
		}
		defer solver.Free()
		factor = func() error { return solver.Factor(blocks) }
		solve = func(rhs *array.XYZ[float64], nrhs int) error { return solver.Solve(blocks, rhs, nrhs) }
	}

	start := time.Now()
	if err := factor(); err != nil {
		return err
	}
	backend.Finish()
	factored := time.Since(start)

	start = time.Now()
	if err := solve(rhs, 1); err != nil {
		return err
	}
	backend.Finish()
	solved := time.Since(start)

	norm := dense.FNormMax(rhs.Data())
	logger.Info("lu timing",
		zap.String("mode", backend.Mode()),
		zap.Int("m", m),
		zap.Int("n", n),
		zap.Duration("factor", factored),
		zap.Duration("solve", solved),
		zap.Float64("max |x|", norm))
	return nil
}
