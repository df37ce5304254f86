package dense

import (
	"fmt"
	"io"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/device"
	"go.uber.org/zap"
)

// Blocks is a batch of n independent m x m blocks, one per element, with
// their pivot vectors. Every per-block loop runs through Backend.Forall.
type Blocks struct {
	M, N    int
	Data    *array.XYZ[float64] // (m, m, n)
	Pivots  *array.XYZ[int32]   // (m, n)
	backend device.Backend
}

// NewBlocks allocates n zeroed m x m blocks
func NewBlocks(backend device.Backend, m, n int) (*Blocks, error) {
	if m <= 0 || n <= 0 {
		return nil, fmt.Errorf("%w: %d blocks of size %d", array.ErrZeroSize, n, m)
	}
	data, err := array.AllocXYZ[float64](backend, m, m, n)
	if err != nil {
		return nil, err
	}
	piv, err := array.AllocXYZ[int32](backend, m, n)
	if err != nil {
		data.Free()
		return nil, err
	}
	return &Blocks{M: m, N: n, Data: data, Pivots: piv, backend: backend}, nil
}

func (b *Blocks) block(e int) []float64 {
	mm := b.M * b.M
	return b.Data.Data()[e*mm : (e+1)*mm]
}

func (b *Blocks) pivots(e int) []int32 {
	return b.Pivots.Data()[e*b.M : (e+1)*b.M]
}

// SetBlock copies the column-major values of block e
func (b *Blocks) SetBlock(e int, values []float64) {
	copy(b.block(e), values)
}

// Block returns the host view of block e
func (b *Blocks) Block(e int) []float64 {
	return b.block(e)
}

// Factor LU factors every block in place. The first singular block aborts
// the call and is reported with its index.
func (b *Blocks) Factor() error {
	defer device.Trace(b.backend.Tracer(), "dense.factor")()
	b.Data.Pull()
	err := b.backend.Forall(b.N, func(e int) error {
		if err := Factor(b.M, b.block(e), b.pivots(e)); err != nil {
			return fmt.Errorf("block %d: %w", e, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.Data.Push()
	b.Pivots.Push()
	b.backend.Logger().Debug("factored blocks", zap.Int("m", b.M), zap.Int("n", b.N))
	return nil
}

// Solve overwrites rhs, shaped (m, nrhs, n), with the solutions of the
// factored blocks.
func (b *Blocks) Solve(rhs *array.XYZ[float64], nrhs int) error {
	if rhs.Size() != b.M*nrhs*b.N {
		return fmt.Errorf("%w: rhs holds %d values, want %d", array.ErrShape,
			rhs.Size(), b.M*nrhs*b.N)
	}
	defer device.Trace(b.backend.Tracer(), "dense.solve")()
	rhs.Pull()
	x := rhs.Data()
	stride := b.M * nrhs
	err := b.backend.Forall(b.N, func(e int) error {
		Solve(b.M, nrhs, b.block(e), b.pivots(e), x[e*stride:(e+1)*stride])
		return nil
	})
	rhs.Push()
	return err
}

// Invert writes the inverse of every factored block into out, reallocated
// to (m, m, n).
func (b *Blocks) Invert(out *array.XYZ[float64]) error {
	if err := out.Allocate(b.M, b.M, b.N); err != nil {
		return err
	}
	defer device.Trace(b.backend.Tracer(), "dense.invert")()
	inv := out.Data()
	mm := b.M * b.M
	err := b.backend.Forall(b.N, func(e int) error {
		Invert(b.M, b.block(e), b.pivots(e), inv[e*mm:(e+1)*mm])
		return nil
	})
	out.Push()
	return err
}

// Det returns the determinant of every factored block
func (b *Blocks) Det() ([]float64, error) {
	det := make([]float64, b.N)
	err := b.backend.Forall(b.N, func(e int) error {
		det[e] = LUDet(b.M, b.block(e), b.pivots(e))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return det, nil
}

// Print dumps the block data followed by the pivots
func (b *Blocks) Print(w io.Writer) error {
	if err := b.Data.Print(w); err != nil {
		return err
	}
	return b.Pivots.Print(w)
}

func (b *Blocks) Free() {
	b.Data.Free()
	b.Pivots.Free()
}
