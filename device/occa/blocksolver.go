package occa

import (
	"fmt"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/dense"
	"github.com/notargets/PAKernel/device"
	"github.com/notargets/gocca"
	"go.uber.org/zap"
)

// one block per outer iteration, mirroring dense.Factor, dense.LSolve and
// dense.USolve
const blockKernels = `
@kernel void luFactor(const int N, const int M, double *A, int *ipiv, int *info) {
	for (int e = 0; e < N; ++e; @outer) {
		for (int one = 0; one < 1; ++one; @inner) {
			double *a = A + e*M*M;
			int *p = ipiv + e*M;
			int bad = -1;
			for (int t = 0; t < M && bad < 0; ++t) {
				int piv = t;
				double amax = fabs(a[t + t*M]);
				for (int j = t + 1; j < M; ++j) {
					const double b = fabs(a[j + t*M]);
					if (b > amax) { amax = b; piv = j; }
				}
				p[t] = piv;
				if (piv != t) {
					for (int j = 0; j < M; ++j) {
						const double s = a[t + j*M];
						a[t + j*M] = a[piv + j*M];
						a[piv + j*M] = s;
					}
				}
				if (amax == 0.0) {
					bad = t;
				} else {
					const double inv = 1.0/a[t + t*M];
					for (int j = t + 1; j < M; ++j) a[j + t*M] *= inv;
					for (int k = t + 1; k < M; ++k) {
						const double aik = a[t + k*M];
						for (int j = t + 1; j < M; ++j) a[j + k*M] -= aik*a[j + t*M];
					}
				}
			}
			info[e] = bad;
		}
	}
}

@kernel void luLSolve(const int N, const int M, const int NRHS,
                      const double *LU, const int *ipiv, double *X) {
	for (int e = 0; e < N; ++e; @outer) {
		for (int k = 0; k < NRHS; ++k; @inner) {
			const double *lu = LU + e*M*M;
			const int *p = ipiv + e*M;
			double *x = X + (e*NRHS + k)*M;
			for (int i = 0; i < M; ++i) {
				const double s = x[i];
				x[i] = x[p[i]];
				x[p[i]] = s;
			}
			for (int j = 0; j < M; ++j) {
				const double xj = x[j];
				for (int i = j + 1; i < M; ++i) x[i] -= lu[i + j*M]*xj;
			}
		}
	}
}

@kernel void luUSolve(const int N, const int M, const int NRHS,
                      const double *LU, double *X) {
	for (int e = 0; e < N; ++e; @outer) {
		for (int k = 0; k < NRHS; ++k; @inner) {
			const double *lu = LU + e*M*M;
			double *x = X + (e*NRHS + k)*M;
			for (int j = M - 1; j >= 0; --j) {
				x[j] /= lu[j + j*M];
				const double xj = x[j];
				for (int i = 0; i < j; ++i) x[i] -= lu[i + j*M]*xj;
			}
		}
	}
}
`

// BlockSolver factors and solves dense.Blocks with OKL kernels on the
// device that owns their memory.
type BlockSolver struct {
	backend                *Backend
	factor, lsolve, usolve *gocca.OCCAKernel
}

func NewBlockSolver(b *Backend) (*BlockSolver, error) {
	s := &BlockSolver{backend: b}
	var err error
	for _, k := range []struct {
		name string
		dst  **gocca.OCCAKernel
	}{
		{"luFactor", &s.factor},
		{"luLSolve", &s.lsolve},
		{"luUSolve", &s.usolve},
	} {
		if *k.dst, err = s.build(k.name); err != nil {
			s.Free()
			return nil, err
		}
	}
	return s, nil
}

func (s *BlockSolver) build(name string) (*gocca.OCCAKernel, error) {
	var (
		kernel *gocca.OCCAKernel
		err    error
	)
	if s.backend.Mode() == "OpenMP" {
		// OpenMP builds do not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = s.backend.Device.BuildKernelFromString(blockKernels, name, props)
	} else {
		kernel, err = s.backend.Device.BuildKernelFromString(blockKernels, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("occa: building %s: %w", name, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("occa: building %s returned no kernel", name)
	}
	return kernel, nil
}

// Factor LU factors every block on the device. The lowest numbered singular
// block is reported like dense.Blocks.Factor does.
func (s *BlockSolver) Factor(blocks *dense.Blocks) error {
	defer device.Trace(s.backend.Tracer(), "occa.factor")()
	a, err := handle(blocks.Data.Memory())
	if err != nil {
		return err
	}
	piv, err := handle(blocks.Pivots.Memory())
	if err != nil {
		return err
	}
	info, err := array.AllocXYZ[int32](s.backend, blocks.N)
	if err != nil {
		return err
	}
	defer info.Free()
	im, err := handle(info.Memory())
	if err != nil {
		return err
	}

	blocks.Data.Push()
	if err := s.factor.RunWithArgs(int32(blocks.N), int32(blocks.M), a, piv, im); err != nil {
		return fmt.Errorf("occa: luFactor: %w", err)
	}
	blocks.Data.Pull()
	blocks.Pivots.Pull()
	info.Pull()
	for e, t := range info.Data() {
		if t >= 0 {
			return fmt.Errorf("block %d: %w: column %d of %dx%d block",
				e, dense.ErrSingularPivot, t, blocks.M, blocks.M)
		}
	}
	s.backend.Logger().Debug("factored blocks on device",
		zap.String("mode", s.backend.Mode()), zap.Int("m", blocks.M), zap.Int("n", blocks.N))
	return nil
}

// Solve overwrites rhs, shaped (m, nrhs, n), with the solutions of the
// factored blocks.
func (s *BlockSolver) Solve(blocks *dense.Blocks, rhs *array.XYZ[float64], nrhs int) error {
	if rhs.Size() != blocks.M*nrhs*blocks.N {
		return fmt.Errorf("%w: rhs holds %d values, want %d", array.ErrShape,
			rhs.Size(), blocks.M*nrhs*blocks.N)
	}
	defer device.Trace(s.backend.Tracer(), "occa.solve")()
	lu, err := handle(blocks.Data.Memory())
	if err != nil {
		return err
	}
	piv, err := handle(blocks.Pivots.Memory())
	if err != nil {
		return err
	}
	x, err := handle(rhs.Memory())
	if err != nil {
		return err
	}
	rhs.Push()
	n, m, k := int32(blocks.N), int32(blocks.M), int32(nrhs)
	if err := s.lsolve.RunWithArgs(n, m, k, lu, piv, x); err != nil {
		return fmt.Errorf("occa: luLSolve: %w", err)
	}
	if err := s.usolve.RunWithArgs(n, m, k, lu, x); err != nil {
		return fmt.Errorf("occa: luUSolve: %w", err)
	}
	rhs.Pull()
	return nil
}

func (s *BlockSolver) Free() {
	for _, k := range []*gocca.OCCAKernel{s.factor, s.lsolve, s.usolve} {
		if k != nil {
			k.Free()
		}
	}
}
