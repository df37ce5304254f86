// Package pa applies finite element operators by partial assembly: a
// coefficient tensor D is computed once per quadrature point at setup and
// every application contracts it with the 1D basis tables by sum
// factorization. No element matrix is ever formed.
package pa

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/fem"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedDimension = errors.New("pa: unsupported dimension")
	ErrNotImplemented       = errors.New("pa: not implemented")
)

// DomainOperator applies a domain integrator to E-vectors
type DomainOperator struct {
	backend device.Backend
	space   *fem.Space
	op      OpKind
	dim     int
	nq      int
	comps   int
	tables  *fem.Tables
	// D is shaped [component, quad, element]
	D       *array.XYZ[float64]
	scratch sync.Pool
}

// NewDomainOperator evaluates eq at every quadrature point of the rule of
// integration order order and stores the result as D.
func NewDomainOperator[A any](backend device.Backend, space *fem.Space, order int,
	eq DomainEquation[A], args A) (*DomainOperator, error) {
	defer device.Trace(backend.Tracer(), "pa.domain.setup")()

	dim := space.Dim()
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDimension, dim)
	}
	ir := fem.IntRule(dim, order)
	ne := space.NumElements()
	op := eq.Op()
	comps := op.Components(dim)

	jac, err := fem.EvalJacobians(backend, space, order)
	if err != nil {
		return nil, fmt.Errorf("pa: domain jacobians: %w", err)
	}
	defer jac.Free()

	d, err := array.AllocXYZ[float64](backend, comps, len(ir), ne)
	if err != nil {
		return nil, fmt.Errorf("pa: domain coefficients: %w", err)
	}
	jd, dd := jac.Data(), d.Data()
	dd2 := dim * dim
	err = backend.Forall(ne, func(e int) error {
		tr := space.Mesh.ElementTransformation(e)
		for q, ip := range ir {
			pt := DomainPoint{
				Dim: dim, Quad: q, Element: e, Tr: tr, IP: ip,
				J: jd[dd2*(q+len(ir)*e) : dd2*(q+len(ir)*e+1)],
			}
			off := d.Index3(0, q, e)
			eq.EvalD(pt, args, dd[off:off+comps])
		}
		return nil
	})
	if err != nil {
		d.Free()
		return nil, err
	}
	d.Push()

	o := &DomainOperator{
		backend: backend,
		space:   space,
		op:      op,
		dim:     dim,
		nq:      len(ir),
		comps:   comps,
		tables:  space.Basis(order),
		D:       d,
	}
	o.scratch.New = func() any { return newScratch(dim, o.tables.Dofs1D, o.tables.Quads1D) }
	backend.Logger().Debug("domain operator ready",
		zap.Stringer("op", op),
		zap.Int("dim", dim),
		zap.Int("elements", ne),
		zap.Int("quads", len(ir)))
	return o, nil
}

func (o *DomainOperator) Op() OpKind { return o.op }

func (o *DomainOperator) Space() *fem.Space { return o.space }

// AddMult adds the operator applied to the E-vector x into y
func (o *DomainOperator) AddMult(x, y []float64) error {
	if n := o.space.Size(); len(x) != n || len(y) != n {
		return fmt.Errorf("%w: vectors of length %d and %d, want %d",
			array.ErrShape, len(x), len(y), n)
	}
	var kernel func(e int, u, v []float64, s *scratch)
	switch o.dim {
	case 1:
		kernel = o.mult1D
	case 2:
		kernel = o.mult2D
	case 3:
		kernel = o.mult3D
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedDimension, o.dim)
	}
	nd := o.space.ElementDofs()
	return o.backend.Forall(o.space.NumElements(), func(e int) error {
		s := o.scratch.Get().(*scratch)
		kernel(e, x[e*nd:(e+1)*nd], y[e*nd:(e+1)*nd], s)
		o.scratch.Put(s)
		return nil
	})
}

// Mult sets y to the operator applied to x
func (o *DomainOperator) Mult(x, y []float64) error {
	clear(y)
	return o.AddMult(x, y)
}

func (o *DomainOperator) Free() {
	o.D.Free()
}
