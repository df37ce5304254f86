package pa

import (
	"fmt"
	"sync"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/fem"
	"github.com/notargets/PAKernel/mesh"
	"go.uber.org/zap"
)

// Boundary marks the indirection of a face without a neighbor
const Boundary = -1

// FaceOperator applies a face integrator to E-vectors. The topology records
// are indexed (local face, element).
type FaceOperator struct {
	backend device.Backend
	space   *fem.Space
	dim     int
	nqf     int
	tables  *fem.Tables
	// Indirection holds the neighbor element or Boundary
	Indirection *array.Strided[int32]
	// Permutation maps an own face quadrature index to the neighbor's
	Permutation *array.Strided[int32]
	// NeighborFace is the neighbor's local face id
	NeighborFace *array.Strided[int32]
	// D is shaped [2, face quad, element + NE*local face]; component 0
	// weighs the own trace and component 1 the neighbor trace.
	D       *array.XYZ[float64]
	scratch sync.Pool
}

// FaceQuadIndex maps face quadrature index kf in face-local order to the
// ordering of a side with orientation o.
func FaceQuadIndex(dim int, o mesh.Orientation, kf, q1d int) int {
	if dim == 1 {
		return 0
	}
	return o.Apply(q1d, kf)
}

// Permutation returns the codes stored on each side of an interior face.
// perm1 takes side 1 indices to side 2 indices and perm2 the reverse.
func Permutation(o1, o2 mesh.Orientation) (perm1, perm2 mesh.Orientation) {
	return o2.Compose(o1.Inverse()), o1.Compose(o2.Inverse())
}

// NewFaceOperator builds the face topology and evaluates eq at every face
// quadrature point of every interior face. Boundary faces get the Boundary
// indirection, permutation zero and zero coefficients.
func NewFaceOperator[A any](backend device.Backend, space *fem.Space, order int,
	eq FaceEquation[A], args A) (*FaceOperator, error) {
	defer device.Trace(backend.Tracer(), "pa.face.setup")()

	m := space.Mesh
	dim := m.Dim
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDimension, dim)
	}
	nf, ne := mesh.NumFaces(dim), m.NumElements()
	rule := fem.FaceRule(dim, order)
	q1d := fem.NQuads1D(order)

	o := &FaceOperator{
		backend: backend,
		space:   space,
		dim:     dim,
		nqf:     len(rule),
		tables:  space.Basis(order),
	}
	o.scratch.New = func() any { return newFaceScratch(dim, o.tables.Dofs1D, o.tables.Quads1D) }
	var err error
	alloc := func() *array.Strided[int32] {
		if err != nil {
			return nil
		}
		var a *array.Strided[int32]
		a, err = array.AllocStrided[int32](backend, nf, ne)
		return a
	}
	o.Indirection, o.Permutation, o.NeighborFace = alloc(), alloc(), alloc()
	if err == nil {
		o.D, err = array.AllocXYZ[float64](backend, 2, len(rule), ne*nf)
	}
	if err != nil {
		o.Free()
		return nil, fmt.Errorf("pa: face operator storage: %w", err)
	}

	ind, perm, nbr := o.Indirection, o.Permutation, o.NeighborFace
	dd := o.D.Data()
	// each (local face, element) slot belongs to exactly one mesh face, so
	// faces are set up independently
	err = backend.Forall(len(m.Faces), func(f int) error {
		ft := m.FaceTransformation(f)
		e1, f1 := ft.Elem1, ft.Face1
		if ft.IsBoundary() {
			ind.Set2(f1, e1, Boundary)
			perm.Set2(f1, e1, 0)
			nbr.Set2(f1, e1, Boundary)
			return nil
		}
		e2, f2 := ft.Elem2, ft.Face2
		perm1, perm2 := Permutation(ft.Orient1, ft.Orient2)
		ind.Set2(f1, e1, int32(e2))
		perm.Set2(f1, e1, int32(perm1))
		nbr.Set2(f1, e1, int32(f2))
		ind.Set2(f2, e2, int32(e1))
		perm.Set2(f2, e2, int32(perm2))
		nbr.Set2(f2, e2, int32(f1))

		var d1, d2 [2]float64
		for kf, ip := range rule {
			k1 := FaceQuadIndex(dim, ft.Orient1, kf, q1d)
			k2 := FaceQuadIndex(dim, ft.Orient2, kf, q1d)
			pt := FacePoint{
				Dim: dim, K1: k1, K2: k2,
				Normal: ft.Normal(ip),
				Elem1:  e1, Face1: f1, Elem2: e2, Face2: f2,
				Tr: ft, IP: ip, IP1: ft.Loc1(ip), IP2: ft.Loc2(ip),
			}
			d1, d2 = [2]float64{}, [2]float64{}
			eq.EvalFaceD(pt, args, d1[:], d2[:])
			copy(dd[o.D.Index3(0, k1, e1+ne*f1):], d1[:])
			copy(dd[o.D.Index3(0, k2, e2+ne*f2):], d2[:])
		}
		return nil
	})
	if err != nil {
		o.Free()
		return nil, err
	}
	ind.Push()
	perm.Push()
	nbr.Push()
	o.D.Push()

	backend.Logger().Debug("face operator ready",
		zap.Int("dim", dim),
		zap.Int("faces", len(m.Faces)),
		zap.Int("boundary faces", m.NumBoundaryFaces()),
		zap.Int("face quads", len(rule)))
	return o, nil
}

// AddMult adds the face operator applied to the E-vector x into y: first
// the flux from each neighbor, then the contribution of the own trace.
func (o *FaceOperator) AddMult(x, y []float64) error {
	if n := o.space.Size(); len(x) != n || len(y) != n {
		return fmt.Errorf("%w: vectors of length %d and %d, want %d",
			array.ErrShape, len(x), len(y), n)
	}
	switch o.dim {
	case 1:
		return fmt.Errorf("%w: face operator in dimension 1", ErrNotImplemented)
	case 2, 3:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedDimension, o.dim)
	}
	if err := o.interiorPass(x, y); err != nil {
		return err
	}
	return o.exteriorPass(x, y)
}

// Mult sets y to the face operator applied to x
func (o *FaceOperator) Mult(x, y []float64) error {
	clear(y)
	return o.AddMult(x, y)
}

func (o *FaceOperator) Free() {
	for _, a := range []*array.Strided[int32]{o.Indirection, o.Permutation, o.NeighborFace} {
		if a != nil {
			a.Free()
		}
	}
	if o.D != nil {
		o.D.Free()
	}
}
