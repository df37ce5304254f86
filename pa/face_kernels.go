package pa

import (
	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/mesh"
)

// faceScratch holds the per-element work arrays of the face passes. Each
// array holds max(D1D, Q1D)^(dim-1) values.
type faceScratch struct {
	trace, res []float64
	w, t       []float64
}

func newFaceScratch(dim, d1d, q1d int) *faceScratch {
	n := max(d1d, q1d)
	size := 1
	for i := 1; i < dim; i++ {
		size *= n
	}
	buf := make([]float64, 4*size)
	return &faceScratch{
		trace: buf[0*size : 1*size],
		res:   buf[1*size : 2*size],
		w:     buf[2*size : 3*size],
		t:     buf[3*size : 4*size],
	}
}

// faceGeom locates a local face in the lexicographic element dofs: sa is the
// stride of the normal axis, s0 and s1 those of the tangent axes, and bend
// the 1D basis evaluated at the face end.
type faceGeom struct {
	sa, s0, s1 int
	bend       []float64
}

func (o *FaceOperator) geom(lf int) faceGeom {
	d := o.tables.Dofs1D
	stride := func(axis int) int {
		s := 1
		for i := 0; i < axis; i++ {
			s *= d
		}
		return s
	}
	axis, far := mesh.FaceAxis(o.dim, lf)
	g := faceGeom{sa: stride(axis), bend: o.tables.B0}
	if far {
		g.bend = o.tables.B1
	}
	for k, a := range mesh.TangentAxes(o.dim, lf) {
		if k == 0 {
			g.s0 = stride(a)
		} else {
			g.s1 = stride(a)
		}
	}
	return g
}

// faceTrace interpolates the element dofs u onto the face quadrature points
// of local face lf, writing s.trace in the face's lexicographic order.
func (o *FaceOperator) faceTrace(lf int, u []float64, s *faceScratch) {
	D, Q := o.tables.Dofs1D, o.tables.Quads1D
	B := o.tables.B
	g := o.geom(lf)
	switch o.dim {
	case 2:
		for d0 := 0; d0 < D; d0++ {
			var v float64
			for dn := 0; dn < D; dn++ {
				v += g.bend[dn] * u[d0*g.s0+dn*g.sa]
			}
			s.w[d0] = v
		}
		for qi := 0; qi < Q; qi++ {
			var v float64
			for d0 := 0; d0 < D; d0++ {
				v += B[d0+D*qi] * s.w[d0]
			}
			s.trace[qi] = v
		}
	case 3:
		for d1 := 0; d1 < D; d1++ {
			for d0 := 0; d0 < D; d0++ {
				var v float64
				for dn := 0; dn < D; dn++ {
					v += g.bend[dn] * u[d0*g.s0+d1*g.s1+dn*g.sa]
				}
				s.w[d0+D*d1] = v
			}
		}
		for d1 := 0; d1 < D; d1++ {
			for qi := 0; qi < Q; qi++ {
				var v float64
				for d0 := 0; d0 < D; d0++ {
					v += B[d0+D*qi] * s.w[d0+D*d1]
				}
				s.t[qi+Q*d1] = v
			}
		}
		for qj := 0; qj < Q; qj++ {
			for qi := 0; qi < Q; qi++ {
				var v float64
				for d1 := 0; d1 < D; d1++ {
					v += B[d1+D*qj] * s.t[qi+Q*d1]
				}
				s.trace[qi+Q*qj] = v
			}
		}
	}
}

// faceLift adds the transpose of faceTrace applied to s.res into y
func (o *FaceOperator) faceLift(lf int, y []float64, s *faceScratch) {
	D, Q := o.tables.Dofs1D, o.tables.Quads1D
	B := o.tables.B
	g := o.geom(lf)
	switch o.dim {
	case 2:
		for d0 := 0; d0 < D; d0++ {
			var v float64
			for qi := 0; qi < Q; qi++ {
				v += B[d0+D*qi] * s.res[qi]
			}
			s.w[d0] = v
		}
		for dn := 0; dn < D; dn++ {
			if g.bend[dn] == 0 {
				continue
			}
			for d0 := 0; d0 < D; d0++ {
				y[d0*g.s0+dn*g.sa] += g.bend[dn] * s.w[d0]
			}
		}
	case 3:
		for d1 := 0; d1 < D; d1++ {
			for qi := 0; qi < Q; qi++ {
				var v float64
				for qj := 0; qj < Q; qj++ {
					v += B[d1+D*qj] * s.res[qi+Q*qj]
				}
				s.t[qi+Q*d1] = v
			}
		}
		for d1 := 0; d1 < D; d1++ {
			for d0 := 0; d0 < D; d0++ {
				var v float64
				for qi := 0; qi < Q; qi++ {
					v += B[d0+D*qi] * s.t[qi+Q*d1]
				}
				s.w[d0+D*d1] = v
			}
		}
		for dn := 0; dn < D; dn++ {
			if g.bend[dn] == 0 {
				continue
			}
			for d1 := 0; d1 < D; d1++ {
				for d0 := 0; d0 < D; d0++ {
					y[d0*g.s0+d1*g.s1+dn*g.sa] += g.bend[dn] * s.w[d0+D*d1]
				}
			}
		}
	}
}

// interiorPass adds, for every interior face of every element, the neighbor
// trace weighted by D component 1. The neighbor trace is read in the
// element's own face ordering through the permutation record.
func (o *FaceOperator) interiorPass(x, y []float64) error {
	defer device.Trace(o.backend.Tracer(), "pa.face.interior")()
	nd := o.space.ElementDofs()
	ne := o.space.NumElements()
	nf := mesh.NumFaces(o.dim)
	q1d := o.tables.Quads1D
	dd := o.D.Data()
	return o.backend.Forall(ne, func(e int) error {
		s := o.scratch.Get().(*faceScratch)
		defer o.scratch.Put(s)
		for lf := 0; lf < nf; lf++ {
			nb := int(o.Indirection.At2(lf, e))
			if nb == Boundary {
				continue
			}
			p := mesh.Orientation(o.Permutation.At2(lf, e))
			o.faceTrace(int(o.NeighborFace.At2(lf, e)), x[nb*nd:(nb+1)*nd], s)
			for k := 0; k < o.nqf; k++ {
				s.res[k] = dd[o.D.Index3(1, k, e+ne*lf)] * s.trace[FaceQuadIndex(o.dim, p, k, q1d)]
			}
			o.faceLift(lf, y[e*nd:(e+1)*nd], s)
		}
		return nil
	})
}

// exteriorPass adds the own trace of every face weighted by D component 0
func (o *FaceOperator) exteriorPass(x, y []float64) error {
	defer device.Trace(o.backend.Tracer(), "pa.face.exterior")()
	nd := o.space.ElementDofs()
	ne := o.space.NumElements()
	nf := mesh.NumFaces(o.dim)
	dd := o.D.Data()
	return o.backend.Forall(ne, func(e int) error {
		s := o.scratch.Get().(*faceScratch)
		defer o.scratch.Put(s)
		for lf := 0; lf < nf; lf++ {
			if o.Indirection.At2(lf, e) == Boundary {
				continue
			}
			o.faceTrace(lf, x[e*nd:(e+1)*nd], s)
			for k := 0; k < o.nqf; k++ {
				s.res[k] = dd[o.D.Index3(0, k, e+ne*lf)] * s.trace[k]
			}
			o.faceLift(lf, y[e*nd:(e+1)*nd], s)
		}
		return nil
	})
}
