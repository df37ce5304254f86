package mesh

import (
	"github.com/notargets/PAKernel/basis"
	"github.com/notargets/PAKernel/dense"
	"gonum.org/v1/gonum/spatial/r3"
)

// ElementTransformation is the multilinear map from [0,1]^Dim onto one
// element, interpolating its corner nodes.
type ElementTransformation struct {
	Dim     int
	Element int
	Nodes   [][]float64
}

func coord(ip basis.IntegrationPoint) [3]float64 {
	return [3]float64{ip.X, ip.Y, ip.Z}
}

// shape returns the corner weight of corner c at xi, skipping axis skip
func shape(dim, c int, xi [3]float64, skip int) float64 {
	w := 1.0
	for d := 0; d < dim; d++ {
		if d == skip {
			continue
		}
		if (c>>d)&1 == 1 {
			w *= xi[d]
		} else {
			w *= 1 - xi[d]
		}
	}
	return w
}

// Transform returns the physical point of the reference point ip
func (t *ElementTransformation) Transform(ip basis.IntegrationPoint) []float64 {
	xi := coord(ip)
	x := make([]float64, t.Dim)
	for c, node := range t.Nodes {
		w := shape(t.Dim, c, xi, -1)
		for i := range x {
			x[i] += w * node[i]
		}
	}
	return x
}

// Jacobian returns dx_i/dxi_j at ip, column-major J[i + Dim*j]
func (t *ElementTransformation) Jacobian(ip basis.IntegrationPoint) []float64 {
	xi := coord(ip)
	dim := t.Dim
	jac := make([]float64, dim*dim)
	for c, node := range t.Nodes {
		for j := 0; j < dim; j++ {
			dw := shape(dim, c, xi, j)
			if (c>>j)&1 == 0 {
				dw = -dw
			}
			for i := 0; i < dim; i++ {
				jac[i+dim*j] += dw * node[i]
			}
		}
	}
	return jac
}

// Weight is det J at ip
func (t *ElementTransformation) Weight(ip basis.IntegrationPoint) float64 {
	return dense.Det(t.Dim, t.Jacobian(ip))
}

// FaceTransformation maps face-local coordinates, which are those of the
// master element, into both neighboring elements.
type FaceTransformation struct {
	Dim              int
	Face             int
	Elem1, Elem2     int
	Face1, Face2     int
	Orient1, Orient2 Orientation
	Tr1, Tr2         *ElementTransformation
}

// IsBoundary reports whether the face has no second element
func (ft *FaceTransformation) IsBoundary() bool { return ft.Elem2 < 0 }

// toElement places face-local coordinates (s, t) on a local face
func toElement(dim, localFace int, o Orientation, ip basis.IntegrationPoint) basis.IntegrationPoint {
	axis, far := FaceAxis(dim, localFace)
	var xi [3]float64
	if far {
		xi[axis] = 1
	}
	s, t := o.ApplyCoords(ip.X, ip.Y)
	for k, a := range TangentAxes(dim, localFace) {
		if k == 0 {
			xi[a] = s
		} else {
			xi[a] = t
		}
	}
	return basis.IntegrationPoint{X: xi[0], Y: xi[1], Z: xi[2], Weight: ip.Weight}
}

// Loc1 maps a face point into the reference coordinates of Elem1
func (ft *FaceTransformation) Loc1(ip basis.IntegrationPoint) basis.IntegrationPoint {
	return toElement(ft.Dim, ft.Face1, ft.Orient1, ip)
}

// Loc2 maps a face point into the reference coordinates of Elem2
func (ft *FaceTransformation) Loc2(ip basis.IntegrationPoint) basis.IntegrationPoint {
	return toElement(ft.Dim, ft.Face2, ft.Orient2, ip)
}

// Jacobian returns dx/d(s,t), a Dim x (Dim-1) column-major matrix: the
// Jacobian columns of Elem1 along the face axes. Elem1 always sees the face
// with Identity orientation, so (s, t) are its own tangent coordinates.
func (ft *FaceTransformation) Jacobian(ip basis.IntegrationPoint) []float64 {
	dim := ft.Dim
	jac := ft.Tr1.Jacobian(ft.Loc1(ip))
	cols := make([]float64, 0, dim*(dim-1))
	for _, a := range TangentAxes(dim, ft.Face1) {
		cols = append(cols, jac[dim*a:dim*(a+1)]...)
	}
	return cols
}

// Normal returns the outward normal of Elem1 scaled by the face area
// element.
func (ft *FaceTransformation) Normal(ip basis.IntegrationPoint) []float64 {
	n := make([]float64, ft.Dim)
	CalcOrtho(ft.Dim, ft.Jacobian(ip), n)
	if outwardSign(ft.Dim, ft.Face1) < 0 {
		for i := range n {
			n[i] = -n[i]
		}
	}
	return n
}

// CalcOrtho writes the vector orthogonal to the columns of the Dim x (Dim-1)
// face Jacobian j, scaled by the face area element. For Dim 1 it is 1.
func CalcOrtho(dim int, j, n []float64) {
	switch dim {
	case 1:
		n[0] = 1
	case 2:
		n[0] = j[1]
		n[1] = -j[0]
	case 3:
		c := r3.Cross(r3.Vec{X: j[0], Y: j[1], Z: j[2]}, r3.Vec{X: j[3], Y: j[4], Z: j[5]})
		n[0], n[1], n[2] = c.X, c.Y, c.Z
	}
}

// outwardSign corrects CalcOrtho of the tangent columns to point out of the
// element through the given local face.
func outwardSign(dim, localFace int) float64 {
	axis, far := FaceAxis(dim, localFace)
	s := 1.0
	if !far {
		s = -1
	}
	if dim > 1 && axis%2 == 1 {
		s = -s
	}
	return s
}
