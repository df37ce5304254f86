// Package fem provides the finite element space the partial assembly
// operators consume: nodal tensor-product bases on Gauss-Lobatto points,
// Gauss integration rules and per-point geometry.
package fem

import (
	"fmt"

	"github.com/notargets/PAKernel/basis"
	"github.com/notargets/PAKernel/mesh"
)

// Space is a discontinuous nodal space of degree Order on every element.
// Element dofs are numbered lexicographically, x fastest, and element e owns
// the contiguous range [e*ElementDofs, (e+1)*ElementDofs) of an E-vector.
type Space struct {
	Mesh  *mesh.Mesh
	Order int
	nodes *basis.Lagrange
}

func NewSpace(m *mesh.Mesh, order int) (*Space, error) {
	if order < 1 {
		return nil, fmt.Errorf("fem: order %d, want >= 1", order)
	}
	l, err := basis.NewLagrange(basis.GaussLobatto(order + 1))
	if err != nil {
		return nil, err
	}
	return &Space{Mesh: m, Order: order, nodes: l}, nil
}

func (s *Space) Dim() int { return s.Mesh.Dim }

func (s *Space) NumElements() int { return s.Mesh.NumElements() }

// Dofs1D is the number of nodes per axis
func (s *Space) Dofs1D() int { return s.Order + 1 }

// ElementDofs is Dofs1D^Dim
func (s *Space) ElementDofs() int { return ipow(s.Dofs1D(), s.Dim()) }

// Size is the length of an E-vector
func (s *Space) Size() int { return s.ElementDofs() * s.NumElements() }

// Nodes1D returns the Gauss-Lobatto nodes on [0,1]
func (s *Space) Nodes1D() []float64 { return s.nodes.Nodes }

// NQuads1D is the Gauss point count per axis integrating degree order exactly
func NQuads1D(order int) int { return order/2 + 1 }

// IntRule is the element rule integrating degree order exactly
func IntRule(dim, order int) []basis.IntegrationPoint {
	return basis.TensorRule(dim, NQuads1D(order))
}

// FaceRule is the rule on a face of a dim dimensional element. Faces of
// segments are points with unit weight.
func FaceRule(dim, order int) []basis.IntegrationPoint {
	if dim == 1 {
		return []basis.IntegrationPoint{{Weight: 1}}
	}
	return basis.TensorRule(dim-1, NQuads1D(order))
}

// Tables holds the 1D basis of a space sampled at the Gauss points of a rule.
// B and G are stored quadrature point major, B[d + Dofs1D*q].
type Tables struct {
	Dofs1D, Quads1D int
	B, G            []float64
	// B0 and B1 are the basis values at 0 and 1
	B0, B1 []float64
}

// Basis tabulates the space at the Gauss points of integration order order
func (s *Space) Basis(order int) *Tables {
	q1d := NQuads1D(order)
	x, _ := basis.GaussLegendre(q1d)
	b, g := s.nodes.Tables(x)
	return &Tables{
		Dofs1D:  s.Dofs1D(),
		Quads1D: q1d,
		B:       b,
		G:       g,
		B0:      s.nodes.Eval(0),
		B1:      s.nodes.Eval(1),
	}
}

// NodePoint returns the reference coordinate of element dof i
func (s *Space) NodePoint(i int) basis.IntegrationPoint {
	d := s.Dofs1D()
	n := s.Nodes1D()
	var xi [3]float64
	for a := 0; a < s.Dim(); a++ {
		xi[a] = n[i%d]
		i /= d
	}
	return basis.IntegrationPoint{X: xi[0], Y: xi[1], Z: xi[2]}
}

// Project interpolates f at the physical nodes into an E-vector
func (s *Space) Project(f func(x []float64) float64) []float64 {
	nd := s.ElementDofs()
	u := make([]float64, s.Size())
	for e := 0; e < s.NumElements(); e++ {
		tr := s.Mesh.ElementTransformation(e)
		for i := 0; i < nd; i++ {
			u[i+nd*e] = f(tr.Transform(s.NodePoint(i)))
		}
	}
	return u
}

func ipow(b, n int) int {
	r := 1
	for i := 0; i < n; i++ {
		r *= b
	}
	return r
}
