package pa

import (
	"github.com/notargets/PAKernel/basis"
	"github.com/notargets/PAKernel/dense"
	"github.com/notargets/PAKernel/fem"
	"github.com/notargets/PAKernel/mesh"
)

// OpKind selects the tensor contraction a domain operator applies
type OpKind int

const (
	// BtDB contracts values with values (mass)
	BtDB OpKind = iota
	// GtDG contracts reference gradients with reference gradients (diffusion)
	GtDG
	// BtDG tests values against trial gradients (convection)
	BtDG
)

func (k OpKind) String() string {
	switch k {
	case BtDB:
		return "BtDB"
	case GtDG:
		return "GtDG"
	case BtDG:
		return "BtDG"
	}
	return "unknown"
}

// Components is the number of D values per quadrature point
func (k OpKind) Components(dim int) int {
	switch k {
	case GtDG:
		return dim * dim
	case BtDG:
		return dim
	}
	return 1
}

// DomainPoint is everything a point evaluator sees at one quadrature point
type DomainPoint struct {
	Dim     int
	Quad    int
	Element int
	Tr      *mesh.ElementTransformation
	IP      basis.IntegrationPoint
	// J is dx_i/dxi_j, column-major
	J []float64
}

// X is the physical location of the point
func (p DomainPoint) X() []float64 { return p.Tr.Transform(p.IP) }

// DomainEquation computes the coefficient tensor D of a domain integrator.
// EvalD writes Op().Components(Dim) values into d, quadrature weight and
// geometry included.
type DomainEquation[A any] interface {
	Op() OpKind
	EvalD(pt DomainPoint, args A, d []float64)
}

// Mass is the L2 inner product weighted by a density, D = rho w det J
type Mass struct{}

func (Mass) Op() OpKind { return BtDB }

func (Mass) EvalD(pt DomainPoint, rho fem.Coefficient, d []float64) {
	d[0] = rho.Eval(pt.Element, pt.X()) * pt.IP.Weight * dense.Det(pt.Dim, pt.J)
}

// Diffusion is the H1 semi inner product with a scalar conductivity,
// D = kappa w adj(J) adj(J)^T / det J
type Diffusion struct{}

func (Diffusion) Op() OpKind { return GtDG }

func (Diffusion) EvalD(pt DomainPoint, kappa fem.Coefficient, d []float64) {
	dim := pt.Dim
	var adj [9]float64
	dense.Adjugate(dim, pt.J, adj[:])
	dense.MultAAt(dim, dim, adj[:], d)
	s := kappa.Eval(pt.Element, pt.X()) * pt.IP.Weight / dense.Det(dim, pt.J)
	for i := range d[:dim*dim] {
		d[i] *= s
	}
}

// Convection is (beta . grad u, v), D = w adj(J) beta
type Convection struct{}

func (Convection) Op() OpKind { return BtDG }

func (Convection) EvalD(pt DomainPoint, beta fem.VectorCoefficient, d []float64) {
	dim := pt.Dim
	var adj [9]float64
	var b [3]float64
	dense.Adjugate(dim, pt.J, adj[:])
	beta.Eval(pt.Element, pt.X(), b[:dim])
	var ab [3]float64
	for j := 0; j < dim; j++ {
		for i := 0; i < dim; i++ {
			ab[i] += adj[i+dim*j] * b[j]
		}
	}
	for i := 0; i < dim; i++ {
		d[i] = pt.IP.Weight * ab[i]
	}
}

// FacePoint is everything a face evaluator sees at one face quadrature
// point. K1 and K2 index the point in each side's face ordering.
type FacePoint struct {
	Dim          int
	K1, K2       int
	Normal       []float64 // outward from Elem1, scaled by the area element
	Elem1, Face1 int
	Elem2, Face2 int
	Tr           *mesh.FaceTransformation
	IP           basis.IntegrationPoint // face-local
	IP1, IP2     basis.IntegrationPoint // element reference coordinates
}

// X is the physical location of the point, seen from Elem1
func (p FacePoint) X() []float64 { return p.Tr.Tr1.Transform(p.IP1) }

// FaceEquation computes the face coefficients of one interior face point.
// d1 receives the weights of side 1 applied to [own trace, neighbor trace],
// d2 likewise for side 2.
type FaceEquation[A any] interface {
	EvalFaceD(pt FacePoint, args A, d1, d2 []float64)
}

// UpwindConvection is the upwind flux of (beta . n) u across interior faces,
// added to the upwind side and subtracted from the downwind side.
type UpwindConvection struct{}

func (UpwindConvection) EvalFaceD(pt FacePoint, beta fem.VectorCoefficient, d1, d2 []float64) {
	var b [3]float64
	beta.Eval(pt.Elem1, pt.X(), b[:pt.Dim])
	var bn float64
	for i := 0; i < pt.Dim; i++ {
		bn += b[i] * pt.Normal[i]
	}
	bn *= pt.IP.Weight
	if bn >= 0 {
		d1[0], d1[1] = bn, 0
		d2[0], d2[1] = 0, -bn
	} else {
		d1[0], d1[1] = 0, bn
		d2[0], d2[1] = -bn, 0
	}
}

// NormalProbe weighs the own trace by one component of the outward normal
// of each side.
type NormalProbe struct{}

func (NormalProbe) EvalFaceD(pt FacePoint, component int, d1, d2 []float64) {
	n := pt.IP.Weight * pt.Normal[component]
	d1[0], d1[1] = n, 0
	d2[0], d2[1] = -n, 0
}
