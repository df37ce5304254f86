package fem

import (
	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/device"
)

// EvalJacobians evaluates the element Jacobians at every point of the
// integration rule of order order, shaped [dim, dim, quad, element].
func EvalJacobians(backend device.Backend, s *Space, order int) (*array.XYZ[float64], error) {
	defer device.Trace(backend.Tracer(), "fem.jacobians")()
	dim := s.Dim()
	ir := IntRule(dim, order)
	nq, ne := len(ir), s.NumElements()
	jac, err := array.AllocXYZ[float64](backend, dim, dim, nq, ne)
	if err != nil {
		return nil, err
	}
	data := jac.Data()
	dd := dim * dim
	err = backend.Forall(ne, func(e int) error {
		tr := s.Mesh.ElementTransformation(e)
		for q, ip := range ir {
			copy(data[dd*(q+nq*e):], tr.Jacobian(ip))
		}
		return nil
	})
	if err != nil {
		jac.Free()
		return nil, err
	}
	jac.Push()
	return jac, nil
}
