package basis

import "fmt"

// IntegrationPoint is a reference coordinate on [0,1]^dim with its weight
type IntegrationPoint struct {
	X, Y, Z float64
	Weight  float64
}

// Coord returns component i of the reference coordinate
func (ip IntegrationPoint) Coord(i int) float64 {
	switch i {
	case 0:
		return ip.X
	case 1:
		return ip.Y
	}
	return ip.Z
}

// GaussLegendre returns the n point Gauss rule mapped to [0,1]. It is exact
// for polynomials of degree 2n-1.
func GaussLegendre(n int) (x, w []float64) {
	if n < 1 {
		panic(fmt.Sprintf("basis: Gauss rule with %d points", n))
	}
	r, wr := JacobiGQ(0, 0, n-1)
	return toUnit(r), halve(wr)
}

// GaussLobatto returns the n point Gauss-Lobatto nodes mapped to [0,1]
func GaussLobatto(n int) []float64 {
	if n < 1 {
		panic(fmt.Sprintf("basis: Gauss-Lobatto rule with %d points", n))
	}
	return toUnit(JacobiGL(0, 0, n-1))
}

func toUnit(r []float64) []float64 {
	x := make([]float64, len(r))
	for i, v := range r {
		x[i] = (v + 1) / 2
	}
	return x
}

func halve(w []float64) []float64 {
	for i := range w {
		w[i] /= 2
	}
	return w
}

// TensorRule is the dim-fold product of the n point Gauss rule on [0,1]^dim.
// Points are ordered with x fastest.
func TensorRule(dim, n int) []IntegrationPoint {
	x, w := GaussLegendre(n)
	switch dim {
	case 1:
		ips := make([]IntegrationPoint, n)
		for i := range ips {
			ips[i] = IntegrationPoint{X: x[i], Weight: w[i]}
		}
		return ips
	case 2:
		ips := make([]IntegrationPoint, 0, n*n)
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				ips = append(ips, IntegrationPoint{X: x[i], Y: x[j], Weight: w[i] * w[j]})
			}
		}
		return ips
	case 3:
		ips := make([]IntegrationPoint, 0, n*n*n)
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				for i := 0; i < n; i++ {
					ips = append(ips, IntegrationPoint{X: x[i], Y: x[j], Z: x[k],
						Weight: w[i] * w[j] * w[k]})
				}
			}
		}
		return ips
	}
	panic(fmt.Sprintf("basis: tensor rule in dimension %d", dim))
}
