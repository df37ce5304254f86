package dense

import "fmt"

func Det2(a []float64) float64 {
	return a[0]*a[3] - a[1]*a[2]
}

func Det3(a []float64) float64 {
	return a[0]*(a[4]*a[8]-a[5]*a[7]) +
		a[3]*(a[2]*a[7]-a[1]*a[8]) +
		a[6]*(a[1]*a[5]-a[2]*a[4])
}

// Det dispatches on the block size for 1 <= m <= 3
func Det(m int, a []float64) float64 {
	switch m {
	case 1:
		return a[0]
	case 2:
		return Det2(a)
	case 3:
		return Det3(a)
	}
	panic(fmt.Sprintf("dense: closed-form determinant for m=%d", m))
}

// CalcInverse2D writes t*adj(a) into inv; with t = 1/det(a) that is the inverse
func CalcInverse2D(t float64, a, inv []float64) {
	inv[0+2*0] = a[1+2*1] * t
	inv[0+2*1] = -a[0+2*1] * t
	inv[1+2*0] = -a[1+2*0] * t
	inv[1+2*1] = a[0+2*0] * t
}

// CalcInverse3D writes t times the cofactor transpose of a into inv
func CalcInverse3D(t float64, a, inv []float64) {
	inv[0+3*0] = (a[1+3*1]*a[2+3*2] - a[1+3*2]*a[2+3*1]) * t
	inv[0+3*1] = (a[0+3*2]*a[2+3*1] - a[0+3*1]*a[2+3*2]) * t
	inv[0+3*2] = (a[0+3*1]*a[1+3*2] - a[0+3*2]*a[1+3*1]) * t

	inv[1+3*0] = (a[1+3*2]*a[2+3*0] - a[1+3*0]*a[2+3*2]) * t
	inv[1+3*1] = (a[0+3*0]*a[2+3*2] - a[0+3*2]*a[2+3*0]) * t
	inv[1+3*2] = (a[0+3*2]*a[1+3*0] - a[0+3*0]*a[1+3*2]) * t

	inv[2+3*0] = (a[1+3*0]*a[2+3*1] - a[1+3*1]*a[2+3*0]) * t
	inv[2+3*1] = (a[0+3*1]*a[2+3*0] - a[0+3*0]*a[2+3*1]) * t
	inv[2+3*2] = (a[0+3*0]*a[1+3*1] - a[0+3*1]*a[1+3*0]) * t
}

func Inverse2(a, inv []float64) {
	CalcInverse2D(1/Det2(a), a, inv)
}

func Inverse3(a, inv []float64) {
	CalcInverse3D(1/Det3(a), a, inv)
}

// Adjugate writes adj(a) = det(a)*inverse(a) for 1 <= m <= 3. It is defined
// for singular a as well.
func Adjugate(m int, a, adj []float64) {
	switch m {
	case 1:
		adj[0] = 1
	case 2:
		CalcInverse2D(1, a, adj)
	case 3:
		CalcInverse3D(1, a, adj)
	default:
		panic(fmt.Sprintf("dense: closed-form adjugate for m=%d", m))
	}
}
