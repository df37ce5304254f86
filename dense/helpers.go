package dense

import "math"

// RowSums writes into vec the sum of each row of a height x width matrix
// stored row-major in matrix.
func RowSums(height, width int, matrix, vec []float64) {
	for i := 0; i < height; i++ {
		var d float64
		for j := 0; j < width; j++ {
			d += matrix[j+i*width]
		}
		vec[i] = d
	}
}

// AddMultVVt adds a*v*v^T to the n x n leading block of vvt (leading
// dimension height). The lower triangle is computed and mirrored.
func AddMultVVt(n int, a float64, v []float64, height int, vvt []float64) {
	for i := 0; i < n; i++ {
		avi := a * v[i]
		for j := 0; j < i; j++ {
			avivj := avi * v[j]
			vvt[i+j*height] += avivj
			vvt[j+i*height] += avivj
		}
		vvt[i+i*height] += avi * v[i]
	}
}

// Transpose writes the width x height transpose of the height x width m into t
func Transpose(height, width int, m, t []float64) {
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			t[j+i*width] = m[i+j*height]
		}
	}
}

// Mult computes a = b*c with b ah x bw and c bw x aw. The output is zeroed
// first.
func Mult(ah, aw, bw int, b, c, a []float64) {
	for i := range a[:ah*aw] {
		a[i] = 0
	}
	for j := 0; j < aw; j++ {
		for k := 0; k < bw; k++ {
			ckj := c[k+j*bw]
			for i := 0; i < ah; i++ {
				a[i+j*ah] += b[i+k*ah] * ckj
			}
		}
	}
}

// MultVec computes y = a*x for a height x width matrix
func MultVec(height, width int, a, x, y []float64) {
	for i := 0; i < height; i++ {
		var sum float64
		for j := 0; j < width; j++ {
			sum += x[j] * a[i+j*height]
		}
		y[i] = sum
	}
}

// MultAAt computes the symmetric height x height product a*a^T
func MultAAt(height, width int, a, aat []float64) {
	for i := 0; i < height; i++ {
		for j := 0; j <= i; j++ {
			var temp float64
			for k := 0; k < width; k++ {
				temp += a[i+k*height] * a[j+k*height]
			}
			aat[j+i*height] = temp
			aat[i+j*height] = temp
		}
	}
}

// Diag zeroes the first size entries of data and sets the n diagonal
// entries of the n x n matrix to c.
func Diag(n, size int, c float64, data []float64) {
	for i := range data[:size] {
		data[i] = 0
	}
	for i := 0; i < n; i++ {
		data[i*(n+1)] = c
	}
}

func FNormMax(data []float64) float64 {
	var maxNorm float64
	for _, v := range data {
		if e := math.Abs(v); e > maxNorm {
			maxNorm = e
		}
	}
	return maxNorm
}

// FNorm2 is the sum of squares of data scaled by 1/maxNorm
func FNorm2(data []float64, maxNorm float64) float64 {
	var s float64
	for _, v := range data {
		e := v / maxNorm
		s += e * e
	}
	return s
}

// FNorm is the Frobenius norm, scaled by the largest entry to avoid overflow
func FNorm(data []float64) float64 {
	maxNorm := FNormMax(data)
	if maxNorm == 0 {
		return 0
	}
	return maxNorm * math.Sqrt(FNorm2(data, maxNorm))
}
