package fem

// Coefficient is a scalar field evaluated at a physical point of an element
type Coefficient interface {
	Eval(e int, x []float64) float64
}

// VectorCoefficient writes a Dim vector field into v
type VectorCoefficient interface {
	Eval(e int, x []float64, v []float64)
}

type ConstantCoefficient float64

func (c ConstantCoefficient) Eval(int, []float64) float64 { return float64(c) }

// FunctionCoefficient ignores the element
type FunctionCoefficient func(x []float64) float64

func (f FunctionCoefficient) Eval(_ int, x []float64) float64 { return f(x) }

type ConstantVector []float64

func (c ConstantVector) Eval(_ int, _ []float64, v []float64) { copy(v, c) }

type FunctionVector func(x []float64, v []float64)

func (f FunctionVector) Eval(_ int, x []float64, v []float64) { f(x, v) }
