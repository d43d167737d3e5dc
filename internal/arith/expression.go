package arith

import (
	"errors"
	"math"
)

var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNegativeRoot    = errors.New("square root of a negative number")
	ErrNegativeFactor  = errors.New("factorial of a negative number")
	ErrFactorialTooBig = errors.New("factorial input too large")
	ErrResultOverflow  = errors.New("result out of range")
	ErrMissingOperands = errors.New("missing operands")
	ErrUnsupportedOp   = errors.New("unsupported operation")
)

// MaxFactorial is the largest input accepted by the factorial rule. 20! is
// the last factorial that fits in a uint64.
const MaxFactorial = 20

type Op string

const (
	OpAdd       Op = "add"
	OpSubtract  Op = "subtract"
	OpMultiply  Op = "multiply"
	OpDivide    Op = "divide"
	OpModulo    Op = "modulo"
	OpPower     Op = "power"
	OpSqrt      Op = "sqrt"
	OpCbrt      Op = "cbrt"
	OpFactorial Op = "factorial"
	OpRaw       Op = "raw"
)

// Expression is a resolved operator with its operands in order of
// appearance.
type Expression struct {
	Op       Op
	Operands []float64
}

func (e Expression) operand(i int) (float64, error) {
	if i >= len(e.Operands) {
		return 0, ErrMissingOperands
	}
	return e.Operands[i], nil
}

// Eval applies the operator. Factorial and modulo truncate their operands
// to integers.
func (e Expression) Eval() (float64, error) {
	a, err := e.operand(0)
	if err != nil {
		return 0, err
	}

	switch e.Op {
	case OpSqrt:
		if a < 0 {
			return 0, ErrNegativeRoot
		}
		return math.Sqrt(a), nil
	case OpCbrt:
		if a < 0 {
			return -math.Pow(-a, 1.0/3), nil
		}
		return math.Pow(a, 1.0/3), nil
	case OpFactorial:
		f, err := Factorial(int64(a))
		if err != nil {
			return 0, err
		}
		return float64(f), nil
	}

	b, err := e.operand(1)
	if err != nil {
		return 0, err
	}

	var res float64
	switch e.Op {
	case OpAdd:
		res = a + b
	case OpSubtract:
		res = a - b
	case OpMultiply:
		res = a * b
	case OpDivide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		res = a / b
	case OpModulo:
		x, y := int64(a), int64(b)
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		res = float64(floorMod(x, y))
	case OpPower:
		res = math.Pow(a, b)
	default:
		return 0, ErrUnsupportedOp
	}

	if math.IsInf(res, 0) || math.IsNaN(res) {
		return 0, ErrResultOverflow
	}
	return res, nil
}

// Factorial computes n! exactly for 0 <= n <= MaxFactorial.
func Factorial(n int64) (uint64, error) {
	if n < 0 {
		return 0, ErrNegativeFactor
	}
	if n > MaxFactorial {
		return 0, ErrFactorialTooBig
	}
	res := uint64(1)
	for i := uint64(2); i <= uint64(n); i++ {
		res *= i
	}
	return res, nil
}

// floorMod keeps the sign of the divisor, so -7 mod 3 is 2.
func floorMod(x, y int64) int64 {
	m := x % y
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return m
}
