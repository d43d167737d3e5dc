package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		kind Kind
	}{
		{"addition", "what is 5 plus 3", "5.0 plus 3.0 equals 8.0", Result},
		{"add keyword", "add 2.5 and 4", "2.5 plus 4.0 equals 6.5", Result},
		{"subtraction", "10 minus 4", "10.0 minus 4.0 equals 6.0", Result},
		{"multiplication", "6 times 7", "6.0 times 7.0 equals 42.0", Result},
		{"division", "10 divided by 4", "10.0 divided by 4.0 equals 2.5000", Result},
		{"division by zero", "10 divided by 0", "Sorry, I cannot divide by zero.", Guardrail},
		{"modulo", "10 mod 3", "10 modulo 3 equals 1", Result},
		{"modulo by zero", "what is the remainder of 7 and 0", "Sorry, I cannot divide by zero.", Guardrail},
		{"square root", "square root of 16", "The square root of 16.0 is 4.0000", Result},
		{"bare root", "what is the root of 2", "The square root of 2.0 is 1.4142", Result},
		{"negative root", "square root of -4", "I can't take the square root of a negative number.", Guardrail},
		{"cube root", "cube root of 27", "The cube root of 27.0 is 3.0000", Result},
		{"factorial", "factorial of 5", "The factorial of 5 is 120", Result},
		{"factorial zero", "factorial of 0", "The factorial of 0 is 1", Result},
		{"factorial too big", "factorial of 25", "That number is too large. I can only calculate factorials up to 20.", Guardrail},
		{"factorial negative", "factorial of -3", "Factorial is not defined for negative numbers.", Guardrail},
		{"power", "2 to the power 10", "2.0 to the power of 10.0 equals 1024.0", Result},
		{"raised to", "3 raised to 2", "3.0 to the power of 2.0 equals 9.0", Result},
		{"symbolic", "what is 2 + 3 * 4", "The answer is 14", Result},
		{"symbolic parens", "(2+3)*4", "The answer is 20", Result},
		{"symbolic float", "7 / 2", "The answer is 3.5", Result},
		{"symbolic whole float", "6 / 3", "The answer is 2", Result},
		{"symbolic power", "2 ** 8", "The answer is 256", Result},
		{"numbers only", "5 and 3", "I found the numbers 5 and 3. What would you like me to do with them? You can say plus, minus, times, divided by, or modulo.", Clarification},
		{"nothing", "calculate something", "I couldn't understand the math request. Try saying something like 'what is 5 plus 3'.", Clarification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestResolveNotApplicable(t *testing.T) {
	for _, in := range []string{
		"square root",
		"factorial please",
		"add a timer",
		"5 plus",
		"power",
	} {
		t.Run(in, func(t *testing.T) {
			_, ok := Resolve(in)
			assert.False(t, ok)
		})
	}
}

func TestResolveRawDivisionByZero(t *testing.T) {
	for _, in := range []string{"10 / 0", "7 % 0", "1/0.0", "4 / (0)", "3 % (2-2)", "1 / (1-1)"} {
		t.Run(in, func(t *testing.T) {
			got, ok := Resolve(in)
			require.True(t, ok)
			assert.Equal(t, Guardrail, got.Kind)
			assert.Equal(t, "Sorry, I cannot divide by zero.", got.Text)
		})
	}

	got, ok := Resolve("10 / 0.5")
	require.True(t, ok)
	assert.Equal(t, "The answer is 20", got.Text)
}

func TestResolveRawFallsThrough(t *testing.T) {
	// unparseable formulas fall through to the numbers rule
	got, ok := Resolve("2(3)")
	require.True(t, ok)
	assert.Equal(t, Clarification, got.Kind)

	got, ok = Resolve("5 +")
	require.True(t, ok)
	assert.Equal(t, Clarification, got.Kind)
	assert.Contains(t, got.Text, "the numbers 5.")
}

func TestResolveLenientExtraction(t *testing.T) {
	got, ok := Resolve("what is the sum of 3 apples and 5 oranges")
	require.True(t, ok)
	assert.Equal(t, "3.0 plus 5.0 equals 8.0", got.Text)
}

func TestFactorial(t *testing.T) {
	f, err := Factorial(20)
	require.NoError(t, err)
	assert.Equal(t, uint64(2432902008176640000), f)

	_, err = Factorial(21)
	assert.ErrorIs(t, err, ErrFactorialTooBig)

	_, err = Factorial(-1)
	assert.ErrorIs(t, err, ErrNegativeFactor)
}

func TestExpressionEval(t *testing.T) {
	v, err := Expression{Op: OpModulo, Operands: []float64{-7, 3}}.Eval()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = Expression{Op: OpDivide, Operands: []float64{1}}.Eval()
	assert.ErrorIs(t, err, ErrMissingOperands)

	_, err = Expression{Op: OpPower, Operands: []float64{10, 400}}.Eval()
	assert.ErrorIs(t, err, ErrResultOverflow)

	v, err = Expression{Op: OpCbrt, Operands: []float64{-8}}.Eval()
	require.NoError(t, err)
	assert.InDelta(t, -2.0, v, 1e-9)
}

func TestHasKeyword(t *testing.T) {
	assert.True(t, HasKeyword("what is 3 times 4"))
	assert.True(t, HasKeyword("cube root of 8"))
	assert.False(t, HasKeyword("hello there"))
	assert.True(t, HasSymbol("3+4"))
	assert.False(t, HasSymbol("3 and 4"))
}

func TestHasFormula(t *testing.T) {
	for _, in := range []string{"5 +", "7 % 0", "10/2", "* 3", "4 - 1", "2 -(1)"} {
		assert.True(t, HasFormula(in), in)
	}
	for _, in := range []string{"set volume to 50%", "wilkes-barre weather", "timer for 30 seconds", "+"} {
		assert.False(t, HasFormula(in), in)
	}
}
