package arith

import (
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
)

// Kind tells the caller how an Answer was produced.
type Kind int

const (
	// Result is a computed value.
	Result Kind = iota
	// Guardrail is an explanation for a rejected computation, e.g.
	// division by zero or an oversized factorial.
	Guardrail
	// Clarification asks the user to restate the request.
	Clarification
)

type Answer struct {
	Text string
	Kind Kind
	Expr Expression
}

var (
	numberRe  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	integerRe = regexp.MustCompile(`-?\d+`)
	sanitizer = regexp.MustCompile(`[^0-9+\-*/%().]`)
	zeroDivRe = regexp.MustCompile(`[/%]\(*0+(?:\.0+)?(?:[^0-9.]|$)`)
	formulaRe = regexp.MustCompile(`\d\s*[+*/]|[+*/]\s*\d|\d\s*[-%]\s*[\d(]`)
)

const symbols = "+-*/%"

var powerKeywords = []string{"power", "raised to", "to the power"}

type binaryRule struct {
	op       Op
	keywords []string
	spoken   string
	integer  bool
}

// Tried in order, the first rule with a matching keyword wins.
var binaryRules = []binaryRule{
	{op: OpAdd, keywords: []string{"plus", "add", "sum"}, spoken: "plus"},
	{op: OpSubtract, keywords: []string{"minus", "subtract"}, spoken: "minus"},
	{op: OpMultiply, keywords: []string{"times", "multiply", "multiplied by"}, spoken: "times"},
	{op: OpDivide, keywords: []string{"divided by", "divide"}, spoken: "divided by"},
	{op: OpModulo, keywords: []string{"modulo", "mod", "remainder"}, spoken: "modulo", integer: true},
}

// Keywords lists every word or phrase that marks an utterance as a math
// request.
var Keywords = func() []string {
	kw := []string{"square root", "root", "cube root", "factorial", "calculate"}
	kw = append(kw, powerKeywords...)
	for _, r := range binaryRules {
		kw = append(kw, r.keywords...)
	}
	return kw
}()

// HasKeyword reports whether u names a math operation.
func HasKeyword(u string) bool {
	return containsAny(u, Keywords)
}

// HasSymbol reports whether u contains an arithmetic operator symbol.
func HasSymbol(u string) bool {
	return strings.ContainsAny(u, symbols)
}

// HasFormula reports whether u holds an operator symbol applied to a
// number, as in "5 +" or "7 % 2". A trailing percent sign or a hyphen
// inside a word does not count.
func HasFormula(u string) bool {
	return formulaRe.MatchString(u)
}

// Resolve turns a math utterance into a spoken answer. ok is false when no
// rule applies.
func Resolve(u string) (Answer, bool) {
	u = strings.ToLower(strings.TrimSpace(u))

	switch {
	case strings.Contains(u, "square root") ||
		(strings.Contains(u, "root") && !strings.Contains(u, "cube root")):
		return unary(u, OpSqrt, "square root")

	case strings.Contains(u, "cube root"):
		return unary(u, OpCbrt, "cube root")

	case strings.Contains(u, "factorial"):
		return factorial(u)

	case containsAny(u, powerKeywords):
		nums := extract(u, numberRe)
		if len(nums) < 2 {
			return Answer{}, false
		}
		e := Expression{Op: OpPower, Operands: parseFloats(nums[:2])}
		v, err := e.Eval()
		if err != nil {
			return guardrail(e, err), true
		}
		text := fmt.Sprintf("%s to the power of %s equals %s",
			natural(e.Operands[0]), natural(e.Operands[1]), natural(v))
		return Answer{Text: text, Kind: Result, Expr: e}, true
	}

	for _, r := range binaryRules {
		if !containsAny(u, r.keywords) {
			continue
		}
		return binary(u, r)
	}

	if HasSymbol(u) {
		if a, ok := raw(u); ok {
			return a, true
		}
	}

	if nums := extract(u, numberRe); len(nums) > 0 {
		text := fmt.Sprintf("I found the numbers %s. What would you like me to do with them? "+
			"You can say plus, minus, times, divided by, or modulo.", joinSpoken(nums))
		return Answer{Text: text, Kind: Clarification}, true
	}

	return Answer{
		Text: "I couldn't understand the math request. Try saying something like 'what is 5 plus 3'.",
		Kind: Clarification,
	}, true
}

func unary(u string, op Op, name string) (Answer, bool) {
	nums := extract(u, numberRe)
	if len(nums) == 0 {
		return Answer{}, false
	}
	e := Expression{Op: op, Operands: parseFloats(nums[:1])}
	v, err := e.Eval()
	if err != nil {
		return guardrail(e, err), true
	}
	text := fmt.Sprintf("The %s of %s is %s", name, natural(e.Operands[0]), fixed(v))
	return Answer{Text: text, Kind: Result, Expr: e}, true
}

func factorial(u string) (Answer, bool) {
	nums := extract(u, integerRe)
	if len(nums) == 0 {
		return Answer{}, false
	}
	n, err := strconv.ParseInt(nums[0], 10, 64)
	if err != nil {
		n = math.MaxInt64
	}
	e := Expression{Op: OpFactorial, Operands: []float64{float64(n)}}
	f, err := Factorial(n)
	if err != nil {
		return guardrail(e, err), true
	}
	text := fmt.Sprintf("The factorial of %d is %d", n, f)
	return Answer{Text: text, Kind: Result, Expr: e}, true
}

func binary(u string, r binaryRule) (Answer, bool) {
	re := numberRe
	if r.integer {
		re = integerRe
	}
	nums := extract(u, re)
	if len(nums) < 2 {
		return Answer{}, false
	}
	e := Expression{Op: r.op, Operands: parseFloats(nums[:2])}
	v, err := e.Eval()
	if err != nil {
		return guardrail(e, err), true
	}

	var text string
	switch r.op {
	case OpModulo:
		text = fmt.Sprintf("%d modulo %d equals %d",
			int64(e.Operands[0]), int64(e.Operands[1]), int64(v))
	case OpDivide:
		text = fmt.Sprintf("%s divided by %s equals %s",
			natural(e.Operands[0]), natural(e.Operands[1]), fixed(v))
	default:
		text = fmt.Sprintf("%s %s %s equals %s",
			natural(e.Operands[0]), r.spoken, natural(e.Operands[1]), natural(v))
	}
	return Answer{Text: text, Kind: Result, Expr: e}, true
}

// raw evaluates the symbolic part of u as an infix formula. Division or
// modulo by zero is a guardrail answer; any other failure reports ok=false
// so the caller can move on to the next rule.
func raw(u string) (Answer, bool) {
	src := sanitizer.ReplaceAllString(u, "")
	if src == "" || !strings.ContainsAny(src, "0123456789") {
		return Answer{}, false
	}
	e := Expression{Op: OpRaw}
	if zeroDivRe.MatchString(src) {
		return guardrail(e, ErrDivisionByZero), true
	}

	out, err := expr.Eval(src, nil)
	if err != nil {
		if strings.Contains(err.Error(), "divide by zero") {
			return guardrail(e, ErrDivisionByZero), true
		}
		log.Debug("Expression rejected", "expr", src, "err", err)
		return Answer{}, false
	}

	var text string
	switch v := out.(type) {
	case int:
		text = strconv.Itoa(v)
	case float64:
		switch {
		case math.IsNaN(v), math.IsInf(v, 0) && strings.ContainsAny(src, "/%"):
			return guardrail(e, ErrDivisionByZero), true
		case math.IsInf(v, 0):
			return guardrail(e, ErrResultOverflow), true
		}
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			text = strconv.FormatInt(int64(v), 10)
		} else {
			text = strconv.FormatFloat(v, 'g', -1, 64)
		}
	default:
		return Answer{}, false
	}

	return Answer{Text: "The answer is " + text, Kind: Result, Expr: e}, true
}

func guardrail(e Expression, err error) Answer {
	var text string
	switch {
	case errors.Is(err, ErrDivisionByZero):
		text = "Sorry, I cannot divide by zero."
	case errors.Is(err, ErrNegativeRoot):
		text = "I can't take the square root of a negative number."
	case errors.Is(err, ErrNegativeFactor):
		text = "Factorial is not defined for negative numbers."
	case errors.Is(err, ErrFactorialTooBig):
		text = fmt.Sprintf("That number is too large. I can only calculate factorials up to %d.", MaxFactorial)
	case errors.Is(err, ErrResultOverflow):
		text = "That result is too large for me to calculate."
	default:
		text = "Sorry, I couldn't calculate that."
	}
	return Answer{Text: text, Kind: Guardrail, Expr: e}
}

// extract returns the matches of re in left to right order. A leading minus
// glued to a preceding word or digit is an operator, not a sign.
func extract(u string, re *regexp.Regexp) []string {
	var out []string
	for _, loc := range re.FindAllStringIndex(u, -1) {
		s := u[loc[0]:loc[1]]
		if s[0] == '-' && loc[0] > 0 {
			prev := rune(u[loc[0]-1])
			if unicode.IsDigit(prev) || unicode.IsLetter(prev) || prev == ')' {
				s = s[1:]
			}
		}
		out = append(out, s)
	}
	return out
}

func parseFloats(ss []string) []float64 {
	out := make([]float64, 0, len(ss))
	for _, s := range ss {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// natural prints a float the way a calculator would read it out: whole
// values keep one decimal place (8.0), others use the shortest exact form.
func natural(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func joinSpoken(ss []string) string {
	switch len(ss) {
	case 1:
		return ss[0]
	case 2:
		return ss[0] + " and " + ss[1]
	}
	return strings.Join(ss[:len(ss)-1], ", ") + " and " + ss[len(ss)-1]
}

func containsAny(u string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(u, k) {
			return true
		}
	}
	return false
}
