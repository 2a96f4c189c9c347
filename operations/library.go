package operations

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

func library() []Operation {
	return []Operation{
		{ID: FN1, Name: "add", Description: "Adds two numbers", MinArgs: 2, MaxArgs: 2, Handler: binary(func(a, b number) (any, error) {
			return a.combine(b, addInt, func(x, y float64) float64 { return x + y }), nil
		})},
		{ID: FN2, Name: "subtract", Description: "Subtracts the second number from the first", MinArgs: 2, MaxArgs: 2, Handler: binary(func(a, b number) (any, error) {
			return a.combine(b, subInt, func(x, y float64) float64 { return x - y }), nil
		})},
		{ID: FN3, Name: "multiply", Description: "Multiplies two numbers", MinArgs: 2, MaxArgs: 2, Handler: binary(func(a, b number) (any, error) {
			return a.combine(b, mulInt, func(x, y float64) float64 { return x * y }), nil
		})},
		{ID: FN4, Name: "divide", Description: "Divides the first number by the second", MinArgs: 2, MaxArgs: 2, Handler: binary(divide)},
		{ID: FN5, Name: "modulo", Description: "Remainder of an integer division", MinArgs: 2, MaxArgs: 2, Handler: binary(modulo)},
		{ID: FN6, Name: "power", Description: "Raises the first number to the second", MinArgs: 2, MaxArgs: 2, Handler: binary(power)},
		{ID: FN7, Name: "sqrt", Description: "Square root of a non-negative number", MinArgs: 1, MaxArgs: 1, Handler: unary(squareRoot)},
		{ID: FN8, Name: "abs", Description: "Absolute value", MinArgs: 1, MaxArgs: 1, Handler: unary(func(a number) (any, error) {
			if a.isInt && a.i != math.MinInt64 {
				if a.i < 0 {
					return -a.i, nil
				}
				return a.i, nil
			}
			return math.Abs(a.f), nil
		})},
		{ID: FN9, Name: "max", Description: "Largest value of an array or of the inputs", MinArgs: 1, MaxArgs: -1, Handler: numbers(func(ns []number) (any, error) {
			return extreme(ns, func(a, b float64) bool { return a > b })
		})},
		{ID: FN10, Name: "min", Description: "Smallest value of an array or of the inputs", MinArgs: 1, MaxArgs: -1, Handler: numbers(func(ns []number) (any, error) {
			return extreme(ns, func(a, b float64) bool { return a < b })
		})},
		{ID: FN11, Name: "sum", Description: "Sum of an array or of the inputs", MinArgs: 1, MaxArgs: -1, Handler: numbers(sum)},
		{ID: FN12, Name: "reverse", Description: "Reverses a string or an array", MinArgs: 1, MaxArgs: 1, Handler: reverse},
		{ID: FN13, Name: "sort", Description: "Sorts a numeric array ascending", MinArgs: 1, MaxArgs: -1, Handler: numbers(sortNumbers)},
		{ID: FN14, Name: "length", Description: "Length of a string or an array", MinArgs: 1, MaxArgs: 1, Handler: length},
		{ID: FN15, Name: "isPrime", Description: "Whether an integer is prime", MinArgs: 1, MaxArgs: 1, Handler: integer(func(n int64) (any, error) {
			return isPrime(n), nil
		})},
		{ID: FN16, Name: "factorial", Description: "Factorial of an integer between 0 and 20", MinArgs: 1, MaxArgs: 1, Handler: integer(factorial)},
		{ID: FN17, Name: "fibonacci", Description: "N-th Fibonacci number, N between 0 and 92", MinArgs: 1, MaxArgs: 1, Handler: integer(fibonacci)},
		{ID: FN18, Name: "isEven", Description: "Whether an integer is even", MinArgs: 1, MaxArgs: 1, Handler: integer(func(n int64) (any, error) {
			return n%2 == 0, nil
		})},
		{ID: FN19, Name: "concat", Description: "Concatenates the inputs as text", MinArgs: 2, MaxArgs: -1, Handler: func(args []string) (any, error) {
			return strings.Join(args, ""), nil
		}},
		{ID: FN20, Name: "uppercase", Description: "Uppercases a string", MinArgs: 1, MaxArgs: 1, Handler: func(args []string) (any, error) {
			return strings.ToUpper(args[0]), nil
		}},
		{ID: FN21, Name: "split", Description: "Splits a string on a separator (comma by default)", MinArgs: 1, MaxArgs: 2, Handler: split},
		{ID: FN22, Name: "digitSum", Description: "Sum of the decimal digits of an integer", MinArgs: 1, MaxArgs: 1, Handler: integer(digitSum)},
		{ID: Q00XS, Name: "square", Description: "Multiplies a number by itself", MinArgs: 1, MaxArgs: 1, Handler: unary(func(a number) (any, error) {
			return a.combine(a, mulInt, func(x, y float64) float64 { return x * y }), nil
		})},
	}
}

// number keeps integers exact and falls back to floats
type number struct {
	i     int64
	f     float64
	isInt bool
}

func parseNumber(s string) (number, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{i: i, f: float64(i), isInt: true}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return number{}, fmt.Errorf("%w: %q is not a number", ErrInputType, s)
	}
	return number{f: f}, nil
}

func (n number) value() any {
	if n.isInt {
		return n.i
	}
	return n.f
}

// combine applies ints to two integers and falls back to floats when either is
// fractional or the integer result overflows
func (n number) combine(o number, ints func(int64, int64) (int64, bool), floats func(float64, float64) float64) any {
	if n.isInt && o.isInt {
		if v, ok := ints(n.i, o.i); ok {
			return v
		}
	}
	return floats(n.f, o.f)
}

func addInt(x, y int64) (int64, bool) {
	s := x + y
	return s, (s > x) == (y > 0)
}

func subInt(x, y int64) (int64, bool) {
	s := x - y
	return s, (s < x) == (y > 0)
}

func mulInt(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	p := x * y
	return p, p/y == x
}

func unary(fn func(number) (any, error)) Handler {
	return func(args []string) (any, error) {
		a, err := parseNumber(args[0])
		if err != nil {
			return nil, err
		}
		return fn(a)
	}
}

func binary(fn func(number, number) (any, error)) Handler {
	return func(args []string) (any, error) {
		a, err := parseNumber(args[0])
		if err != nil {
			return nil, err
		}
		b, err := parseNumber(args[1])
		if err != nil {
			return nil, err
		}
		return fn(a, b)
	}
}

func integer(fn func(int64) (any, error)) Handler {
	return func(args []string) (any, error) {
		n, err := parseNumber(args[0])
		if err != nil {
			return nil, err
		}
		if !n.isInt {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInputType, args[0])
		}
		return fn(n.i)
	}
}

// numbers accepts a single JSON array or several scalar inputs
func numbers(fn func([]number) (any, error)) Handler {
	return func(args []string) (any, error) {
		raw := args
		if len(args) == 1 {
			if items, ok := parseArray(args[0]); ok {
				raw = items
			}
		}
		ns := make([]number, 0, len(raw))
		for _, s := range raw {
			n, err := parseNumber(s)
			if err != nil {
				return nil, err
			}
			ns = append(ns, n)
		}
		return fn(ns)
	}
}

// parseArray decodes a JSON array into stringified elements
func parseArray(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	out := make([]string, len(items))
	for i, it := range items {
		switch v := it.(type) {
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			b, _ := json.Marshal(v)
			out[i] = string(b)
		}
	}
	return out, true
}

func divide(a, b number) (any, error) {
	if b.f == 0 {
		return nil, fmt.Errorf("%w: division by zero", ErrInputType)
	}
	if a.isInt && b.isInt && !(a.i == math.MinInt64 && b.i == -1) && a.i%b.i == 0 {
		return a.i / b.i, nil
	}
	return a.f / b.f, nil
}

func modulo(a, b number) (any, error) {
	if !a.isInt || !b.isInt {
		return nil, fmt.Errorf("%w: modulo needs integers", ErrInputType)
	}
	if b.i == 0 {
		return nil, fmt.Errorf("%w: modulo by zero", ErrInputType)
	}
	return a.i % b.i, nil
}

func power(a, b number) (any, error) {
	if !a.isInt || !b.isInt || b.i < 0 {
		return math.Pow(a.f, b.f), nil
	}
	switch a.i {
	case 0:
		if b.i == 0 {
			return int64(1), nil
		}
		return int64(0), nil
	case 1:
		return int64(1), nil
	case -1:
		if b.i%2 == 0 {
			return int64(1), nil
		}
		return int64(-1), nil
	}

	// |base| >= 2 here, so squaring overflows within a few rounds
	result, base, exp := int64(1), a.i, b.i
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return math.Pow(a.f, b.f), nil
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, ok = mulInt(base, base); !ok {
				return math.Pow(a.f, b.f), nil
			}
		}
	}
	return result, nil
}

func squareRoot(a number) (any, error) {
	if a.f < 0 {
		return nil, fmt.Errorf("%w: square root of a negative number", ErrInputType)
	}
	r := math.Sqrt(a.f)
	if r == math.Trunc(r) && r < math.MaxInt64 {
		return int64(r), nil
	}
	return r, nil
}

func extreme(ns []number, better func(a, b float64) bool) (any, error) {
	if len(ns) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrInputType)
	}
	best := ns[0]
	for _, n := range ns[1:] {
		if better(n.f, best.f) {
			best = n
		}
	}
	return best.value(), nil
}

func sum(ns []number) (any, error) {
	total := number{isInt: true}
	for _, n := range ns {
		v := total.combine(n, addInt, func(x, y float64) float64 { return x + y })
		switch t := v.(type) {
		case int64:
			total = number{i: t, f: float64(t), isInt: true}
		case float64:
			total = number{f: t}
		}
	}
	return total.value(), nil
}

func sortNumbers(ns []number) (any, error) {
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].f < ns[j].f })
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n.value()
	}
	return out, nil
}

func reverse(args []string) (any, error) {
	if items, ok := parseArray(args[0]); ok {
		out := make([]any, len(items))
		for i, it := range items {
			if n, err := parseNumber(it); err == nil {
				out[len(items)-1-i] = n.value()
			} else {
				out[len(items)-1-i] = it
			}
		}
		return out, nil
	}
	runes := []rune(args[0])
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

func length(args []string) (any, error) {
	if items, ok := parseArray(args[0]); ok {
		return len(items), nil
	}
	return len([]rune(args[0])), nil
}

// isPrime uses Baillie-PSW, which is exact below 2^64
func isPrime(n int64) bool {
	if n < 2 {
		return false
	}
	return big.NewInt(n).ProbablyPrime(0)
}

func factorial(n int64) (any, error) {
	if n < 0 || n > 20 {
		return nil, fmt.Errorf("%w: factorial needs 0 <= n <= 20", ErrInputType)
	}
	result := int64(1)
	for k := int64(2); k <= n; k++ {
		result *= k
	}
	return result, nil
}

func fibonacci(n int64) (any, error) {
	if n < 0 || n > 92 {
		return nil, fmt.Errorf("%w: fibonacci needs 0 <= n <= 92", ErrInputType)
	}
	a, b := int64(0), int64(1)
	for k := int64(0); k < n; k++ {
		a, b = b, a+b
	}
	return a, nil
}

func split(args []string) (any, error) {
	sep := ","
	if len(args) == 2 {
		sep = args[1]
	}
	parts := strings.Split(args[0], sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func digitSum(n int64) (any, error) {
	u := uint64(n)
	if n < 0 {
		u = uint64(-(n + 1)) + 1
	}
	total := int64(0)
	for u > 0 {
		total += int64(u % 10)
		u /= 10
	}
	return total, nil
}
