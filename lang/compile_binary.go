package lang

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/token"
)

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return true
	default:
		return false
	}
}

// convertLane narrows a lane result (int64, uint64, or float64) back to
// the node's static type.
func convertLane(v any, t reflect.Type) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return v, nil
	}

	return rv.Convert(t).Interface(), nil
}

//nolint:gocyclo // one arm per operator family
func compileBinary(v *ast.Binary) (thunk, error) {
	left, err := compileNode(v.Left)
	if err != nil {
		return nil, err
	}

	right, err := compileNode(v.Right)
	if err != nil {
		return nil, err
	}

	op := v.Op
	t := v.T

	// Short-circuit forms evaluate the right side conditionally.
	switch op {
	case token.AndAnd:
		return func(a *activation) (any, error) {
			l, err := left(a)
			if err != nil {
				return nil, err
			}

			if !l.(bool) {
				return false, nil
			}

			return right(a)
		}, nil

	case token.OrOr:
		return func(a *activation) (any, error) {
			l, err := left(a)
			if err != nil {
				return nil, err
			}

			if l.(bool) {
				return true, nil
			}

			return right(a)
		}, nil

	case token.Coalesce:
		return func(a *activation) (any, error) {
			l, err := left(a)
			if err != nil {
				return nil, err
			}

			if !isNilValue(l) {
				return l, nil
			}

			return right(a)
		}, nil
	}

	return func(a *activation) (any, error) {
		l, err := left(a)
		if err != nil {
			return nil, err
		}

		r, err := right(a)
		if err != nil {
			return nil, err
		}

		switch op {
		case token.Plus:
			if t.Kind() == reflect.String {
				return concat(l, r), nil
			}

			return arith(op, l, r, t)

		case token.Minus, token.Star, token.Slash, token.Percent:
			return arith(op, l, r, t)

		case token.Equal:
			eq, err := valuesEqual(l, r)

			return eq, err

		case token.NotEqual:
			eq, err := valuesEqual(l, r)

			return !eq, err

		case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
			c, err := compare(l, r)
			if err != nil {
				return nil, err
			}

			switch op {
			case token.Less:
				return c < 0, nil
			case token.LessEqual:
				return c <= 0, nil
			case token.Greater:
				return c > 0, nil
			default:
				return c >= 0, nil
			}

		case token.Amp, token.Pipe, token.Caret:
			return bitwise(op, l, r, t)

		case token.Shl, token.Shr:
			return shift(op, l, r, t)
		}

		return nil, fmt.Errorf("unsupported operator %s", op)
	}, nil
}

// concat renders both operands into a string. Non-string operands use
// their default formatting.
func concat(l, r any) string {
	var sb strings.Builder

	for _, v := range []any{l, r} {
		switch s := v.(type) {
		case string:
			sb.WriteString(s)
		case nil:
		case rune:
			sb.WriteRune(s)
		default:
			fmt.Fprintf(&sb, "%v", v)
		}
	}

	return sb.String()
}

// arith computes an arithmetic operator in the lane selected by the
// promoted type: decimal, float, unsigned, or signed.
func arith(op token.Kind, l, r any, t reflect.Type) (any, error) {
	if ld, ok := l.(decimal.Decimal); ok {
		rd := r.(decimal.Decimal)

		switch op {
		case token.Plus:
			return ld.Add(rd), nil
		case token.Minus:
			return ld.Sub(rd), nil
		case token.Star:
			return ld.Mul(rd), nil
		case token.Slash:
			if rd.IsZero() {
				return nil, fmt.Errorf("decimal division by zero")
			}

			return ld.Div(rd), nil
		case token.Percent:
			if rd.IsZero() {
				return nil, fmt.Errorf("decimal division by zero")
			}

			return ld.Mod(rd), nil
		}
	}

	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)

	switch {
	case isFloatKind(lv.Kind()):
		a, b := lv.Float(), rv.Float()

		switch op {
		case token.Plus:
			return convertLane(a+b, t)
		case token.Minus:
			return convertLane(a-b, t)
		case token.Star:
			return convertLane(a*b, t)
		case token.Slash:
			return convertLane(a/b, t)
		case token.Percent:
			return convertLane(math.Mod(a, b), t)
		}

	case isUnsignedKind(lv.Kind()):
		a, b := lv.Uint(), rv.Uint()

		switch op {
		case token.Plus:
			return convertLane(a+b, t)
		case token.Minus:
			return convertLane(a-b, t)
		case token.Star:
			return convertLane(a*b, t)
		case token.Slash:
			if b == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}

			return convertLane(a/b, t)
		case token.Percent:
			if b == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}

			return convertLane(a%b, t)
		}

	default:
		a, b := lv.Int(), rv.Int()

		switch op {
		case token.Plus:
			return convertLane(a+b, t)
		case token.Minus:
			return convertLane(a-b, t)
		case token.Star:
			return convertLane(a*b, t)
		case token.Slash:
			if b == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}

			return convertLane(a/b, t)
		case token.Percent:
			if b == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}

			return convertLane(a%b, t)
		}
	}

	return nil, fmt.Errorf("unsupported operator %s for %s", op, t)
}

// valuesEqual implements == over promoted operands, null tests, and
// reference-compatible values.
func valuesEqual(l, r any) (eq bool, err error) {
	if isNilValue(l) || isNilValue(r) {
		return isNilValue(l) && isNilValue(r), nil
	}

	if ld, ok := l.(decimal.Decimal); ok {
		if rd, ok := r.(decimal.Decimal); ok {
			return ld.Equal(rd), nil
		}
	}

	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)

	if lv.Type() != rv.Type() {
		// Reference-compatible operands of distinct static types
		// compare by identity, which distinct types never satisfy.
		return false, nil
	}

	if !lv.Type().Comparable() {
		return false, fmt.Errorf("type %s is not comparable", lv.Type())
	}

	return l == r, nil
}

// compare orders two promoted operands: both numeric in the same lane,
// both decimal, or both strings.
func compare(l, r any) (int, error) {
	if ld, ok := l.(decimal.Decimal); ok {
		return ld.Cmp(r.(decimal.Decimal)), nil
	}

	if ls, ok := l.(string); ok {
		return strings.Compare(ls, r.(string)), nil
	}

	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)

	switch {
	case isFloatKind(lv.Kind()):
		a, b := lv.Float(), rv.Float()

		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}

	case isUnsignedKind(lv.Kind()):
		a, b := lv.Uint(), rv.Uint()

		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}

	case lv.CanInt():
		a, b := lv.Int(), rv.Int()

		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	}

	return 0, fmt.Errorf("type %s is not ordered", lv.Type())
}

// bitwise computes & | ^ on booleans or integers.
func bitwise(op token.Kind, l, r any, t reflect.Type) (any, error) {
	if lb, ok := l.(bool); ok {
		rb := r.(bool)

		switch op {
		case token.Amp:
			return lb && rb, nil
		case token.Pipe:
			return lb || rb, nil
		default:
			return lb != rb, nil
		}
	}

	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)

	if isUnsignedKind(lv.Kind()) {
		a, b := lv.Uint(), rv.Uint()

		switch op {
		case token.Amp:
			return convertLane(a&b, t)
		case token.Pipe:
			return convertLane(a|b, t)
		default:
			return convertLane(a^b, t)
		}
	}

	a, b := lv.Int(), rv.Int()

	switch op {
	case token.Amp:
		return convertLane(a&b, t)
	case token.Pipe:
		return convertLane(a|b, t)
	default:
		return convertLane(a^b, t)
	}
}

// shift computes << and >>; the right operand was converted to int by
// the binder and the result keeps the left operand's type.
func shift(op token.Kind, l, r any, t reflect.Type) (any, error) {
	n := r.(int)
	if n < 0 {
		return nil, fmt.Errorf("negative shift count")
	}

	lv := reflect.ValueOf(l)

	if isUnsignedKind(lv.Kind()) {
		if op == token.Shl {
			return convertLane(lv.Uint()<<n, t)
		}

		return convertLane(lv.Uint()>>n, t)
	}

	if op == token.Shl {
		return convertLane(lv.Int()<<n, t)
	}

	return convertLane(lv.Int()>>n, t)
}
