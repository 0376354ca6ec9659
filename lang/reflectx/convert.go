// Package reflectx is the reflection adapter between the expression core
// and host Go types. The binder never touches package reflect directly for
// semantic decisions; it consumes the capabilities defined here: member
// listing, overload resolution, assignability and conversion, extension
// methods, and dynamic member probing.
package reflectx

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
)

// AnyType is the empty interface type.
var AnyType = reflect.TypeOf((*any)(nil)).Elem()

// DecimalType is the arbitrary-precision decimal type selected by the m
// literal suffix.
var DecimalType = reflect.TypeOf(decimal.Decimal{})

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ConversionKind classifies how a value of one type can be used where
// another type is expected.
type ConversionKind int

const (
	// NoConversion means the types are unrelated.
	NoConversion ConversionKind = iota

	// Identity means the types are the same.
	Identity

	// Implicit conversions apply silently during binding: numeric
	// widening, interface satisfaction, integer-to-decimal.
	Implicit

	// Explicit conversions require cast syntax: numeric narrowing,
	// decimal-to-numeric, and everything else reflect can convert.
	Explicit
)

// IsNilable reports whether a value of type t can hold null.
func IsNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t participates in numeric promotion.
func IsNumeric(t reflect.Type) bool {
	if t == DecimalType {
		return true
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// bits returns the width in bits of a numeric kind. int and uint count as
// 64 so that promotion decisions are portable.
func bits(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 8
	case reflect.Int16, reflect.Uint16:
		return 16
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 32
	default:
		return 64
	}
}

// intRank orders integer kinds for promotion: the named 64-bit kinds
// outrank the platform-sized int and uint even though their widths
// match.
func intRank(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32:
		return 3
	case reflect.Int, reflect.Uint:
		return 4
	case reflect.Int64, reflect.Uint64:
		return 5
	default:
		return 0
	}
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		return true
	default:
		return false
	}
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return true
	default:
		return false
	}
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isInteger(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k)
}

// implicitNumeric reports whether a numeric kind widens implicitly to
// another, following the usual C-family rules: widening within a
// signedness class, unsigned into strictly wider signed, any integer into
// floating point, and float32 into float64.
func implicitNumeric(from, to reflect.Kind) bool {
	switch {
	case isInteger(from) && isFloat(to):
		return true

	case from == reflect.Float32 && to == reflect.Float64:
		return true

	case isSigned(from) && isSigned(to):
		return intRank(to) >= intRank(from)

	case isUnsigned(from) && isUnsigned(to):
		return intRank(to) >= intRank(from)

	case isUnsigned(from) && isSigned(to):
		return bits(to) > bits(from)

	default:
		return false
	}
}

// Classify reports how a value of type from can be used where to is
// expected.
func Classify(from, to reflect.Type) ConversionKind {
	if from == to {
		return Identity
	}

	if from == nil || to == nil {
		return NoConversion
	}

	// Interface satisfaction and other direct assignability.
	if from.AssignableTo(to) {
		return Implicit
	}

	// Decimal interactions: integers widen in silently, floats and the
	// reverse direction require a cast.
	if to == DecimalType {
		if isInteger(from.Kind()) {
			return Implicit
		}

		if isFloat(from.Kind()) || from.Kind() == reflect.String {
			return Explicit
		}

		return NoConversion
	}

	if from == DecimalType {
		if isInteger(to.Kind()) || isFloat(to.Kind()) ||
			to.Kind() == reflect.String {
			return Explicit
		}

		return NoConversion
	}

	if IsNumeric(from) && IsNumeric(to) {
		if implicitNumeric(from.Kind(), to.Kind()) {
			return Implicit
		}

		return Explicit
	}

	if from.ConvertibleTo(to) {
		return Explicit
	}

	return NoConversion
}

// Promote computes the common type of two numeric operands under
// mixed-type arithmetic. The second result is false when no common type
// exists (e.g. uint64 mixed with a signed integer).
func Promote(a, b reflect.Type) (reflect.Type, bool) {
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil, false
	}

	if a == DecimalType || b == DecimalType {
		return DecimalType, true
	}

	ak, bk := a.Kind(), b.Kind()

	switch {
	case ak == reflect.Float64 || bk == reflect.Float64:
		return reflect.TypeOf(float64(0)), true

	case ak == reflect.Float32 || bk == reflect.Float32:
		return reflect.TypeOf(float32(0)), true

	case isSigned(ak) == isSigned(bk):
		// Same signedness: the wider side wins, and small integers
		// promote to at least int (or uint).
		wide := a
		if intRank(bk) > intRank(ak) {
			wide = b
		}

		if isSigned(ak) && intRank(wide.Kind()) < intRank(reflect.Int) {
			return reflect.TypeOf(int(0)), true
		}

		if isUnsigned(ak) && intRank(wide.Kind()) < intRank(reflect.Uint) {
			return reflect.TypeOf(uint(0)), true
		}

		return wide, true

	default:
		// Mixed signedness: the unsigned side must widen implicitly
		// into a signed type at least as wide as the signed side.
		u, s := a, b
		if isUnsigned(bk) {
			u, s = b, a
		}

		if bits(u.Kind()) >= 64 {
			return nil, false
		}

		need := bits(s.Kind())
		if bits(u.Kind()) >= need {
			need = bits(u.Kind()) * 2
		}

		switch {
		case need <= 32:
			return reflect.TypeOf(int32(0)), true
		default:
			return reflect.TypeOf(int64(0)), true
		}
	}
}

// Convert coerces a runtime value to the target type. A nil value
// converts to the zero value of any nilable target.
func Convert(v any, to reflect.Type) (any, error) {
	if v == nil {
		if to == AnyType || IsNilable(to) {
			return reflect.Zero(to).Interface(), nil
		}

		return nil, fmt.Errorf("cannot convert null to %s", to)
	}

	rv := reflect.ValueOf(v)

	if rv.Type() == to {
		return v, nil
	}

	if rv.Type().AssignableTo(to) {
		out := reflect.New(to).Elem()
		out.Set(rv)

		return out.Interface(), nil
	}

	// Decimal conversions go through the decimal API so precision is not
	// routed through float64 unnecessarily.
	if to == DecimalType {
		return toDecimal(rv)
	}

	if rv.Type() == DecimalType {
		return fromDecimal(v.(decimal.Decimal), to)
	}

	if !rv.Type().ConvertibleTo(to) {
		return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), to)
	}

	return rv.Convert(to).Interface(), nil
}

func toDecimal(rv reflect.Value) (any, error) {
	k := rv.Kind()

	switch {
	case isSigned(k):
		return decimal.NewFromInt(rv.Int()), nil

	case isUnsigned(k):
		return decimal.NewFromUint64(rv.Uint()), nil

	case isFloat(k):
		return decimal.NewFromFloat(rv.Float()), nil

	case k == reflect.String:
		d, err := decimal.NewFromString(rv.String())
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to decimal", rv.String())
		}

		return d, nil
	}

	return nil, fmt.Errorf("cannot convert %s to decimal", rv.Type())
}

func fromDecimal(d decimal.Decimal, to reflect.Type) (any, error) {
	k := to.Kind()

	switch {
	case isSigned(k) || isUnsigned(k):
		return Convert(d.IntPart(), to)

	case isFloat(k):
		return Convert(d.InexactFloat64(), to)

	case k == reflect.String:
		return d.String(), nil
	}

	return nil, fmt.Errorf("cannot convert decimal to %s", to)
}
