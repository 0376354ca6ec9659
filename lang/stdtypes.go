package lang

// This file defines the optional seed groups loaded at construction:
// primitive type aliases, the true/false/null literal identifiers, and a
// set of common helper types. Each group is merely a batch registration
// and carries no special semantics afterwards.

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/reflectx"
)

// primitiveTypes maps the C-family primitive aliases to their Go
// counterparts.
var primitiveTypes = map[string]reflect.Type{
	"bool":    reflect.TypeOf(false),
	"byte":    reflect.TypeOf(byte(0)),
	"sbyte":   reflect.TypeOf(int8(0)),
	"char":    reflect.TypeOf(rune(0)),
	"short":   reflect.TypeOf(int16(0)),
	"ushort":  reflect.TypeOf(uint16(0)),
	"int":     reflect.TypeOf(int(0)),
	"uint":    reflect.TypeOf(uint(0)),
	"long":    reflect.TypeOf(int64(0)),
	"ulong":   reflect.TypeOf(uint64(0)),
	"float":   reflect.TypeOf(float32(0)),
	"double":  reflect.TypeOf(float64(0)),
	"decimal": reflectx.DecimalType,
	"string":  reflect.TypeOf(""),
	"object":  ast.AnyType,
}

// seedPrimitiveTypes registers the primitive aliases.
func (s *settings) seedPrimitiveTypes() {
	for alias, t := range primitiveTypes {
		_ = s.registerType(alias, t, reflect.Value{})
	}
}

// seedLiteralKeywords registers true, false, and null as ordinary
// identifiers so hosts may shadow or omit them.
func (s *settings) seedLiteralKeywords() {
	_ = s.registerIdentifier("true", &ast.Constant{
		Value: true, T: ast.BoolType,
	})
	_ = s.registerIdentifier("false", &ast.Constant{
		Value: false, T: ast.BoolType,
	})
	_ = s.registerIdentifier("null", ast.Null())
}

// seedCommonTypes registers the Math, Convert, and Strings helper types.
// Their methods double as extension methods on the type of their first
// parameter.
func (s *settings) seedCommonTypes() {
	_ = s.registerType(
		"Math", reflect.TypeOf(mathOps{}), reflect.ValueOf(mathOps{}),
	)
	_ = s.registerType(
		"Convert", reflect.TypeOf(convertOps{}), reflect.ValueOf(convertOps{}),
	)
	_ = s.registerType(
		"Strings", reflect.TypeOf(stringOps{}), reflect.ValueOf(stringOps{}),
	)
}

// mathOps exposes common numeric helpers as static members of the Math
// alias.
type mathOps struct{}

func (mathOps) Abs(x float64) float64   { return math.Abs(x) }
func (mathOps) Ceil(x float64) float64  { return math.Ceil(x) }
func (mathOps) Floor(x float64) float64 { return math.Floor(x) }
func (mathOps) Round(x float64) float64 { return math.Round(x) }
func (mathOps) Sqrt(x float64) float64  { return math.Sqrt(x) }

func (mathOps) Max(x, y float64) float64    { return math.Max(x, y) }
func (mathOps) Min(x, y float64) float64    { return math.Min(x, y) }
func (mathOps) Pow(x, y float64) float64    { return math.Pow(x, y) }
func (mathOps) Mod(x, y float64) float64    { return math.Mod(x, y) }
func (mathOps) Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// convertOps exposes value conversions as static members of the Convert
// alias.
type convertOps struct{}

func (convertOps) ToString(v any) string { return fmt.Sprint(v) }

func (convertOps) ToInt(v any) (int, error) {
	switch x := v.(type) {
	case string:
		return strconv.Atoi(x)
	default:
		out, err := reflectx.Convert(v, reflect.TypeOf(int(0)))
		if err != nil {
			return 0, err
		}

		return out.(int), nil
	}
}

func (convertOps) ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		out, err := reflectx.Convert(v, reflect.TypeOf(float64(0)))
		if err != nil {
			return 0, err
		}

		return out.(float64), nil
	}
}

func (convertOps) ToBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	default:
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
}

// stringOps exposes string helpers as static members of the Strings
// alias and, through extension harvesting, as instance-style methods on
// string receivers.
type stringOps struct{}

func (stringOps) Contains(s, sub string) bool   { return strings.Contains(s, sub) }
func (stringOps) EndsWith(s, sub string) bool   { return strings.HasSuffix(s, sub) }
func (stringOps) StartsWith(s, sub string) bool { return strings.HasPrefix(s, sub) }
func (stringOps) IndexOf(s, sub string) int     { return strings.Index(s, sub) }
func (stringOps) ToLower(s string) string       { return strings.ToLower(s) }
func (stringOps) ToUpper(s string) string       { return strings.ToUpper(s) }
func (stringOps) Trim(s string) string          { return strings.TrimSpace(s) }
func (stringOps) Len(s string) int              { return len(s) }

func (stringOps) Split(s, sep string) []string { return strings.Split(s, sep) }

func (stringOps) Join(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

func (stringOps) Replace(s, old, new string) string {
	return strings.ReplaceAll(s, old, new)
}
