package lang

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func evalOne(t *testing.T, interp *Interpreter, input string, params ...Parameter) any {
	t.Helper()

	out, err := interp.Eval(input, params...)
	if err != nil {
		t.Fatalf("eval %q: %v", input, err)
	}

	return out
}

func TestEval_Arithmetic(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  any
	}{
		{"1 + 2", 3},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"7 / 2", 3},
		{"7 % 2", 1},
		{"10 - 4 - 3", 3},
		{"2.5 + 1", 3.5},
		{"10 / 4.0", 2.5},
		{"1 + 2L", int64(3)},
		{"-5 + 2", -3},
		{"+5", 5},
		{"2.5f + 0.5f", float32(3)},
		{"7.5 % 2", 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if out := evalOne(t, interp, tt.input); out != tt.want {
				t.Errorf("expected %T(%v), got %T(%v)", tt.want, tt.want, out, out)
			}
		})
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	interp := New()

	_, err := interp.Eval("1 / 0")
	if err == nil {
		t.Fatalf("expected division by zero error")
	}

	ie := &InvocationError{}
	if !errors.As(err, &ie) {
		t.Errorf("expected InvocationError, got %T", err)
	}
}

func TestEval_Decimal(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  string
	}{
		{"0.1m + 0.2m", "0.3"},
		{"1.5m * 2", "3"},
		{"10m / 4", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := evalOne(t, interp, tt.input)

			d, ok := out.(decimal.Decimal)
			if !ok {
				t.Fatalf("expected decimal.Decimal, got %T", out)
			}

			if d.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, d)
			}
		})
	}

	if out := evalOne(t, interp, "0.1m + 0.2m == 0.3m"); out != true {
		t.Errorf("decimal equality should be exact")
	}
}

func TestEval_Strings(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  any
	}{
		{`"a" + "b"`, "ab"},
		{`"n=" + 5`, "n=5"},
		{`"abc" == "abc"`, true},
		{`"abc" < "abd"`, true},
		{`"hello"[1]`, byte('e')},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if out := evalOne(t, interp, tt.input); out != tt.want {
				t.Errorf("expected %T(%v), got %T(%v)", tt.want, tt.want, out, out)
			}
		})
	}
}

func TestEval_Comparisons(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"4 >= 4", true},
		{"1 == 1.0", true},
		{"1 != 2", true},
		{"1 == 2 || 3 > 2", true},
		{"true && false", false},
		{"!false", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if out := evalOne(t, interp, tt.input); out != tt.want {
				t.Errorf("expected %v, got %v", tt.want, out)
			}
		})
	}
}

func TestEval_ShortCircuit(t *testing.T) {
	interp := New()

	calls := 0

	err := interp.SetFunction("boom", func() bool {
		calls++

		return true
	})
	if err != nil {
		t.Fatalf("SetFunction: %v", err)
	}

	if out := evalOne(t, interp, "false && boom()"); out != false {
		t.Errorf("expected false, got %v", out)
	}

	if out := evalOne(t, interp, "true || boom()"); out != true {
		t.Errorf("expected true, got %v", out)
	}

	if calls != 0 {
		t.Errorf("short-circuit operands were evaluated %d times", calls)
	}
}

func TestEval_Bitwise(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  any
	}{
		{"6 & 3", 2},
		{"6 | 3", 7},
		{"6 ^ 3", 5},
		{"~0", -1},
		{"1 << 4", 16},
		{"256 >> 4", 16},
		{"true & false", false},
		{"true | false", true},
		{"true ^ true", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if out := evalOne(t, interp, tt.input); out != tt.want {
				t.Errorf("expected %T(%v), got %T(%v)", tt.want, tt.want, out, out)
			}
		})
	}
}

func TestEval_Conditional(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  any
	}{
		{"true ? 1 : 2", 1},
		{`1 > 2 ? "a" : "b"`, "b"},
		{"false ? 1 : 2.5", 2.5},
		{"true ? 1 : 2 + 3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if out := evalOne(t, interp, tt.input); out != tt.want {
				t.Errorf("expected %T(%v), got %T(%v)", tt.want, tt.want, out, out)
			}
		})
	}

	if _, err := interp.Eval(`true ? 1 : "s"`); err == nil {
		t.Errorf("expected no-common-type error")
	}
}

func TestEval_Coalesce(t *testing.T) {
	interp := New()

	var nilStr *string

	s := "set"

	out := evalOne(t, interp, `p ?? q`,
		Parameter{Name: "p", Type: reflect.TypeOf(nilStr)},
		Parameter{Name: "q", Type: reflect.TypeOf(&s), Value: &s},
	)
	if out == nil || *(out.(*string)) != "set" {
		t.Errorf("expected fallback to q, got %v", out)
	}

	out = evalOne(t, interp, `p ?? q`,
		Parameter{Name: "p", Type: reflect.TypeOf(&s), Value: &s},
		Parameter{Name: "q", Type: reflect.TypeOf(&s), Value: nil},
	)
	if out == nil || *(out.(*string)) != "set" {
		t.Errorf("expected non-null left operand, got %v", out)
	}
}

func TestEval_NullEquality(t *testing.T) {
	interp := New()

	var p *int

	tests := []struct {
		input string
		want  bool
	}{
		{"null == null", true},
		{"p == null", true},
		{"p != null", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := evalOne(t, interp, tt.input,
				Parameter{Name: "p", Type: reflect.TypeOf(p)},
			)
			if out != tt.want {
				t.Errorf("expected %v, got %v", tt.want, out)
			}
		})
	}

	if _, err := interp.Eval("1 == null"); err == nil {
		t.Errorf("value types can never be null")
	}
}

func TestEval_Indexing(t *testing.T) {
	interp := New()

	params := []Parameter{
		NewParameter("m", map[string]int{"a": 1}),
		NewParameter("s", []int{10, 20, 30}),
	}

	if out := evalOne(t, interp, `m["a"]`, params...); out != 1 {
		t.Errorf("map index: expected 1, got %v", out)
	}

	if out := evalOne(t, interp, "s[2]", params...); out != 30 {
		t.Errorf("slice index: expected 30, got %v", out)
	}

	if out := evalOne(t, interp, `m["missing"]`, params...); out != 0 {
		t.Errorf("missing key: expected zero value, got %v", out)
	}

	if _, err := interp.Eval("s[9]", params...); err == nil {
		t.Errorf("expected out-of-range error")
	}
}

func TestEval_MembersAndMethods(t *testing.T) {
	interp := New()

	type inner struct {
		Label string
	}

	type outer struct {
		Value int
		Inner inner
	}

	params := []Parameter{
		NewParameter("o", outer{Value: 7, Inner: inner{Label: "deep"}}),
		NewParameter("s", "hello world"),
	}

	if out := evalOne(t, interp, "o.Value + 1", params...); out != 8 {
		t.Errorf("field access: expected 8, got %v", out)
	}

	if out := evalOne(t, interp, "o.Inner.Label", params...); out != "deep" {
		t.Errorf("nested field: expected deep, got %v", out)
	}

	// Extension methods contributed by the Strings helper.
	if out := evalOne(t, interp, `s.Contains("world")`, params...); out != true {
		t.Errorf("extension method: expected true, got %v", out)
	}

	if out := evalOne(t, interp, "s.ToUpper()", params...); out != "HELLO WORLD" {
		t.Errorf("extension method: expected upper case, got %v", out)
	}

	// The same helpers as static members of their alias.
	if out := evalOne(t, interp, `Strings.Len("abc")`); out != 3 {
		t.Errorf("static member: expected 3, got %v", out)
	}

	if out := evalOne(t, interp, "Convert.ToString(42)"); out != "42" {
		t.Errorf("Convert.ToString: expected \"42\", got %v", out)
	}
}

func TestEval_Functions(t *testing.T) {
	interp := New()

	if err := interp.SetFunction("add", func(a, b int) int { return a + b }); err != nil {
		t.Fatalf("SetFunction: %v", err)
	}

	if err := interp.SetFunction("sum", func(xs ...int) int {
		total := 0
		for _, x := range xs {
			total += x
		}

		return total
	}); err != nil {
		t.Fatalf("SetFunction: %v", err)
	}

	if err := interp.SetFunction("upper", strings.ToUpper); err != nil {
		t.Fatalf("SetFunction: %v", err)
	}

	if out := evalOne(t, interp, "add(1, 2)"); out != 3 {
		t.Errorf("add: expected 3, got %v", out)
	}

	if out := evalOne(t, interp, "sum(1, 2, 3, 4)"); out != 10 {
		t.Errorf("variadic: expected 10, got %v", out)
	}

	if out := evalOne(t, interp, "sum()"); out != 0 {
		t.Errorf("variadic empty: expected 0, got %v", out)
	}

	if out := evalOne(t, interp, `upper("abc")`); out != "ABC" {
		t.Errorf("upper: expected ABC, got %v", out)
	}

	if out := evalOne(t, interp, "add(add(1, 2), 3)"); out != 6 {
		t.Errorf("nested call: expected 6, got %v", out)
	}

	if _, err := interp.Eval("add(1)"); err == nil {
		t.Errorf("expected argument mismatch error")
	}
}

func TestEval_CastsAndTypeTests(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  any
	}{
		{"(long)1", int64(1)},
		{"(int)2.9", 2},
		{"(double)3", 3.0},
		{"1 is int", true},
		{"1 is long", false},
		{`"s" is string`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if out := evalOne(t, interp, tt.input); out != tt.want {
				t.Errorf("expected %T(%v), got %T(%v)", tt.want, tt.want, out, out)
			}
		})
	}

	anyType := reflect.TypeOf((*any)(nil)).Elem()

	out := evalOne(t, interp, "o as object",
		Parameter{Name: "o", Type: anyType, Value: "boxed"},
	)
	if out != "boxed" {
		t.Errorf("as: expected boxed, got %v", out)
	}

	out = evalOne(t, interp, `(o as object) ?? "fallback"`,
		Parameter{Name: "o", Type: anyType, Value: nil},
	)
	if out != "fallback" {
		t.Errorf("as miss: expected fallback, got %v", out)
	}

	if _, err := interp.Eval("1 as int"); err == nil {
		t.Errorf("as requires a nullable target type")
	}
}

func TestEval_Assignment(t *testing.T) {
	interp := New()

	out := evalOne(t, interp, "x = 5", NewParameter("x", 0))
	if out != 5 {
		t.Errorf("assignment yields assigned value, got %v", out)
	}

	type box struct {
		N int
	}

	b := &box{N: 1}

	out = evalOne(t, interp, "target.N = 9", NewParameter("target", b))
	if out != 9 || b.N != 9 {
		t.Errorf("field assignment: expected 9, got %v (field %d)", out, b.N)
	}

	m := map[string]int{}

	_ = evalOne(t, interp, `m["k"] = 3`, NewParameter("m", m))
	if m["k"] != 3 {
		t.Errorf("map assignment: expected 3, got %d", m["k"])
	}
}

func TestEval_AssignmentDisabled(t *testing.T) {
	interp := New()
	interp.EnableAssignment(AssignNone)

	_, err := interp.Eval("x = 5", NewParameter("x", 0))
	if err == nil {
		t.Fatalf("expected assignment-disabled error")
	}

	pe := &ParseError{}
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %T", err)
	}
}

func TestEval_AssignToConstantIdentifier(t *testing.T) {
	interp := New()

	if err := interp.SetVariable("k", 1); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	if _, err := interp.Eval("k = 2"); err == nil {
		t.Errorf("expected assignment to constant to fail")
	}
}

func TestEval_UnknownIdentifier(t *testing.T) {
	interp := New()

	_, err := interp.Eval("nosuch + 1")
	if err == nil {
		t.Fatalf("expected unknown identifier error")
	}

	pe := &ParseError{}
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}

	if pe.Pos != 0 {
		t.Errorf("expected position 0, got %d", pe.Pos)
	}

	if !strings.Contains(pe.Error(), "^") {
		t.Errorf("expected caret marker in %q", pe.Error())
	}
}

func TestEval_ExpectedType(t *testing.T) {
	interp := New()

	out, err := interp.EvalAs("1 + 2", reflect.TypeOf(int64(0)))
	if err != nil {
		t.Fatalf("EvalAs: %v", err)
	}

	if out != int64(3) {
		t.Errorf("expected int64(3), got %T(%v)", out, out)
	}

	if _, err := interp.EvalAs(`"s"`, reflect.TypeOf(0)); err == nil {
		t.Errorf("expected conversion failure for string to int")
	}
}
