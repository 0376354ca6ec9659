package reflectx

import (
	"errors"
	"reflect"
	"testing"
)

func fnCandidate(name string, fn any) Candidate {
	return Candidate{
		Name: name,
		Fn:   reflect.ValueOf(fn),
		Sig:  reflect.TypeOf(fn),
	}
}

func argTypes(types ...reflect.Type) []Arg {
	out := make([]Arg, len(types))
	for i, t := range types {
		out[i] = Arg{Type: t}
	}

	return out
}

func TestResolve_ExactBeatsWidening(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(x float64) string { return "float" }),
		fnCandidate("f", func(x int) string { return "int" }),
	}

	m, err := Resolve("f", cands, argTypes(intT))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if m.Candidate.Sig.In(0) != intT {
		t.Errorf("expected exact int overload, got %s", m.Candidate.Sig)
	}
}

func TestResolve_WideningApplies(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(x float64) string { return "float" }),
	}

	m, err := Resolve("f", cands, argTypes(intT))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if m.ParamTypes[0] != float64T {
		t.Errorf("expected conversion target float64, got %s", m.ParamTypes[0])
	}
}

func TestResolve_FixedBeatsVariadic(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(x, y int) int { return 0 }),
		fnCandidate("f", func(xs ...int) int { return 1 }),
	}

	m, err := Resolve("f", cands, argTypes(intT, intT))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if m.Candidate.Sig.IsVariadic() {
		t.Errorf("expected fixed-arity overload to win")
	}
}

func TestResolve_VariadicExpansion(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(xs ...int) int { return 0 }),
	}

	m, err := Resolve("f", cands, argTypes(intT, intT, intT))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if !m.Variadic {
		t.Errorf("expected variadic expansion")
	}

	if len(m.ParamTypes) != 3 {
		t.Errorf("expected 3 parameter targets, got %d", len(m.ParamTypes))
	}
}

func TestResolve_SlicePassThrough(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(xs ...int) int { return 0 }),
	}

	m, err := Resolve("f", cands, argTypes(reflect.TypeOf([]int{})))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if !m.CallSlice {
		t.Errorf("expected slice pass-through")
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(x int64) int { return 0 }),
		fnCandidate("f", func(x float64) int { return 1 }),
	}

	_, err := Resolve("f", cands, argTypes(intT))
	if !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestResolve_NoApplicable(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(x string) int { return 0 }),
	}

	_, err := Resolve("f", cands, argTypes(intT))
	if !errors.Is(err, ErrNoApplicable) {
		t.Errorf("expected ErrNoApplicable, got %v", err)
	}
}

func TestResolve_NullArgument(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func(p *int) int { return 0 }),
	}

	if _, err := Resolve("f", cands, []Arg{{IsNull: true}}); err != nil {
		t.Errorf("null must bind to a nilable parameter: %v", err)
	}

	cands = []Candidate{
		fnCandidate("f", func(p int) int { return 0 }),
	}

	if _, err := Resolve("f", cands, []Arg{{IsNull: true}}); err == nil {
		t.Errorf("null must not bind to a value parameter")
	}
}

func TestResolve_ErrorResult(t *testing.T) {
	cands := []Candidate{
		fnCandidate("f", func() (int, error) { return 0, nil }),
	}

	m, err := Resolve("f", cands, nil)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if !m.ErrResult || m.Result != intT {
		t.Errorf("expected int result with error propagation")
	}
}

func TestMethodSig(t *testing.T) {
	method, ok := reflect.TypeOf(dummy{}).MethodByName("Scale")
	if !ok {
		t.Fatalf("method not found")
	}

	sig := MethodSig(method)
	if sig.NumIn() != 1 || sig.In(0) != float64T {
		t.Errorf("expected receiver stripped, got %s", sig)
	}
}

type dummy struct{}

func (dummy) Scale(f float64) float64 { return f }
