package lang

import (
	"errors"
	"sort"
	"testing"
)

// bag is a plain dynamic property bag.
type bag struct {
	members map[string]any
}

func (b bag) DynamicMember(name string) (any, bool) {
	v, ok := b.members[name]

	return v, ok
}

func (b bag) DynamicMemberNames() []string {
	names := make([]string, 0, len(b.members))
	for name := range b.members {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// hybrid exposes both static members and a dynamic surface.
type hybrid struct {
	RealProperty string

	members map[string]any
}

func (h hybrid) DynamicMember(name string) (any, bool) {
	v, ok := h.members[name]

	return v, ok
}

func (h hybrid) DynamicMemberNames() []string { return nil }

func (h hybrid) ToString() string { return "hybrid:" + h.RealProperty }

func TestDynamic_PropertyRead(t *testing.T) {
	interp := New()

	dyn := bag{members: map[string]any{"Foo": "bar"}}

	out, err := interp.Eval("dyn.Foo", NewParameter("dyn", dyn))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != "bar" {
		t.Errorf("expected bar, got %v", out)
	}
}

func TestDynamic_NestedProperty(t *testing.T) {
	interp := New()

	dyn := bag{members: map[string]any{
		"Sub": bag{members: map[string]any{"Foo": "bar"}},
	}}

	out, err := interp.Eval("dyn.Sub.Foo", NewParameter("dyn", dyn))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != "bar" {
		t.Errorf("expected bar, got %v", out)
	}
}

func TestDynamic_StaticPrecedence(t *testing.T) {
	interp := New()

	// The dynamic surface also carries RealProperty: the static member
	// must win without the bag being consulted.
	dyn := hybrid{
		RealProperty: "bar",
		members:      map[string]any{"RealProperty": "wrong"},
	}

	out, err := interp.Eval("dyn.RealProperty", NewParameter("dyn", dyn))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != "bar" {
		t.Errorf("expected static value bar, got %v", out)
	}
}

func TestDynamic_MethodInvocation(t *testing.T) {
	interp := New()

	dyn := bag{members: map[string]any{
		"Foo": func() string { return "bar" },
	}}

	out, err := interp.Eval("dyn.Foo()", NewParameter("dyn", dyn))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != "bar" {
		t.Errorf("expected bar, got %v", out)
	}
}

func TestDynamic_MethodWithArgs(t *testing.T) {
	interp := New()

	dyn := bag{members: map[string]any{
		"Add": func(a, b int) int { return a + b },
	}}

	out, err := interp.Eval("dyn.Add(2, 3)", NewParameter("dyn", dyn))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != 5 {
		t.Errorf("expected 5, got %v", out)
	}
}

func TestDynamic_StaticMethodPrecedence(t *testing.T) {
	interp := New()

	dyn := hybrid{
		RealProperty: "x",
		members: map[string]any{
			"ToString": func() string { return "wrong" },
		},
	}

	out, err := interp.Eval("dyn.ToString()", NewParameter("dyn", dyn))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != "hybrid:x" {
		t.Errorf("expected host method result, got %v", out)
	}
}

func TestDynamic_CaseMismatch(t *testing.T) {
	tests := []struct {
		name   string
		interp *Interpreter
	}{
		{"case-sensitive interpreter", New()},
		{"case-insensitive interpreter", New(WithCaseInsensitive())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dyn := bag{members: map[string]any{"Bar": 10}}

			_, err := tt.interp.Eval("dyn.BAR", NewParameter("dyn", dyn))
			if err == nil {
				t.Fatalf("expected dynamic binding failure")
			}

			dbe := &DynamicBindingError{}
			if !errors.As(err, &dbe) {
				t.Fatalf("expected DynamicBindingError, got %T: %v", err, err)
			}

			if dbe.Name != "BAR" {
				t.Errorf("expected failed name BAR, got %q", dbe.Name)
			}
		})
	}
}

func TestDynamic_MissingMember(t *testing.T) {
	interp := New()

	dyn := bag{members: map[string]any{}}

	_, err := interp.Eval("dyn.Anything", NewParameter("dyn", dyn))

	dbe := &DynamicBindingError{}
	if !errors.As(err, &dbe) {
		t.Fatalf("expected DynamicBindingError, got %T: %v", err, err)
	}
}

func TestDynamic_AssignmentStaysClosed(t *testing.T) {
	interp := New()

	dyn := bag{members: map[string]any{"Foo": 1}}

	_, err := interp.Eval("dyn.Foo = 2", NewParameter("dyn", dyn))
	if err == nil {
		t.Fatalf("expected assignment to dynamic member to fail")
	}

	pe := &ParseError{}
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %T", err)
	}
}
