package ast

import (
	"reflect"
	"testing"

	"github.com/dynexpr/dynexpr/lang/token"
)

func TestNodeTypes(t *testing.T) {
	intT := reflect.TypeOf(0)

	c := &Constant{Value: 1, T: intT}
	p := &Param{Name: "x", T: intT}

	tests := []struct {
		name string
		node Node
		want reflect.Type
	}{
		{"constant", c, intT},
		{"param", p, intT},
		{"binary", &Binary{Op: token.Plus, Left: c, Right: p, T: intT}, intT},
		{"conditional", &Conditional{Cond: c, Then: c, Else: p, T: intT}, intT},
		{"convert", &Convert{Operand: c, T: reflect.TypeOf(int64(0))}, reflect.TypeOf(int64(0))},
		{"is", &Is{Operand: c, Target: intT}, BoolType},
		{"dynamic get", &DynamicGet{Target: p, Name: "Foo"}, AnyType},
		{"dynamic call", &DynamicCall{Target: p, Name: "Foo"}, AnyType},
		{"assign", &Assign{Target: p, Value: c}, intT},
		{"lambda", &Lambda{Body: c}, intT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Type(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRewrite_ReplacesChildren(t *testing.T) {
	intT := reflect.TypeOf(0)

	tree := &Binary{
		Op:    token.Plus,
		Left:  &Constant{Value: 1, T: intT},
		Right: &Binary{
			Op:    token.Star,
			Left:  &Constant{Value: 2, T: intT},
			Right: &Constant{Value: 3, T: intT},
			T:     intT,
		},
		T: intT,
	}

	out, err := Rewrite(tree, func(n Node) (Node, error) {
		c, ok := n.(*Constant)
		if !ok {
			return n, nil
		}

		return &Constant{Value: c.Value.(int) + 1, T: c.T}, nil
	})
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	root := out.(*Binary)
	if root == tree {
		t.Errorf("changed tree must be a copy")
	}

	if root.Left.(*Constant).Value != 2 {
		t.Errorf("expected left constant rewritten")
	}

	inner := root.Right.(*Binary)
	if inner.Left.(*Constant).Value != 3 || inner.Right.(*Constant).Value != 4 {
		t.Errorf("expected nested constants rewritten")
	}
}

func TestRewrite_IdentitySharesNodes(t *testing.T) {
	intT := reflect.TypeOf(0)

	tree := &Binary{
		Op:    token.Plus,
		Left:  &Constant{Value: 1, T: intT},
		Right: &Constant{Value: 2, T: intT},
		T:     intT,
	}

	out, err := Rewrite(tree, func(n Node) (Node, error) { return n, nil })
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	if out != Node(tree) {
		t.Errorf("identity rewrite must return the original node")
	}
}

func TestWalk_VisitsAllNodes(t *testing.T) {
	intT := reflect.TypeOf(0)

	tree := &Conditional{
		Cond: &Constant{Value: true, T: BoolType},
		Then: &Constant{Value: 1, T: intT},
		Else: &Constant{Value: 2, T: intT},
		T:    intT,
	}

	count := 0

	if err := Walk(tree, func(Node) error {
		count++

		return nil
	}); err != nil {
		t.Fatalf("walk error: %v", err)
	}

	if count != 4 {
		t.Errorf("expected 4 nodes visited, got %d", count)
	}
}
