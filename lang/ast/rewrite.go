package ast

// Rewriter transforms a single node. Returning the node unchanged is the
// identity rewrite.
type Rewriter func(Node) (Node, error)

// Rewrite applies f to every node of the tree in post-order: children are
// rewritten before their parent sees them. Nodes are treated as immutable;
// a node whose children changed is replaced by a shallow copy.
func Rewrite(n Node, f Rewriter) (Node, error) {
	if n == nil {
		return nil, nil
	}

	out, err := rewriteChildren(n, f)
	if err != nil {
		return nil, err
	}

	return f(out)
}

// rewriteList rewrites each node of a list, sharing the backing array when
// nothing changed.
func rewriteList(nodes []Node, f Rewriter) ([]Node, bool, error) {
	var out []Node

	for i, n := range nodes {
		r, err := Rewrite(n, f)
		if err != nil {
			return nil, false, err
		}

		if out == nil && r != n {
			out = make([]Node, len(nodes))
			copy(out, nodes[:i])
		}

		if out != nil {
			out[i] = r
		}
	}

	if out == nil {
		return nodes, false, nil
	}

	return out, true, nil
}

//nolint:gocyclo // one arm per node kind
func rewriteChildren(n Node, f Rewriter) (Node, error) {
	switch v := n.(type) {
	case *Member:
		t, err := Rewrite(v.Target, f)
		if err != nil {
			return nil, err
		}

		if t != v.Target {
			c := *v
			c.Target = t

			return &c, nil
		}

	case *MethodCall:
		t, err := Rewrite(v.Target, f)
		if err != nil {
			return nil, err
		}

		args, changed, err := rewriteList(v.Args, f)
		if err != nil {
			return nil, err
		}

		if t != v.Target || changed {
			c := *v
			c.Target = t
			c.Args = args

			return &c, nil
		}

	case *StaticCall:
		args, changed, err := rewriteList(v.Args, f)
		if err != nil {
			return nil, err
		}

		if changed {
			c := *v
			c.Args = args

			return &c, nil
		}

	case *Call:
		callee, err := Rewrite(v.Callee, f)
		if err != nil {
			return nil, err
		}

		args, changed, err := rewriteList(v.Args, f)
		if err != nil {
			return nil, err
		}

		if callee != v.Callee || changed {
			c := *v
			c.Callee = callee
			c.Args = args

			return &c, nil
		}

	case *Binary:
		l, err := Rewrite(v.Left, f)
		if err != nil {
			return nil, err
		}

		r, err := Rewrite(v.Right, f)
		if err != nil {
			return nil, err
		}

		if l != v.Left || r != v.Right {
			c := *v
			c.Left, c.Right = l, r

			return &c, nil
		}

	case *Unary:
		o, err := Rewrite(v.Operand, f)
		if err != nil {
			return nil, err
		}

		if o != v.Operand {
			c := *v
			c.Operand = o

			return &c, nil
		}

	case *Conditional:
		cond, err := Rewrite(v.Cond, f)
		if err != nil {
			return nil, err
		}

		then, err := Rewrite(v.Then, f)
		if err != nil {
			return nil, err
		}

		els, err := Rewrite(v.Else, f)
		if err != nil {
			return nil, err
		}

		if cond != v.Cond || then != v.Then || els != v.Else {
			c := *v
			c.Cond, c.Then, c.Else = cond, then, els

			return &c, nil
		}

	case *Convert:
		o, err := Rewrite(v.Operand, f)
		if err != nil {
			return nil, err
		}

		if o != v.Operand {
			c := *v
			c.Operand = o

			return &c, nil
		}

	case *Is:
		o, err := Rewrite(v.Operand, f)
		if err != nil {
			return nil, err
		}

		if o != v.Operand {
			c := *v
			c.Operand = o

			return &c, nil
		}

	case *As:
		o, err := Rewrite(v.Operand, f)
		if err != nil {
			return nil, err
		}

		if o != v.Operand {
			c := *v
			c.Operand = o

			return &c, nil
		}

	case *Index:
		t, err := Rewrite(v.Target, f)
		if err != nil {
			return nil, err
		}

		k, err := Rewrite(v.Key, f)
		if err != nil {
			return nil, err
		}

		if t != v.Target || k != v.Key {
			c := *v
			c.Target, c.Key = t, k

			return &c, nil
		}

	case *DynamicGet:
		t, err := Rewrite(v.Target, f)
		if err != nil {
			return nil, err
		}

		if t != v.Target {
			c := *v
			c.Target = t

			return &c, nil
		}

	case *DynamicCall:
		t, err := Rewrite(v.Target, f)
		if err != nil {
			return nil, err
		}

		args, changed, err := rewriteList(v.Args, f)
		if err != nil {
			return nil, err
		}

		if t != v.Target || changed {
			c := *v
			c.Target = t
			c.Args = args

			return &c, nil
		}

	case *Assign:
		t, err := Rewrite(v.Target, f)
		if err != nil {
			return nil, err
		}

		val, err := Rewrite(v.Value, f)
		if err != nil {
			return nil, err
		}

		if t != v.Target || val != v.Value {
			c := *v
			c.Target, c.Value = t, val

			return &c, nil
		}

	case *Lambda:
		b, err := Rewrite(v.Body, f)
		if err != nil {
			return nil, err
		}

		if b != v.Body {
			c := *v
			c.Body = b

			return &c, nil
		}
	}

	return n, nil
}

// Walk calls f for every node of the tree, children before parents.
// Traversal stops at the first error.
func Walk(n Node, f func(Node) error) error {
	_, err := Rewrite(n, func(m Node) (Node, error) {
		return m, f(m)
	})

	return err
}
