package lang

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/dynexpr/dynexpr/lang/ast"
)

// Visitor is a tree-to-tree transformer applied post-parse, pre-compile.
// Visitors run in insertion order; two visitors with the same name are
// de-duplicated, keeping the first.
type Visitor interface {
	// Name identifies the visitor for de-duplication and removal.
	Name() string

	// Visit rewrites or validates one node. Returning the node
	// unchanged is the identity rewrite; returning an error aborts the
	// parse.
	Visit(ast.Node) (ast.Node, error)
}

// AddVisitor appends a visitor to the pipeline. A visitor whose name is
// already present is ignored.
func (i *Interpreter) AddVisitor(v Visitor) {
	for _, have := range i.visitors {
		if have.Name() == v.Name() {
			return
		}
	}

	i.visitors = append(i.visitors, v)
	i.settings.gen++
}

// RemoveVisitor removes the named visitor from the pipeline.
func (i *Interpreter) RemoveVisitor(name string) {
	kept := i.visitors[:0]

	for _, v := range i.visitors {
		if v.Name() != name {
			kept = append(kept, v)
		}
	}

	i.visitors = kept
	i.settings.gen++
}

// EnableReflection removes the default visitor that forbids expressions
// from reaching the host's introspection surface.
func (i *Interpreter) EnableReflection() {
	i.RemoveVisitor(disableReflectionName)
}

// applyVisitors runs the pipeline over the tree in insertion order.
func (i *Interpreter) applyVisitors(root ast.Node) (ast.Node, error) {
	for _, v := range i.visitors {
		out, err := ast.Rewrite(root, v.Visit)
		if err != nil {
			i.logger.Trace("visitor rejected expression",
				slog.String("visitor", v.Name()),
				slog.String("error", err.Error()),
			)

			return nil, err
		}

		root = out
	}

	return root, nil
}

const disableReflectionName = "disable-reflection"

// reflectTypeType is the static type of typeof(...) expressions.
var reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

var reflectValueType = reflect.TypeOf(reflect.Value{})

// disableReflection fails binding when a tree references the host's
// introspection surface: typeof results, reflect values, or members of
// package reflect.
type disableReflection struct{}

func (disableReflection) Name() string { return disableReflectionName }

func (disableReflection) Visit(n ast.Node) (ast.Node, error) {
	switch v := n.(type) {
	case *ast.TypeOf:
		return nil, ErrReflectionBlocked

	case *ast.Constant:
		if blockedType(v.T) {
			return nil, ErrReflectionBlocked
		}

	case *ast.Member:
		if blockedType(v.T) || blockedType(v.Target.Type()) {
			return nil, ErrReflectionBlocked
		}

	case *ast.MethodCall:
		if blockedType(v.T) || blockedType(v.Target.Type()) {
			return nil, ErrReflectionBlocked
		}

	case *ast.StaticCall:
		if blockedType(v.T) {
			return nil, ErrReflectionBlocked
		}

	case *ast.Call:
		if blockedType(v.T) {
			return nil, ErrReflectionBlocked
		}
	}

	return n, nil
}

// blockedType reports whether a type belongs to the introspection
// surface.
func blockedType(t reflect.Type) bool {
	if t == nil {
		return false
	}

	if t == reflectTypeType || t == reflectValueType {
		return true
	}

	return t.PkgPath() == "reflect" ||
		strings.HasPrefix(t.String(), "reflect.")
}
