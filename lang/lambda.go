package lang

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/reflectx"
)

// Lambda is the immutable bundle of a bound expression tree plus its
// compiled callable. A Lambda is safe for concurrent Invoke calls.
type Lambda struct {
	text       string
	root       *ast.Lambda
	declared   []*ast.Param
	used       []*ast.Param
	usedTypes  []string
	usedIdents []string
	program    thunk
}

// Text returns the original expression text.
func (l *Lambda) Text() string { return l.text }

// String renders the bound tree back to canonical expression text.
func (l *Lambda) String() string { return ast.Print(l.root) }

// ReturnType returns the static type inferred for the expression's root.
func (l *Lambda) ReturnType() reflect.Type { return l.root.Type() }

// DeclaredParameters returns the parameters declared at parse time, in
// declaration order.
func (l *Lambda) DeclaredParameters() []Parameter {
	return paramList(l.declared)
}

// UsedParameters returns the subset of declared parameters the
// expression actually references, in declaration order.
func (l *Lambda) UsedParameters() []Parameter {
	return paramList(l.used)
}

// UsedTypes returns the registered type aliases the expression
// references.
func (l *Lambda) UsedTypes() []string { return l.usedTypes }

// UsedIdentifiers returns the registered identifiers the expression
// references.
func (l *Lambda) UsedIdentifiers() []string { return l.usedIdents }

func paramList(in []*ast.Param) []Parameter {
	out := make([]Parameter, len(in))
	for i, p := range in {
		out[i] = Parameter{Name: p.Name, Type: p.T}
	}

	return out
}

// Invoke executes the compiled expression with one argument per declared
// parameter, in declaration order. The original error raised by host
// code propagates unchanged as the cause of the returned
// InvocationError; panics raised by host code are recovered and reported
// the same way.
func (l *Lambda) Invoke(args ...any) (result any, err error) {
	if len(args) != len(l.declared) {
		return nil, ErrParamCount.With(
			slog.Int("declared", len(l.declared)),
			slog.Int("got", len(args)),
		)
	}

	defer func() {
		if r := recover(); r != nil {
			if cause, ok := r.(error); ok {
				err = &InvocationError{Expression: l.text, Err: cause}

				return
			}

			err = &InvocationError{
				Expression: l.text,
				Err:        fmt.Errorf("%v", r),
			}
		}
	}()

	a := &activation{slots: make([]any, len(args))}

	for i, arg := range args {
		v, cerr := coerceArg(arg, l.declared[i].T)
		if cerr != nil {
			return nil, ErrParamCount.Wrap(cerr).With(
				slog.String("parameter", l.declared[i].Name),
			)
		}

		a.slots[i] = v
	}

	result, err = l.program(a)
	if err != nil {
		// Dynamic binding failures surface as themselves; everything
		// else keeps its original cause inside an InvocationError.
		switch err.(type) {
		case *DynamicBindingError, *InvocationError:
			return nil, err
		default:
			return nil, &InvocationError{Expression: l.text, Err: err}
		}
	}

	return result, nil
}

// coerceArg widens an argument to its declared parameter type.
func coerceArg(arg any, want reflect.Type) (any, error) {
	if arg == nil || want == ast.AnyType {
		return arg, nil
	}

	if reflect.TypeOf(arg) == want {
		return arg, nil
	}

	return reflectx.Convert(arg, want)
}

// Bind produces a statically-typed callable matching the delegate shape
// pointed to by fnptr: same return type and parameter types as the
// lambda, parameters bound positionally in declaration order.
//
//	var fn func(int, int) int
//	if err := l.Bind(&fn); err != nil { ... }
//	sum := fn(1, 2)
func (l *Lambda) Bind(fnptr any) error {
	pv := reflect.ValueOf(fnptr)
	if !pv.IsValid() || pv.Kind() != reflect.Ptr ||
		pv.Elem().Kind() != reflect.Func {
		return ErrDelegateShape.With(
			slog.String("reason", "fnptr must point to a func"),
		)
	}

	ft := pv.Elem().Type()

	if ft.NumIn() != len(l.declared) {
		return ErrDelegateShape.With(
			slog.Int("declared", len(l.declared)),
			slog.Int("delegate", ft.NumIn()),
		)
	}

	for i := range ft.NumIn() {
		if reflectx.Classify(ft.In(i), l.declared[i].T) == reflectx.NoConversion &&
			l.declared[i].T != ast.AnyType {
			return ErrDelegateShape.With(
				slog.String("parameter", l.declared[i].Name),
				slog.String("want", l.declared[i].T.String()),
				slog.String("delegate", ft.In(i).String()),
			)
		}
	}

	wantErr := ft.NumOut() == 2 && ft.Out(1) == errType
	if ft.NumOut() != 1 && !wantErr {
		return ErrDelegateShape.With(
			slog.String("reason", "delegate must return (T) or (T, error)"),
		)
	}

	retType := ft.Out(0)

	fn := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = v.Interface()
		}

		out, err := l.Invoke(args...)

		rv := reflect.Zero(retType)

		if err == nil && out != nil {
			conv, cerr := reflectx.Convert(out, retType)
			if cerr != nil {
				err = cerr
			} else {
				rv = reflect.ValueOf(conv)
			}
		}

		if wantErr {
			ev := reflect.Zero(errType)
			if err != nil {
				ev = reflect.ValueOf(err)
			}

			return []reflect.Value{rv, ev}
		}

		if err != nil {
			panic(err)
		}

		return []reflect.Value{rv}
	})

	pv.Elem().Set(fn)

	return nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()
