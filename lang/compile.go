package lang

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/reflectx"
	"github.com/dynexpr/dynexpr/lang/token"
)

// activation is the runtime parameter record: one slot per declared
// parameter, indexed by ast.Param.Index.
type activation struct {
	slots []any
}

// thunk is a compiled expression node.
type thunk func(a *activation) (any, error)

// compile lowers the bound tree to a chain of closures. All type
// decisions were made by the binder; the compiler only selects the
// matching evaluation lane per node.
func compile(root *ast.Lambda) (thunk, error) {
	return compileNode(root.Body)
}

//nolint:gocyclo // one arm per node kind
func compileNode(n ast.Node) (thunk, error) {
	switch v := n.(type) {
	case *ast.Constant:
		val := v.Value

		return func(*activation) (any, error) { return val, nil }, nil

	case *ast.Param:
		idx := v.Index

		return func(a *activation) (any, error) { return a.slots[idx], nil }, nil

	case *ast.TypeOf:
		t := v.Target

		return func(*activation) (any, error) { return t, nil }, nil

	case *ast.Convert:
		return compileConvert(v)

	case *ast.Member:
		return compileMember(v)

	case *ast.MethodCall:
		return compileMethodCall(v)

	case *ast.StaticCall:
		return compileStaticCall(v)

	case *ast.Call:
		return compileCall(v)

	case *ast.Binary:
		return compileBinary(v)

	case *ast.Unary:
		return compileUnary(v)

	case *ast.Conditional:
		return compileConditional(v)

	case *ast.Is:
		return compileIs(v)

	case *ast.As:
		return compileAs(v)

	case *ast.Index:
		return compileIndex(v)

	case *ast.DynamicGet:
		return compileDynamicGet(v)

	case *ast.DynamicCall:
		return compileDynamicCall(v)

	case *ast.Assign:
		return compileAssign(v)

	case *ast.Lambda:
		return compileNode(v.Body)
	}

	return nil, fmt.Errorf("cannot compile %T", n)
}

func compileList(nodes []ast.Node) ([]thunk, error) {
	out := make([]thunk, len(nodes))

	for i, n := range nodes {
		t, err := compileNode(n)
		if err != nil {
			return nil, err
		}

		out[i] = t
	}

	return out, nil
}

func compileConvert(v *ast.Convert) (thunk, error) {
	operand, err := compileNode(v.Operand)
	if err != nil {
		return nil, err
	}

	to := v.T

	return func(a *activation) (any, error) {
		val, err := operand(a)
		if err != nil {
			return nil, err
		}

		return reflectx.Convert(val, to)
	}, nil
}

// isNilValue reports whether a runtime value is null, including typed
// nils boxed in an interface.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

func compileMember(v *ast.Member) (thunk, error) {
	target, err := compileNode(v.Target)
	if err != nil {
		return nil, err
	}

	name := v.Name
	kind := v.Kind
	index := v.FieldIndex

	return func(a *activation) (any, error) {
		recv, err := target(a)
		if err != nil {
			return nil, err
		}

		if isNilValue(recv) {
			return nil, fmt.Errorf("member access %s on null", name)
		}

		rv := reflect.ValueOf(recv)

		if kind == ast.FieldMember {
			for rv.Kind() == reflect.Ptr {
				rv = rv.Elem()
			}

			return rv.FieldByIndex(index).Interface(), nil
		}

		m, err := methodValue(rv, name)
		if err != nil {
			return nil, err
		}

		return m.Interface(), nil
	}, nil
}

// methodValue locates a bound method on a receiver value, taking an
// addressable copy when the method lives on the pointer type.
func methodValue(rv reflect.Value, name string) (reflect.Value, error) {
	if m := rv.MethodByName(name); m.IsValid() {
		return m, nil
	}

	if rv.Kind() != reflect.Ptr {
		pv := reflect.New(rv.Type())
		pv.Elem().Set(rv)

		if m := pv.MethodByName(name); m.IsValid() {
			return m, nil
		}
	}

	return reflect.Value{}, fmt.Errorf(
		"method %s not found on %s", name, rv.Type(),
	)
}

// callFunc invokes fn with evaluated arguments, propagating a trailing
// error result and unwrapping single-value results.
func callFunc(fn reflect.Value, args []any, callSlice bool) (any, error) {
	ft := fn.Type()

	in := make([]reflect.Value, len(args))

	for i, arg := range args {
		var pt reflect.Type

		switch {
		case ft.IsVariadic() && i >= ft.NumIn()-1 && !callSlice:
			pt = ft.In(ft.NumIn() - 1).Elem()
		default:
			pt = ft.In(min(i, ft.NumIn()-1))
		}

		if arg == nil {
			in[i] = reflect.Zero(pt)

			continue
		}

		av := reflect.ValueOf(arg)
		if av.Type() != pt && av.Type().ConvertibleTo(pt) &&
			!av.Type().AssignableTo(pt) {
			av = av.Convert(pt)
		}

		in[i] = av
	}

	var out []reflect.Value
	if callSlice {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if ft.NumOut() == 1 && ft.Out(0) == errType {
			return nil, asErr(out[0])
		}

		return out[0].Interface(), nil
	default:
		if ft.Out(ft.NumOut()-1) == errType {
			if err := asErr(out[len(out)-1]); err != nil {
				return nil, err
			}

			return out[0].Interface(), nil
		}

		return out[0].Interface(), nil
	}
}

func asErr(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}

	return v.Interface().(error)
}

func compileMethodCall(v *ast.MethodCall) (thunk, error) {
	target, err := compileNode(v.Target)
	if err != nil {
		return nil, err
	}

	args, err := compileList(v.Args)
	if err != nil {
		return nil, err
	}

	name := v.Method.Name
	callSlice := v.Variadic

	return func(a *activation) (any, error) {
		recv, err := target(a)
		if err != nil {
			return nil, err
		}

		if isNilValue(recv) {
			return nil, fmt.Errorf("method call %s on null", name)
		}

		fn, err := methodValue(reflect.ValueOf(recv), name)
		if err != nil {
			return nil, err
		}

		vals, err := evalArgs(a, args)
		if err != nil {
			return nil, err
		}

		return callFunc(fn, vals, callSlice)
	}, nil
}

func evalArgs(a *activation, args []thunk) ([]any, error) {
	vals := make([]any, len(args))

	for i, arg := range args {
		v, err := arg(a)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func compileStaticCall(v *ast.StaticCall) (thunk, error) {
	args, err := compileList(v.Args)
	if err != nil {
		return nil, err
	}

	fn := v.Fn
	callSlice := v.Variadic

	return func(a *activation) (any, error) {
		vals, err := evalArgs(a, args)
		if err != nil {
			return nil, err
		}

		return callFunc(fn, vals, callSlice)
	}, nil
}

func compileCall(v *ast.Call) (thunk, error) {
	callee, err := compileNode(v.Callee)
	if err != nil {
		return nil, err
	}

	args, err := compileList(v.Args)
	if err != nil {
		return nil, err
	}

	callSlice := v.Variadic

	return func(a *activation) (any, error) {
		fv, err := callee(a)
		if err != nil {
			return nil, err
		}

		if isNilValue(fv) {
			return nil, fmt.Errorf("call of null function")
		}

		vals, err := evalArgs(a, args)
		if err != nil {
			return nil, err
		}

		return callFunc(reflect.ValueOf(fv), vals, callSlice)
	}, nil
}

func compileConditional(v *ast.Conditional) (thunk, error) {
	cond, err := compileNode(v.Cond)
	if err != nil {
		return nil, err
	}

	then, err := compileNode(v.Then)
	if err != nil {
		return nil, err
	}

	els, err := compileNode(v.Else)
	if err != nil {
		return nil, err
	}

	return func(a *activation) (any, error) {
		c, err := cond(a)
		if err != nil {
			return nil, err
		}

		if c.(bool) {
			return then(a)
		}

		return els(a)
	}, nil
}

func compileIs(v *ast.Is) (thunk, error) {
	operand, err := compileNode(v.Operand)
	if err != nil {
		return nil, err
	}

	target := v.Target

	return func(a *activation) (any, error) {
		val, err := operand(a)
		if err != nil {
			return nil, err
		}

		return typeMatches(val, target), nil
	}, nil
}

func typeMatches(val any, target reflect.Type) bool {
	if val == nil {
		return false
	}

	t := reflect.TypeOf(val)

	if t == target {
		return true
	}

	return target.Kind() == reflect.Interface && t.Implements(target)
}

func compileAs(v *ast.As) (thunk, error) {
	operand, err := compileNode(v.Operand)
	if err != nil {
		return nil, err
	}

	target := v.Target

	return func(a *activation) (any, error) {
		val, err := operand(a)
		if err != nil {
			return nil, err
		}

		if typeMatches(val, target) {
			return val, nil
		}

		return nil, nil
	}, nil
}

func compileIndex(v *ast.Index) (thunk, error) {
	target, err := compileNode(v.Target)
	if err != nil {
		return nil, err
	}

	key, err := compileNode(v.Key)
	if err != nil {
		return nil, err
	}

	elem := v.T

	return func(a *activation) (any, error) {
		recv, err := target(a)
		if err != nil {
			return nil, err
		}

		if isNilValue(recv) {
			return nil, fmt.Errorf("index into null")
		}

		k, err := key(a)
		if err != nil {
			return nil, err
		}

		rv := reflect.ValueOf(recv)

		switch rv.Kind() {
		case reflect.Map:
			kv := reflect.ValueOf(k)
			if kv.Type() != rv.Type().Key() {
				kv = kv.Convert(rv.Type().Key())
			}

			out := rv.MapIndex(kv)
			if !out.IsValid() {
				return reflect.Zero(elem).Interface(), nil
			}

			return out.Interface(), nil

		case reflect.Slice, reflect.Array, reflect.String:
			i, err := reflectx.Convert(k, reflect.TypeOf(int(0)))
			if err != nil {
				return nil, err
			}

			idx := i.(int)
			if idx < 0 || idx >= rv.Len() {
				return nil, fmt.Errorf(
					"index %d out of range [0, %d)", idx, rv.Len(),
				)
			}

			return rv.Index(idx).Interface(), nil

		default:
			return nil, fmt.Errorf("type %s is not indexable", rv.Type())
		}
	}, nil
}

func compileDynamicGet(v *ast.DynamicGet) (thunk, error) {
	target, err := compileNode(v.Target)
	if err != nil {
		return nil, err
	}

	name := v.Name

	return func(a *activation) (any, error) {
		recv, err := target(a)
		if err != nil {
			return nil, err
		}

		if isNilValue(recv) {
			return nil, fmt.Errorf("member access %s on null", name)
		}

		// Static members keep precedence even when the lookup is late
		// bound; the dynamic surface is consulted last.
		if val, ok := staticProbe(recv, name); ok {
			return val, nil
		}

		val, ok := reflectx.Probe(recv, name)
		if !ok {
			return nil, &DynamicBindingError{
				Name:     name,
				Receiver: fmt.Sprintf("%T", recv),
			}
		}

		return val, nil
	}, nil
}

// staticProbe looks for an exported field or method on a late-bound
// receiver, matching the name exactly.
func staticProbe(recv any, name string) (any, bool) {
	rv := reflect.ValueOf(recv)

	sv := rv
	for sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			return nil, false
		}

		sv = sv.Elem()
	}

	if sv.Kind() == reflect.Struct {
		if f, ok := reflectx.FindField(sv.Type(), name, false); ok {
			return sv.FieldByIndex(f.Index).Interface(), true
		}
	}

	if m, err := methodValue(rv, name); err == nil {
		return m.Interface(), true
	}

	return nil, false
}

func compileDynamicCall(v *ast.DynamicCall) (thunk, error) {
	target, err := compileNode(v.Target)
	if err != nil {
		return nil, err
	}

	args, err := compileList(v.Args)
	if err != nil {
		return nil, err
	}

	name := v.Name

	return func(a *activation) (any, error) {
		recv, err := target(a)
		if err != nil {
			return nil, err
		}

		if isNilValue(recv) {
			return nil, fmt.Errorf("method call %s on null", name)
		}

		// A matching host method wins over the dynamic surface.
		if m, merr := methodValue(reflect.ValueOf(recv), name); merr == nil {
			vals, err := evalArgs(a, args)
			if err != nil {
				return nil, err
			}

			return callFunc(m, vals, false)
		}

		member, ok := reflectx.Probe(recv, name)
		if !ok {
			return nil, &DynamicBindingError{
				Name:     name,
				Receiver: fmt.Sprintf("%T", recv),
			}
		}

		fv := reflect.ValueOf(member)
		if !fv.IsValid() || fv.Kind() != reflect.Func {
			return nil, fmt.Errorf(
				"dynamic member %q of %T is not callable", name, recv,
			)
		}

		vals, err := evalArgs(a, args)
		if err != nil {
			return nil, err
		}

		return callFunc(fv, vals, false)
	}, nil
}

func compileAssign(v *ast.Assign) (thunk, error) {
	value, err := compileNode(v.Value)
	if err != nil {
		return nil, err
	}

	switch target := v.Target.(type) {
	case *ast.Param:
		idx := target.Index

		return func(a *activation) (any, error) {
			val, err := value(a)
			if err != nil {
				return nil, err
			}

			a.slots[idx] = val

			return val, nil
		}, nil

	case *ast.Member:
		recv, err := compileNode(target.Target)
		if err != nil {
			return nil, err
		}

		index := target.FieldIndex

		return func(a *activation) (any, error) {
			obj, err := recv(a)
			if err != nil {
				return nil, err
			}

			if isNilValue(obj) {
				return nil, fmt.Errorf("assignment through null")
			}

			val, err := value(a)
			if err != nil {
				return nil, err
			}

			field := reflect.ValueOf(obj).Elem().FieldByIndex(index)

			conv, err := reflectx.Convert(val, field.Type())
			if err != nil {
				return nil, err
			}

			field.Set(reflect.ValueOf(conv))

			return val, nil
		}, nil

	case *ast.Index:
		recv, err := compileNode(target.Target)
		if err != nil {
			return nil, err
		}

		key, err := compileNode(target.Key)
		if err != nil {
			return nil, err
		}

		return func(a *activation) (any, error) {
			obj, err := recv(a)
			if err != nil {
				return nil, err
			}

			if isNilValue(obj) {
				return nil, fmt.Errorf("assignment through null")
			}

			k, err := key(a)
			if err != nil {
				return nil, err
			}

			val, err := value(a)
			if err != nil {
				return nil, err
			}

			rv := reflect.ValueOf(obj)

			switch rv.Kind() {
			case reflect.Map:
				conv, err := reflectx.Convert(val, rv.Type().Elem())
				if err != nil {
					return nil, err
				}

				kv := reflect.ValueOf(k)
				if kv.Type() != rv.Type().Key() {
					kv = kv.Convert(rv.Type().Key())
				}

				rv.SetMapIndex(kv, reflect.ValueOf(conv))

			case reflect.Slice:
				i, err := reflectx.Convert(k, reflect.TypeOf(int(0)))
				if err != nil {
					return nil, err
				}

				idx := i.(int)
				if idx < 0 || idx >= rv.Len() {
					return nil, fmt.Errorf(
						"index %d out of range [0, %d)", idx, rv.Len(),
					)
				}

				conv, err := reflectx.Convert(val, rv.Type().Elem())
				if err != nil {
					return nil, err
				}

				rv.Index(idx).Set(reflect.ValueOf(conv))

			default:
				return nil, fmt.Errorf("cannot assign through %s", rv.Type())
			}

			return val, nil
		}, nil
	}

	return nil, fmt.Errorf("cannot compile assignment target %T", v.Target)
}

func compileUnary(v *ast.Unary) (thunk, error) {
	operand, err := compileNode(v.Operand)
	if err != nil {
		return nil, err
	}

	op := v.Op
	t := v.T

	return func(a *activation) (any, error) {
		val, err := operand(a)
		if err != nil {
			return nil, err
		}

		switch op {
		case token.Not:
			return !val.(bool), nil

		case token.Minus:
			if d, ok := val.(decimal.Decimal); ok {
				return d.Neg(), nil
			}

			rv := reflect.ValueOf(val)

			switch {
			case isFloatKind(rv.Kind()):
				return convertLane(-rv.Float(), t)
			default:
				return convertLane(-rv.Int(), t)
			}

		case token.Tilde:
			rv := reflect.ValueOf(val)

			if isUnsignedKind(rv.Kind()) {
				return convertLane(^rv.Uint(), t)
			}

			return convertLane(^rv.Int(), t)
		}

		return nil, fmt.Errorf("unsupported unary operator %s", op)
	}, nil
}
