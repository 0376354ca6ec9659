package parser

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/reflectx"
	"github.com/dynexpr/dynexpr/lang/token"
)

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// isNull reports whether a node is the untyped null literal.
func isNull(n ast.Node) bool {
	c, ok := n.(*ast.Constant)

	return ok && c.Value == nil
}

// checkValue rejects bare type references where a value is required.
func (p *parser) checkValue(n ast.Node, pos int) error {
	if tr, ok := n.(*ast.TypeRef); ok {
		return p.errorf(pos, "type %s used as a value", tr.Alias)
	}

	return nil
}

// convertTo wraps n in an implicit conversion to want, or fails.
func (p *parser) convertTo(n ast.Node, want reflect.Type, pos int) (ast.Node, error) {
	if isNull(n) {
		if want == ast.AnyType {
			return n, nil
		}

		if reflectx.IsNilable(want) {
			return &ast.Convert{Operand: n, T: want}, nil
		}

		return nil, p.errorf(pos, "cannot convert null to %s", want)
	}

	switch reflectx.Classify(n.Type(), want) {
	case reflectx.Identity:
		return n, nil
	case reflectx.Implicit:
		return &ast.Convert{Operand: n, T: want}, nil
	default:
		return nil, p.errorf(
			pos, "cannot implicitly convert %s to %s", n.Type(), want,
		)
	}
}

// bindName resolves a bare identifier: declared parameter, then known
// identifier, then known type alias.
func (p *parser) bindName(t token.Token) (ast.Node, error) {
	fold := p.ctx.CaseInsensitive

	for _, param := range p.ctx.Parameters {
		if param.Name == t.Text ||
			(fold && strings.EqualFold(param.Name, t.Text)) {
			p.usedParams[param] = true

			return param, nil
		}
	}

	if n, ok := p.ctx.LookupIdentifier(t.Text); ok {
		p.usedIdents[t.Text] = true

		return n, nil
	}

	if tref, ok := p.ctx.LookupType(t.Text); ok {
		p.usedTypes[tref.Alias] = true

		return tref, nil
	}

	return nil, p.errorf(t.Pos, "unknown identifier %q", t.Text)
}

// bindTypeExpr parses typeof(T) and default(T).
func (p *parser) bindTypeExpr(kw token.Token) (ast.Node, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	tref, ok := p.ctx.LookupType(name.Text)
	if !ok {
		return nil, p.errorf(name.Pos, "unknown type %q", name.Text)
	}

	p.usedTypes[tref.Alias] = true

	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	if kw.Kind == token.Typeof {
		return &ast.TypeOf{Target: tref.T}, nil
	}

	return &ast.Constant{
		Value: reflect.Zero(tref.T).Interface(),
		T:     tref.T,
	}, nil
}

// bindMember binds e.x: static member resolution on e's compile-time
// type, falling back to a dynamic node when the type is dynamic-capable.
// Static precedence is absolute.
func (p *parser) bindMember(target ast.Node, name token.Token) (ast.Node, error) {
	fold := p.ctx.CaseInsensitive

	// Static member access through a type reference.
	if tref, ok := target.(*ast.TypeRef); ok {
		target = &ast.Constant{
			Value: tref.Instance.Interface(),
			T:     tref.Instance.Type(),
		}
	}

	if isNull(target) {
		return nil, p.errorf(name.Pos, "member access on null")
	}

	t := target.Type()

	if f, ok := reflectx.FindField(t, name.Text, fold); ok {
		return &ast.Member{
			Target:     target,
			Name:       f.Name,
			Kind:       ast.FieldMember,
			FieldIndex: f.Index,
			T:          f.Type,
		}, nil
	}

	if ms := reflectx.FindMethods(t, name.Text, fold); len(ms) > 0 {
		m := ms[0]

		return &ast.Member{
			Target:      target,
			Name:        m.Method.Name,
			Kind:        ast.MethodMember,
			MethodIndex: m.Method.Index,
			T:           reflectx.MethodSig(m.Method),
		}, nil
	}

	// Dynamic fallback. Values typed any defer member resolution to
	// invocation time so chains through dynamic members keep working.
	if reflectx.IsDynamic(t) || t == ast.AnyType {
		return &ast.DynamicGet{Target: target, Name: name.Text}, nil
	}

	return nil, p.errorf(
		name.Pos, "type %s has no member %q", t, name.Text,
	)
}

// callArgs summarises bound argument nodes for overload resolution.
func callArgs(args []ast.Node) []reflectx.Arg {
	out := make([]reflectx.Arg, len(args))

	for i, a := range args {
		out[i] = reflectx.Arg{Type: a.Type(), IsNull: isNull(a)}
	}

	return out
}

// convertArgs wraps each argument in the implicit conversion its matched
// parameter requires.
func (p *parser) convertArgs(
	args []ast.Node, params []reflect.Type, pos int,
) ([]ast.Node, error) {
	out := make([]ast.Node, len(args))

	for i, a := range args {
		c, err := p.convertTo(a, params[i], pos)
		if err != nil {
			return nil, err
		}

		out[i] = c
	}

	return out, nil
}

// bindMethodCall binds e.f(args): static overload resolution first, then
// extension methods applicable to e's type, then dynamic invocation.
func (p *parser) bindMethodCall(
	target ast.Node, name token.Token, args []ast.Node,
) (ast.Node, error) {
	fold := p.ctx.CaseInsensitive

	if tref, ok := target.(*ast.TypeRef); ok {
		target = &ast.Constant{
			Value: tref.Instance.Interface(),
			T:     tref.Instance.Type(),
		}
	}

	if isNull(target) {
		return nil, p.errorf(name.Pos, "member access on null")
	}

	t := target.Type()
	site := callArgs(args)

	var cands []reflectx.Candidate

	for _, m := range reflectx.FindMethods(t, name.Text, fold) {
		cands = append(cands, reflectx.Candidate{
			Name:      m.Method.Name,
			Method:    m.Method,
			IsMethod:  true,
			OnPointer: m.OnPointer,
			Sig:       reflectx.MethodSig(m.Method),
		})
	}

	match, err := reflectx.Resolve(name.Text, cands, site)

	if err != nil && !isAmbiguous(err) {
		// Instance resolution failed entirely: try extension methods.
		exts := reflectx.ExtensionCandidates(
			p.ctx.Extensions, t, name.Text, fold,
		)

		var extErr error

		match, extErr = reflectx.Resolve(name.Text, exts, site)
		if extErr == nil {
			err = nil
		} else if isAmbiguous(extErr) {
			err = extErr
		}
	}

	if err != nil {
		if isAmbiguous(err) {
			return nil, p.errorf(
				name.Pos, "ambiguous call to %s on %s", name.Text, t,
			)
		}

		if reflectx.IsDynamic(t) || t == ast.AnyType {
			return &ast.DynamicCall{
				Target: target,
				Name:   name.Text,
				Args:   args,
			}, nil
		}

		return nil, p.errorf(
			name.Pos, "type %s has no applicable method %q", t, name.Text,
		)
	}

	converted, err := p.convertArgs(args, match.ParamTypes, name.Pos)
	if err != nil {
		return nil, err
	}

	c := match.Candidate

	if c.IsMethod {
		return &ast.MethodCall{
			Target:    target,
			Method:    c.Method,
			Args:      converted,
			Variadic:  match.CallSlice,
			OnPointer: c.OnPointer,
			T:         match.Result,
		}, nil
	}

	// Extension method: the receiver becomes the leading argument.
	recv, err := p.convertTo(target, c.RecvParam, name.Pos)
	if err != nil {
		return nil, err
	}

	return &ast.StaticCall{
		Name:     c.Name,
		Fn:       c.Fn,
		Args:     append([]ast.Node{recv}, converted...),
		Variadic: match.CallSlice,
		T:        match.Result,
	}, nil
}

func isAmbiguous(err error) bool {
	return errors.Is(err, reflectx.ErrAmbiguous)
}

// bindInvoke binds f(args) where f is a function-typed expression.
func (p *parser) bindInvoke(
	callee ast.Node, args []ast.Node, pos int,
) (ast.Node, error) {
	if tr, ok := callee.(*ast.TypeRef); ok {
		return nil, p.errorf(pos, "type %s is not callable", tr.Alias)
	}

	ft := callee.Type()
	if ft.Kind() != reflect.Func {
		return nil, p.errorf(pos, "%s is not callable", ft)
	}

	cand := reflectx.Candidate{Name: "function", Sig: ft}

	match, err := reflectx.Resolve("function", []reflectx.Candidate{cand}, callArgs(args))
	if err != nil {
		return nil, p.errorf(pos, "argument mismatch in call to %s", ft)
	}

	converted, err := p.convertArgs(args, match.ParamTypes, pos)
	if err != nil {
		return nil, err
	}

	return &ast.Call{
		Callee:   callee,
		Args:     converted,
		Variadic: match.CallSlice,
		T:        match.Result,
	}, nil
}

// bindIndex binds e[k] for maps, slices, arrays, and strings.
func (p *parser) bindIndex(target ast.Node, key ast.Node, pos int) (ast.Node, error) {
	if err := p.checkValue(target, pos); err != nil {
		return nil, err
	}

	t := target.Type()

	switch t.Kind() {
	case reflect.Map:
		k, err := p.convertTo(key, t.Key(), pos)
		if err != nil {
			return nil, err
		}

		return &ast.Index{Target: target, Key: k, T: t.Elem()}, nil

	case reflect.Slice, reflect.Array:
		k, err := p.convertTo(key, reflect.TypeOf(int(0)), pos)
		if err != nil {
			return nil, err
		}

		return &ast.Index{Target: target, Key: k, T: t.Elem()}, nil

	case reflect.String:
		k, err := p.convertTo(key, reflect.TypeOf(int(0)), pos)
		if err != nil {
			return nil, err
		}

		return &ast.Index{
			Target: target,
			Key:    k,
			T:      reflect.TypeOf(byte(0)),
		}, nil

	case reflect.Interface:
		k := key
		if err := p.checkValue(key, pos); err != nil {
			return nil, err
		}

		return &ast.Index{Target: target, Key: k, T: ast.AnyType}, nil

	default:
		return nil, p.errorf(pos, "type %s is not indexable", t)
	}
}

// promoteOperands converts both sides of an arithmetic operator to their
// common promoted type.
func (p *parser) promoteOperands(
	op token.Token, left, right ast.Node,
) (ast.Node, ast.Node, reflect.Type, error) {
	common, ok := reflectx.Promote(left.Type(), right.Type())
	if !ok {
		return nil, nil, nil, p.errorf(
			op.Pos, "operator %s is not defined for %s and %s",
			op.Kind, left.Type(), right.Type(),
		)
	}

	l, err := p.convertTo(left, common, op.Pos)
	if err != nil {
		return nil, nil, nil, err
	}

	r, err := p.convertTo(right, common, op.Pos)
	if err != nil {
		return nil, nil, nil, err
	}

	return l, r, common, nil
}

var stringType = reflect.TypeOf("")

//nolint:gocyclo // one arm per operator family
func (p *parser) bindBinary(op token.Token, left, right ast.Node) (ast.Node, error) {
	if err := p.checkValue(left, op.Pos); err != nil {
		return nil, err
	}

	if err := p.checkValue(right, op.Pos); err != nil {
		return nil, err
	}

	switch op.Kind {
	case token.Plus:
		// String concatenation admits any right-hand operand; values
		// are rendered with their default formatting.
		if left.Type() == stringType || right.Type() == stringType {
			return &ast.Binary{
				Op: op.Kind, Left: left, Right: right, T: stringType,
			}, nil
		}

		fallthrough

	case token.Minus, token.Star, token.Slash, token.Percent:
		l, r, common, err := p.promoteOperands(op, left, right)
		if err != nil {
			return nil, err
		}

		return &ast.Binary{Op: op.Kind, Left: l, Right: r, T: common}, nil

	case token.Equal, token.NotEqual:
		return p.bindEquality(op, left, right)

	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		if left.Type() == stringType && right.Type() == stringType {
			return &ast.Binary{
				Op: op.Kind, Left: left, Right: right, T: ast.BoolType,
			}, nil
		}

		l, r, _, err := p.promoteOperands(op, left, right)
		if err != nil {
			return nil, err
		}

		return &ast.Binary{Op: op.Kind, Left: l, Right: r, T: ast.BoolType}, nil

	case token.AndAnd, token.OrOr:
		if left.Type() != ast.BoolType || right.Type() != ast.BoolType {
			return nil, p.errorf(
				op.Pos, "operator %s requires boolean operands", op.Kind,
			)
		}

		return &ast.Binary{
			Op: op.Kind, Left: left, Right: right, T: ast.BoolType,
		}, nil

	case token.Amp, token.Pipe, token.Caret:
		// Non-short-circuit logical form on booleans.
		if left.Type() == ast.BoolType && right.Type() == ast.BoolType {
			return &ast.Binary{
				Op: op.Kind, Left: left, Right: right, T: ast.BoolType,
			}, nil
		}

		l, r, common, err := p.promoteOperands(op, left, right)
		if err != nil {
			return nil, err
		}

		if common == reflectx.DecimalType || reflectx.IsNumeric(common) &&
			(common.Kind() == reflect.Float32 || common.Kind() == reflect.Float64) {
			return nil, p.errorf(
				op.Pos, "operator %s requires integer operands", op.Kind,
			)
		}

		return &ast.Binary{Op: op.Kind, Left: l, Right: r, T: common}, nil

	case token.Shl, token.Shr:
		lt := left.Type()
		if !reflectx.IsNumeric(lt) || lt == reflectx.DecimalType ||
			lt.Kind() == reflect.Float32 || lt.Kind() == reflect.Float64 {
			return nil, p.errorf(
				op.Pos, "operator %s requires an integer left operand", op.Kind,
			)
		}

		r, err := p.convertTo(right, reflect.TypeOf(int(0)), op.Pos)
		if err != nil {
			return nil, err
		}

		return &ast.Binary{Op: op.Kind, Left: left, Right: r, T: lt}, nil
	}

	return nil, p.errorf(op.Pos, "unsupported operator %s", op.Kind)
}

// bindEquality permits numeric comparison, comparable identical types,
// null tests against nilable operands, and reference-compatible operands.
func (p *parser) bindEquality(op token.Token, left, right ast.Node) (ast.Node, error) {
	switch {
	case isNull(left), isNull(right):
		val := left
		if isNull(left) {
			val = right
		}

		if !isNull(val) && !reflectx.IsNilable(val.Type()) && val.Type() != ast.AnyType {
			return nil, p.errorf(
				op.Pos, "type %s can never be null", val.Type(),
			)
		}

	case reflectx.IsNumeric(left.Type()) && reflectx.IsNumeric(right.Type()):
		l, r, _, err := p.promoteOperands(op, left, right)
		if err != nil {
			return nil, err
		}

		left, right = l, r

	default:
		lt, rt := left.Type(), right.Type()

		if lt != rt && !lt.AssignableTo(rt) && !rt.AssignableTo(lt) {
			return nil, p.errorf(
				op.Pos, "operator %s is not defined for %s and %s",
				op.Kind, lt, rt,
			)
		}
	}

	return &ast.Binary{
		Op: op.Kind, Left: left, Right: right, T: ast.BoolType,
	}, nil
}

func (p *parser) bindUnary(op token.Token, operand ast.Node) (ast.Node, error) {
	if err := p.checkValue(operand, op.Pos); err != nil {
		return nil, err
	}

	t := operand.Type()

	switch op.Kind {
	case token.Not:
		if t != ast.BoolType {
			return nil, p.errorf(op.Pos, "operator ! requires a boolean operand")
		}

		return &ast.Unary{Op: op.Kind, Operand: operand, T: ast.BoolType}, nil

	case token.Plus:
		if !reflectx.IsNumeric(t) {
			return nil, p.errorf(op.Pos, "operator + requires a numeric operand")
		}

		return operand, nil

	case token.Minus:
		if !reflectx.IsNumeric(t) {
			return nil, p.errorf(op.Pos, "operator - requires a numeric operand")
		}

		// Unsigned operands promote into a wider signed type first.
		if k := t.Kind(); k >= reflect.Uint && k <= reflect.Uint64 {
			wide, ok := reflectx.Promote(t, reflect.TypeOf(int32(0)))
			if !ok {
				return nil, p.errorf(
					op.Pos, "operator - is not defined for %s", t,
				)
			}

			var err error

			operand, err = p.convertTo(operand, wide, op.Pos)
			if err != nil {
				return nil, err
			}

			t = wide
		}

		return &ast.Unary{Op: op.Kind, Operand: operand, T: t}, nil

	case token.Tilde:
		if !reflectx.IsNumeric(t) || t == reflectx.DecimalType ||
			t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64 {
			return nil, p.errorf(op.Pos, "operator ~ requires an integer operand")
		}

		return &ast.Unary{Op: op.Kind, Operand: operand, T: t}, nil
	}

	return nil, p.errorf(op.Pos, "unsupported operator %s", op.Kind)
}

// bindConditional requires both branches to converge to a common type.
func (p *parser) bindConditional(cond, then, els ast.Node, pos int) (ast.Node, error) {
	if cond.Type() != ast.BoolType {
		return nil, p.errorf(pos, "conditional requires a boolean condition")
	}

	common, err := p.commonType(then, els, pos)
	if err != nil {
		return nil, err
	}

	t, err := p.convertTo(then, common, pos)
	if err != nil {
		return nil, err
	}

	e, err := p.convertTo(els, common, pos)
	if err != nil {
		return nil, err
	}

	return &ast.Conditional{Cond: cond, Then: t, Else: e, T: common}, nil
}

// commonType finds the type two branch expressions converge to: the
// narrower implicitly converts to the wider.
func (p *parser) commonType(a, b ast.Node, pos int) (reflect.Type, error) {
	switch {
	case isNull(a) && isNull(b):
		return ast.AnyType, nil

	case isNull(a):
		if !reflectx.IsNilable(b.Type()) && b.Type() != ast.AnyType {
			return nil, p.errorf(pos, "type %s can never be null", b.Type())
		}

		return b.Type(), nil

	case isNull(b):
		if !reflectx.IsNilable(a.Type()) && a.Type() != ast.AnyType {
			return nil, p.errorf(pos, "type %s can never be null", a.Type())
		}

		return a.Type(), nil
	}

	at, bt := a.Type(), b.Type()

	if at == bt {
		return at, nil
	}

	if reflectx.IsNumeric(at) && reflectx.IsNumeric(bt) {
		if common, ok := reflectx.Promote(at, bt); ok {
			return common, nil
		}
	}

	if reflectx.Classify(bt, at) == reflectx.Implicit {
		return at, nil
	}

	if reflectx.Classify(at, bt) == reflectx.Implicit {
		return bt, nil
	}

	return nil, p.errorf(
		pos, "no common type for %s and %s", at, bt,
	)
}

// bindCoalesce binds a ?? b: a must be nullable, and the result is the
// branches' common type.
func (p *parser) bindCoalesce(left, right ast.Node, pos int) (ast.Node, error) {
	if !isNull(left) && !reflectx.IsNilable(left.Type()) &&
		left.Type() != ast.AnyType {
		return nil, p.errorf(
			pos, "operator ?? requires a nullable left operand",
		)
	}

	common, err := p.commonType(left, right, pos)
	if err != nil {
		return nil, err
	}

	l, err := p.convertTo(left, common, pos)
	if err != nil {
		// The left side keeps its own type when only the non-null
		// result needs converting (e.g. *T ?? T).
		l = left
	}

	r, err := p.convertTo(right, common, pos)
	if err != nil {
		return nil, err
	}

	return &ast.Binary{Op: token.Coalesce, Left: l, Right: r, T: common}, nil
}

// bindTypeTest binds "e is T" and "e as T".
func (p *parser) bindTypeTest(left ast.Node, kw token.Token, asForm bool) (ast.Node, error) {
	if err := p.checkValue(left, kw.Pos); err != nil {
		return nil, err
	}

	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	tref, ok := p.ctx.LookupType(name.Text)
	if !ok {
		return nil, p.errorf(name.Pos, "unknown type %q", name.Text)
	}

	p.usedTypes[tref.Alias] = true

	if !asForm {
		return &ast.Is{Operand: left, Target: tref.T}, nil
	}

	if !reflectx.IsNilable(tref.T) && tref.T != ast.AnyType {
		return nil, p.errorf(
			kw.Pos, "operator as requires a nullable target type",
		)
	}

	return &ast.As{Operand: left, Target: tref.T}, nil
}

// bindCast binds the explicit (T)e form.
func (p *parser) bindCast(target *ast.TypeRef, operand ast.Node) (ast.Node, error) {
	if err := p.checkValue(operand, 0); err != nil {
		return nil, err
	}

	if isNull(operand) {
		if !reflectx.IsNilable(target.T) && target.T != ast.AnyType {
			return nil, &Error{Msg: fmt.Sprintf(
				"cannot convert null to %s", target.T,
			)}
		}

		return &ast.Convert{Operand: operand, T: target.T, Explicit: true}, nil
	}

	from := operand.Type()

	// Downcasts from interface types are checked at invocation time.
	if from.Kind() == reflect.Interface {
		return &ast.Convert{Operand: operand, T: target.T, Explicit: true}, nil
	}

	switch reflectx.Classify(from, target.T) {
	case reflectx.Identity:
		return operand, nil
	case reflectx.Implicit, reflectx.Explicit:
		return &ast.Convert{Operand: operand, T: target.T, Explicit: true}, nil
	default:
		return nil, &Error{Msg: fmt.Sprintf(
			"cannot convert %s to %s", from, target.T,
		)}
	}
}

// bindAssign validates the assignment target and converts the value.
func (p *parser) bindAssign(target, value ast.Node, pos int) (ast.Node, error) {
	switch t := target.(type) {
	case *ast.Param:

	case *ast.Member:
		if t.Kind != ast.FieldMember {
			return nil, p.errorf(pos, "cannot assign to a method")
		}

		if t.Target.Type().Kind() != reflect.Ptr {
			return nil, p.errorf(
				pos, "cannot assign to a field of a non-pointer value",
			)
		}

	case *ast.Index:
		switch t.Target.Type().Kind() {
		case reflect.Map, reflect.Slice:
		default:
			return nil, p.errorf(pos, "cannot assign through this indexer")
		}

	case *ast.DynamicGet:
		// Whether dynamic bags accept writes is unresolved; the path
		// stays closed.
		return nil, p.errorf(pos, "cannot assign to a dynamic member")

	default:
		return nil, p.errorf(pos, "left side of = is not assignable")
	}

	v, err := p.convertTo(value, target.Type(), pos)
	if err != nil {
		return nil, err
	}

	return &ast.Assign{Target: target, Value: v}, nil
}
