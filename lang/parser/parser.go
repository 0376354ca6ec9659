// Package parser implements the recursive-descent parser and semantic
// binder: as it parses, it resolves names against the interpreter's
// registries and emits a fully-typed expression tree.
//
// The precedence ladder, low to high: assignment, conditional ?:,
// null-coalesce, logical-or, logical-and, bitwise-or, bitwise-xor,
// bitwise-and, equality, relational and type tests, shift, additive,
// multiplicative, unary, cast, postfix (member/index/call), primary.
package parser

import (
	"reflect"
	"strconv"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/lexer"
	"github.com/dynexpr/dynexpr/lang/reflectx"
	"github.com/dynexpr/dynexpr/lang/token"
)

// Error is a syntactic or binding failure at a byte offset in the source.
type Error struct {
	Pos int
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Msg + " at offset " + strconv.Itoa(e.Pos)
}

// Context carries everything a single parse needs: the source text, a
// snapshot of the interpreter's settings, the declared parameters, and
// the registry lookup capabilities. The parser treats it as read-only.
type Context struct {
	Text string

	// CaseInsensitive folds identifier, type, and static member lookups.
	// Dynamic member lookups are exempt and always exact.
	CaseInsensitive bool

	// AllowAssignment enables the = operator.
	AllowAssignment bool

	// ExpectedType, when non-nil, constrains the root expression: the
	// bound tree is implicitly converted to it or the parse fails.
	ExpectedType reflect.Type

	// Parameters declared by the caller, visible as bare names.
	Parameters []*ast.Param

	// LookupIdentifier resolves a registered identifier to its bound
	// expression under the interpreter's canonicalisation.
	LookupIdentifier func(name string) (ast.Node, bool)

	// LookupType resolves a registered type alias.
	LookupType func(name string) (*ast.TypeRef, bool)

	// Extensions is the aggregated extension-method set.
	Extensions []reflectx.ExtensionMethod
}

// Result is the outcome of a successful parse: the bound tree plus the
// accumulated usage sets that the Lambda reports.
type Result struct {
	Root *ast.Lambda

	UsedParameters  []*ast.Param
	UsedTypes       []string
	UsedIdentifiers []string
}

// Parse binds the context's text to a typed expression tree.
func Parse(ctx *Context) (*Result, error) {
	toks, err := lexer.Scan(ctx.Text)
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			return nil, &Error{Pos: le.Pos, Msg: le.Msg}
		}

		return nil, err
	}

	p := &parser{
		ctx:        ctx,
		toks:       toks,
		usedParams: map[*ast.Param]bool{},
		usedTypes:  map[string]bool{},
		usedIdents: map[string]bool{},
	}

	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.cur().Is(token.EOF) {
		return nil, p.errorf(p.cur().Pos, "unexpected %s", p.cur())
	}

	if tr, ok := root.(*ast.TypeRef); ok {
		return nil, p.errorf(0, "type %s used as a value", tr.Alias)
	}

	if ctx.ExpectedType != nil {
		root, err = p.convertTo(root, ctx.ExpectedType, 0)
		if err != nil {
			return nil, err
		}
	}

	return p.result(root), nil
}

type parser struct {
	ctx  *Context
	toks []token.Token
	pos  int

	usedParams map[*ast.Param]bool
	usedTypes  map[string]bool
	usedIdents map[string]bool
}

func (p *parser) result(root ast.Node) *Result {
	r := &Result{
		Root: &ast.Lambda{Body: root},
	}

	// Report used parameters in declaration order.
	for _, param := range p.ctx.Parameters {
		if p.usedParams[param] {
			r.UsedParameters = append(r.UsedParameters, param)
			r.Root.Params = append(r.Root.Params, param)
		}
	}

	for name := range p.usedTypes {
		r.UsedTypes = append(r.UsedTypes, name)
	}

	for name := range p.usedIdents {
		r.UsedIdentifiers = append(r.UsedIdentifiers, name)
	}

	return r
}

func (p *parser) cur() token.Token { return p.toks[p.pos] }

func (p *parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}

	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token.Token {
	t := p.toks[p.pos]
	if p.pos+1 < len(p.toks) {
		p.pos++
	}

	return t
}

func (p *parser) accept(k token.Kind) (token.Token, bool) {
	if p.cur().Kind == k {
		return p.next(), true
	}

	return token.Token{}, false
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if t, ok := p.accept(k); ok {
		return t, nil
	}

	return token.Token{}, p.errorf(
		p.cur().Pos, "expected %s, found %s", k, p.cur(),
	)
}

// parseExpression is the entry point: assignment level.
func (p *parser) parseExpression() (ast.Node, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}

	if !p.cur().Is(token.Assign) {
		return left, nil
	}

	opPos := p.next().Pos

	if !p.ctx.AllowAssignment {
		return nil, p.errorf(opPos, "assignment is disabled")
	}

	// Right-associative.
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return p.bindAssign(left, right, opPos)
}

// parseConditional handles the ternary ?: operator.
func (p *parser) parseConditional() (ast.Node, error) {
	cond, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}

	qt, ok := p.accept(token.Question)
	if !ok {
		return cond, nil
	}

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err = p.expect(token.Colon); err != nil {
		return nil, err
	}

	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return p.bindConditional(cond, then, els, qt.Pos)
}

// parseCoalesce handles the ?? operator, right-associative.
func (p *parser) parseCoalesce() (ast.Node, error) {
	left, err := p.parseBinary(precOr)
	if err != nil {
		return nil, err
	}

	op, ok := p.accept(token.Coalesce)
	if !ok {
		return left, nil
	}

	right, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}

	return p.bindCoalesce(left, right, op.Pos)
}

// Binary precedence levels handled by the generic ladder, low to high.
const (
	precOr = iota
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precMax
)

// levelOps maps each ladder level to its operators.
var levelOps = [precMax][]token.Kind{
	precOr:             {token.OrOr},
	precAnd:            {token.AndAnd},
	precBitOr:          {token.Pipe},
	precBitXor:         {token.Caret},
	precBitAnd:         {token.Amp},
	precEquality:       {token.Equal, token.NotEqual},
	precRelational:     {token.Less, token.LessEqual, token.Greater, token.GreaterEqual},
	precShift:          {token.Shl, token.Shr},
	precAdditive:       {token.Plus, token.Minus},
	precMultiplicative: {token.Star, token.Slash, token.Percent},
}

// parseBinary parses left-associative binary operators at the given level
// and above. The relational level also admits the is/as type tests.
func (p *parser) parseBinary(level int) (ast.Node, error) {
	if level >= precMax {
		return p.parseUnary()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		if level == precRelational {
			if t, ok := p.accept(token.Is); ok {
				left, err = p.bindTypeTest(left, t, false)
				if err != nil {
					return nil, err
				}

				continue
			}

			if t, ok := p.accept(token.As); ok {
				left, err = p.bindTypeTest(left, t, true)
				if err != nil {
					return nil, err
				}

				continue
			}
		}

		if !p.cur().Is(levelOps[level]...) {
			return left, nil
		}

		op := p.next()

		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}

		left, err = p.bindBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

// parseUnary handles prefix operators and casts.
func (p *parser) parseUnary() (ast.Node, error) {
	switch p.cur().Kind {
	case token.Minus, token.Plus, token.Not, token.Tilde:
		op := p.next()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return p.bindUnary(op, operand)

	case token.LParen:
		// A parenthesised type alias followed by the start of a unary
		// expression is a cast; otherwise the parenthesis groups.
		if target, after, ok := p.tryCastPrefix(); ok {
			p.pos = after

			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}

			return p.bindCast(target, operand)
		}
	}

	return p.parsePostfix()
}

// tryCastPrefix checks for "( TypeAlias )" at the cursor followed by a
// token that can begin a unary expression. It does not advance; on
// success it returns the type and the position just past the ')'.
func (p *parser) tryCastPrefix() (*ast.TypeRef, int, bool) {
	if !p.cur().Is(token.LParen) || !p.peek().Is(token.Ident) {
		return nil, 0, false
	}

	tref, ok := p.ctx.LookupType(p.peek().Text)
	if !ok {
		return nil, 0, false
	}

	after := p.pos + 2
	if after >= len(p.toks) || p.toks[after].Kind != token.RParen {
		return nil, 0, false
	}

	after++
	if after >= len(p.toks) {
		return nil, 0, false
	}

	switch p.toks[after].Kind {
	case token.Ident, token.IntLit, token.RealLit, token.CharLit,
		token.StringLit, token.LParen, token.Not, token.Tilde,
		token.Minus, token.Plus:
		p.usedTypes[tref.Alias] = true

		return tref, after, true
	default:
		return nil, 0, false
	}
}

// parsePostfix parses a primary expression followed by any chain of
// member accesses, invocations, and indexers.
func (p *parser) parsePostfix() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cur().Kind {
		case token.Dot:
			p.next()

			name, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}

			if p.cur().Is(token.LParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}

				node, err = p.bindMethodCall(node, name, args)
				if err != nil {
					return nil, err
				}

				continue
			}

			node, err = p.bindMember(node, name)
			if err != nil {
				return nil, err
			}

		case token.LBracket:
			open := p.next()

			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if _, err = p.expect(token.RBracket); err != nil {
				return nil, err
			}

			node, err = p.bindIndex(node, key, open.Pos)
			if err != nil {
				return nil, err
			}

		case token.LParen:
			open := p.cur()

			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			node, err = p.bindInvoke(node, args, open.Pos)
			if err != nil {
				return nil, err
			}

		default:
			return node, nil
		}
	}
}

// parseArgs parses a parenthesised, comma-separated argument list.
func (p *parser) parseArgs() ([]ast.Node, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	if _, ok := p.accept(token.RParen); ok {
		return nil, nil
	}

	var args []ast.Node

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if _, ok := p.accept(token.Comma); ok {
			continue
		}

		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}

		return args, nil
	}
}

// parsePrimary parses literals, names, typeof/default, and grouping.
func (p *parser) parsePrimary() (ast.Node, error) {
	t := p.cur()

	switch t.Kind {
	case token.IntLit, token.RealLit, token.CharLit, token.StringLit:
		p.next()

		return &ast.Constant{Value: t.Value, T: reflect.TypeOf(t.Value)}, nil

	case token.Ident:
		p.next()

		return p.bindName(t)

	case token.Typeof, token.Default:
		p.next()

		return p.bindTypeExpr(t)

	case token.LParen:
		p.next()

		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}

		return inner, nil
	}

	return nil, p.errorf(t.Pos, "unexpected %s", t)
}
