package lang

import (
	"log/slog"
	"reflect"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/parser"
)

// Parameter declares a named value an expression may reference. Type may
// be left nil when Value is set; it is then inferred.
type Parameter struct {
	Name  string
	Type  reflect.Type
	Value any
}

// NewParameter declares a parameter with the type inferred from value.
func NewParameter(name string, value any) Parameter {
	t := ast.AnyType
	if value != nil {
		t = reflect.TypeOf(value)
	}

	return Parameter{Name: name, Type: t, Value: value}
}

// declared builds the binder's parameter nodes, validating names.
func declared(params []Parameter) ([]*ast.Param, error) {
	seen := map[string]bool{}
	out := make([]*ast.Param, len(params))

	for i, p := range params {
		if p.Name == "" {
			return nil, ErrNameRequired.With(slog.Int("parameter", i))
		}

		if seen[p.Name] {
			return nil, ErrDuplicateParam.With(slog.String("name", p.Name))
		}

		seen[p.Name] = true

		t := p.Type
		if t == nil {
			t = ast.AnyType
			if p.Value != nil {
				t = reflect.TypeOf(p.Value)
			}
		}

		out[i] = &ast.Param{Name: p.Name, T: t, Index: i}
	}

	return out, nil
}

// Parse binds text to a reusable Lambda over the declared parameters.
func (i *Interpreter) Parse(text string, params ...Parameter) (*Lambda, error) {
	return i.ParseAs(text, nil, params...)
}

// ParseAs binds text like Parse and additionally constrains the result
// type: the root expression must be, or implicitly convert to, want.
func (i *Interpreter) ParseAs(
	text string, want reflect.Type, params ...Parameter,
) (*Lambda, error) {
	decl, err := declared(params)
	if err != nil {
		return nil, err
	}

	ctx := &parser.Context{
		Text:             text,
		CaseInsensitive:  i.settings.caseInsensitive,
		AllowAssignment:  i.settings.assignment == AssignEquals,
		ExpectedType:     want,
		Parameters:       decl,
		LookupIdentifier: i.settings.lookupIdentifier,
		LookupType:       i.settings.lookupType,
		Extensions:       i.settings.allExtensions(),
	}

	res, err := parser.Parse(ctx)
	if err != nil {
		if pe, ok := err.(*parser.Error); ok {
			return nil, NewParseError(pe.Msg, pe.Pos, text)
		}

		return nil, err
	}

	body, err := i.applyVisitors(res.Root.Body)
	if err != nil {
		if _, ok := err.(*ParseError); !ok {
			err = NewParseError(err.Error(), 0, text)
		}

		return nil, err
	}

	root := &ast.Lambda{Params: res.Root.Params, Body: body}

	program, err := compile(root)
	if err != nil {
		return nil, err
	}

	i.logger.Trace("expression parsed",
		slog.Int("source_bytes", len(text)),
		slog.String("result_type", root.Type().String()),
		slog.Int("used_parameters", len(res.UsedParameters)),
	)

	return &Lambda{
		text:       text,
		root:       root,
		declared:   decl,
		used:       res.UsedParameters,
		usedTypes:  res.UsedTypes,
		usedIdents: res.UsedIdentifiers,
		program:    program,
	}, nil
}

// Eval parses and invokes text in one step, binding parameter values by
// name. Parsed programs are cached per interpreter configuration; see
// ClearCache.
func (i *Interpreter) Eval(text string, params ...Parameter) (any, error) {
	return i.EvalAs(text, nil, params...)
}

// EvalAs is Eval with a constrained result type.
func (i *Interpreter) EvalAs(
	text string, want reflect.Type, params ...Parameter,
) (any, error) {
	l, err := i.cachedParse(text, want, params)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(params))
	for n, p := range params {
		args[n] = p.Value
	}

	out, err := l.Invoke(args...)
	if err != nil {
		return nil, err
	}

	i.logger.Trace("expression evaluated",
		slog.String("result_type", resultTypeName(out)),
	)

	return out, nil
}
