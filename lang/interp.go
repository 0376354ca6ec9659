package lang

import (
	"log/slog"
	"reflect"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/log"
)

// Interpreter parses and evaluates expressions against a registry of
// host-provided types and values.
//
// An Interpreter is safe for concurrent Parse and Eval calls once all
// registration has completed; registration concurrent with parsing is
// undefined.
type Interpreter struct {
	settings *settings
	visitors []Visitor
	logger   log.Logger
}

// Option configures an Interpreter at construction.
type Option func(*construction)

type construction struct {
	caseInsensitive bool
	primitives      bool
	literals        bool
	commonTypes     bool
	logger          log.Logger
}

// WithCaseInsensitive folds identifier, type, and static member name
// lookups. Dynamic member lookups remain case-sensitive.
func WithCaseInsensitive() Option {
	return func(c *construction) { c.caseInsensitive = true }
}

// WithoutDefaultTypes skips every seed group; the registry starts empty.
func WithoutDefaultTypes() Option {
	return func(c *construction) {
		c.primitives = false
		c.literals = false
		c.commonTypes = false
	}
}

// WithPrimitiveTypes loads the primitive alias group.
func WithPrimitiveTypes() Option {
	return func(c *construction) { c.primitives = true }
}

// WithLiteralKeywords loads the true/false/null identifier group.
func WithLiteralKeywords() Option {
	return func(c *construction) { c.literals = true }
}

// WithCommonTypes loads the Math/Convert/Strings helper group.
func WithCommonTypes() Option {
	return func(c *construction) { c.commonTypes = true }
}

// WithLogger attaches a logger; parse and eval emit Trace records.
func WithLogger(l log.Logger) Option {
	return func(c *construction) { c.logger = l }
}

// New creates an Interpreter. The default configuration loads all seed
// groups with case-sensitive names and the default visitor pipeline,
// which forbids expressions from reaching the reflection surface.
func New(opts ...Option) *Interpreter {
	c := construction{
		primitives:  true,
		literals:    true,
		commonTypes: true,
	}

	for _, opt := range opts {
		opt(&c)
	}

	s := newSettings(c.caseInsensitive)

	if c.primitives {
		s.seedPrimitiveTypes()
	}

	if c.literals {
		s.seedLiteralKeywords()
	}

	if c.commonTypes {
		s.seedCommonTypes()
	}

	return &Interpreter{
		settings: s,
		visitors: []Visitor{disableReflection{}},
		logger:   c.logger,
	}
}

// SetVariable registers a constant identifier holding the given value.
// The name must not be reserved; the last write per name wins.
func (i *Interpreter) SetVariable(name string, value any) error {
	t := ast.AnyType
	if value != nil {
		t = reflect.TypeOf(value)
	}

	err := i.settings.registerIdentifier(name, &ast.Constant{Value: value, T: t})
	if err != nil {
		return err
	}

	i.logger.Trace("variable registered",
		slog.String("name", name),
		slog.String("type", t.String()),
	)

	return nil
}

// SetFunction registers a function-valued identifier. fn must be a
// non-nil func.
func (i *Interpreter) SetFunction(name string, fn any) error {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return ErrNilFunction.With(slog.String("name", name))
	}

	return i.SetVariable(name, fn)
}

// SetExpression registers an identifier bound to an arbitrary bound
// expression tree.
func (i *Interpreter) SetExpression(name string, expr ast.Node) error {
	if expr == nil {
		return ErrTypeRequired.With(slog.String("name", name))
	}

	return i.settings.registerIdentifier(name, expr)
}

// Reference registers a host type under a public alias. The type's
// methods become extension-method candidates for receivers their first
// parameter accepts.
func (i *Interpreter) Reference(alias string, t reflect.Type) error {
	return i.settings.registerType(alias, t, reflect.Value{})
}

// ReferenceValue registers a host type together with the instance that
// receives static member access through the alias.
func (i *Interpreter) ReferenceValue(alias string, instance any) error {
	if instance == nil {
		return ErrTypeRequired.With(slog.String("alias", alias))
	}

	v := reflect.ValueOf(instance)

	return i.settings.registerType(alias, v.Type(), v)
}

// EnableAssignment sets the assignment-operator policy.
func (i *Interpreter) EnableAssignment(policy AssignmentPolicy) {
	i.settings.assignment = policy
	i.settings.gen++
}

// KnownNames enumerates registered identifier and type alias names, for
// completion and diagnostics.
func (i *Interpreter) KnownNames() (identifiers, types []string) {
	return i.settings.knownNames()
}
