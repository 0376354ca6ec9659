package lang

import (
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/dynexpr/dynexpr/lang/ast"
	"github.com/dynexpr/dynexpr/lang/reflectx"
	"github.com/dynexpr/dynexpr/lang/token"
)

// AssignmentPolicy controls whether the = operator binds.
type AssignmentPolicy int

const (
	// AssignNone rejects every assignment expression.
	AssignNone AssignmentPolicy = iota

	// AssignEquals permits assignment with the = operator.
	AssignEquals
)

// ReferenceType is a registered type: a host type paired with the public
// alias under which expressions refer to it, plus the extension methods
// it contributes.
type ReferenceType struct {
	Alias string
	Type  reflect.Type

	// Instance receives static member access through the alias. It is
	// the zero value of Type unless the registration supplied one.
	Instance reflect.Value

	// Extensions are the methods this type contributes to other
	// receivers.
	Extensions []reflectx.ExtensionMethod
}

// Identifier is a registered name bound to an expression: a constant, a
// variable cell, or a function value.
type Identifier struct {
	Name string
	Expr ast.Node
}

// Type returns the identifier's declared type.
func (id *Identifier) Type() reflect.Type { return id.Expr.Type() }

// settings holds the interpreter's registries. Names are stored under the
// canonical form implied by the case-sensitivity flag, and lookups
// canonicalise the same way. Registries are configure-then-freeze: they
// are not locked, and mutation concurrent with parsing is undefined.
type settings struct {
	caseInsensitive bool
	assignment      AssignmentPolicy

	types       map[string]*ReferenceType
	identifiers map[string]*Identifier

	// id and gen identify this registry state for the program cache: id
	// is unique per interpreter, and gen increments on every mutation.
	id  uint64
	gen uint64
}

var settingsID atomic.Uint64

func newSettings(caseInsensitive bool) *settings {
	return &settings{
		caseInsensitive: caseInsensitive,
		assignment:      AssignEquals,
		types:           map[string]*ReferenceType{},
		identifiers:     map[string]*Identifier{},
		id:              settingsID.Add(1),
	}
}

// canonical maps a name to its registry key.
func (s *settings) canonical(name string) string {
	if s.caseInsensitive {
		return strings.ToLower(name)
	}

	return name
}

// registerIdentifier stores a name binding; the last write wins.
func (s *settings) registerIdentifier(name string, expr ast.Node) error {
	if name == "" {
		return ErrNameRequired
	}

	if token.IsReserved(name) {
		return ErrReservedWord.With(slog.String("name", name))
	}

	s.identifiers[s.canonical(name)] = &Identifier{Name: name, Expr: expr}
	s.gen++

	return nil
}

// registerType stores a type alias and harvests its extension methods.
func (s *settings) registerType(alias string, t reflect.Type, inst reflect.Value) error {
	if alias == "" {
		return ErrNameRequired
	}

	if t == nil {
		return ErrTypeRequired.With(slog.String("alias", alias))
	}

	if token.IsReserved(alias) {
		return ErrReservedWord.With(slog.String("name", alias))
	}

	if !inst.IsValid() {
		inst = reflect.Zero(t)
	}

	ref := &ReferenceType{
		Alias:      alias,
		Type:       t,
		Instance:   inst,
		Extensions: reflectx.Harvest(inst),
	}

	// Re-registration overwrites deterministically: the previous
	// alias's extension contributions are replaced along with it.
	s.types[s.canonical(alias)] = ref
	s.gen++

	return nil
}

// allExtensions aggregates the extension methods contributed by every
// registered type.
func (s *settings) allExtensions() []reflectx.ExtensionMethod {
	var out []reflectx.ExtensionMethod

	for _, ref := range s.types {
		out = append(out, ref.Extensions...)
	}

	return out
}

// lookupIdentifier resolves a registered identifier to its expression.
func (s *settings) lookupIdentifier(name string) (ast.Node, bool) {
	id, ok := s.identifiers[s.canonical(name)]
	if !ok {
		return nil, false
	}

	return id.Expr, true
}

// lookupType resolves a registered type alias to a type-reference node.
func (s *settings) lookupType(name string) (*ast.TypeRef, bool) {
	ref, ok := s.types[s.canonical(name)]
	if !ok {
		return nil, false
	}

	return &ast.TypeRef{
		Alias:    ref.Alias,
		T:        ref.Type,
		Instance: ref.Instance,
	}, true
}

// knownNames enumerates registered identifier and type names for
// completion and detection.
func (s *settings) knownNames() (idents, types []string) {
	for _, id := range s.identifiers {
		idents = append(idents, id.Name)
	}

	for _, ref := range s.types {
		types = append(types, ref.Alias)
	}

	return idents, types
}
