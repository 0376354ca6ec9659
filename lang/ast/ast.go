// Package ast defines the typed expression tree produced by the semantic
// binder and consumed by the visitor pipeline and the compiler.
//
// Every node carries the static Go type of the value it produces. Dynamic
// member nodes are distinct from their statically-bound counterparts and
// type as any; the compiler realises them as late-bound lookups.
package ast

import (
	"reflect"

	"github.com/dynexpr/dynexpr/lang/token"
)

// AnyType is the static type of expressions whose value is not known at
// bind time, including all dynamic member accesses.
var AnyType = reflect.TypeOf((*any)(nil)).Elem()

// BoolType is the static type of logical and comparison expressions.
var BoolType = reflect.TypeOf(false)

// Node is a single expression tree node. Nodes are immutable after the
// binder emits them.
type Node interface {
	// Type returns the static type of the value the node produces.
	Type() reflect.Type
}

// Constant is a literal or registered constant value.
type Constant struct {
	Value any
	T     reflect.Type
}

// Type returns the constant's static type.
func (n *Constant) Type() reflect.Type { return n.T }

// ConstantValue exposes the constant's value to callers that only hold a
// Node.
func (n *Constant) ConstantValue() (any, bool) { return n.Value, true }

// Null returns the typed null constant.
func Null() *Constant {
	return &Constant{Value: nil, T: AnyType}
}

// Param references a declared parameter by name. Index is the parameter's
// slot in the activation record, assigned when the Lambda is assembled.
type Param struct {
	Name  string
	T     reflect.Type
	Index int
}

// Type returns the parameter's declared type.
func (n *Param) Type() reflect.Type { return n.T }

// MemberKind discriminates what a Member node resolved to.
type MemberKind int

const (
	// FieldMember is a struct field access.
	FieldMember MemberKind = iota

	// MethodMember is a bound method value (method referenced without a
	// call).
	MethodMember
)

// Member is a statically-resolved member access on a value.
type Member struct {
	Target Node
	Name   string
	Kind   MemberKind

	// FieldIndex locates a FieldMember via reflect.Value.FieldByIndex.
	FieldIndex []int

	// MethodIndex locates a MethodMember via reflect.Value.Method.
	MethodIndex int

	T reflect.Type
}

// Type returns the member's static type.
func (n *Member) Type() reflect.Type { return n.T }

// MethodCall is a statically-resolved instance method invocation. Argument
// nodes have already been wrapped in Convert nodes where implicit
// conversions apply.
type MethodCall struct {
	Target   Node
	Method   reflect.Method
	Args     []Node
	Variadic bool

	// OnPointer marks a pointer-receiver method found for a value-typed
	// target; the evaluator must take an addressable copy first.
	OnPointer bool

	T reflect.Type
}

// Type returns the call's static result type.
func (n *MethodCall) Type() reflect.Type { return n.T }

// StaticCall invokes a pre-bound function value: an extension method bound
// to its contributing instance, or a static member of a registered type.
type StaticCall struct {
	Name     string
	Fn       reflect.Value
	Args     []Node
	Variadic bool
	T        reflect.Type
}

// Type returns the call's static result type.
func (n *StaticCall) Type() reflect.Type { return n.T }

// Call invokes a function-typed expression (a registered function
// identifier or a function-valued parameter).
type Call struct {
	Callee   Node
	Args     []Node
	Variadic bool
	T        reflect.Type
}

// Type returns the call's static result type.
func (n *Call) Type() reflect.Type { return n.T }

// Binary is a binary operation. The operand nodes have already been
// promoted to a common type where numeric promotion applies.
type Binary struct {
	Op    token.Kind
	Left  Node
	Right Node
	T     reflect.Type
}

// Type returns the operation's static result type.
func (n *Binary) Type() reflect.Type { return n.T }

// Unary is a prefix operation: -, !, ~, or unary +.
type Unary struct {
	Op      token.Kind
	Operand Node
	T       reflect.Type
}

// Type returns the operation's static result type.
func (n *Unary) Type() reflect.Type { return n.T }

// Conditional is the ternary ?: operator. Both branches have been
// converted to the common type T.
type Conditional struct {
	Cond Node
	Then Node
	Else Node
	T    reflect.Type
}

// Type returns the conditional's static result type.
func (n *Conditional) Type() reflect.Type { return n.T }

// Convert changes the type of its operand. Implicit conversions are
// inserted by the binder; explicit conversions come from cast syntax.
type Convert struct {
	Operand  Node
	T        reflect.Type
	Explicit bool
}

// Type returns the conversion target type.
func (n *Convert) Type() reflect.Type { return n.T }

// Is is the "e is T" type test.
type Is struct {
	Operand Node
	Target  reflect.Type
}

// Type returns bool.
func (n *Is) Type() reflect.Type { return BoolType }

// As is the "e as T" conversion, yielding null on failure. Target must be
// a nilable type.
type As struct {
	Operand Node
	Target  reflect.Type
}

// Type returns the target type.
func (n *As) Type() reflect.Type { return n.Target }

// Index is an indexer access on a map, slice, array, or string.
type Index struct {
	Target Node
	Key    Node
	T      reflect.Type
}

// Type returns the element type.
func (n *Index) Type() reflect.Type { return n.T }

// TypeRef names a registered type. It is not a value: the binder permits
// it only as a member/call prefix, a cast target, a typeof or default
// argument, or an is/as operand.
type TypeRef struct {
	Alias    string
	T        reflect.Type
	Instance reflect.Value // static-member receiver; zero value of T by default
}

// Type returns the referenced type.
func (n *TypeRef) Type() reflect.Type { return n.T }

// TypeOf is the typeof(T) expression, a reflect.Type constant.
type TypeOf struct {
	Target reflect.Type
}

// Type returns reflect.Type's interface type.
func (n *TypeOf) Type() reflect.Type { return reflect.TypeOf(n.Target) }

// DynamicGet is a late-bound member read on a dynamic-capable receiver.
// The member name is matched case-sensitively at invocation time.
type DynamicGet struct {
	Target Node
	Name   string
}

// Type returns any: the static type of all dynamic accesses.
func (n *DynamicGet) Type() reflect.Type { return AnyType }

// DynamicCall is a late-bound member invocation on a dynamic-capable
// receiver. Arguments are bound statically; only the member lookup and the
// call itself are deferred.
type DynamicCall struct {
	Target Node
	Name   string
	Args   []Node
}

// Type returns any: the static type of all dynamic accesses.
func (n *DynamicCall) Type() reflect.Type { return AnyType }

// Assign writes Value into Target, which must be an l-value: a Param, a
// settable Member, or an Index on a map or slice.
type Assign struct {
	Target Node
	Value  Node
}

// Type returns the target's type; assignment yields the assigned value.
func (n *Assign) Type() reflect.Type { return n.Target.Type() }

// Lambda is the root of a bound expression: the declared parameters and
// the body they are visible to.
type Lambda struct {
	Params []*Param
	Body   Node
}

// Type returns the body's static type.
func (n *Lambda) Type() reflect.Type { return n.Body.Type() }
