package reflectx

import (
	"errors"
	"fmt"
	"reflect"
)

// Overload-resolution errors. The binder wraps these into positioned parse
// errors.
var (
	ErrNoApplicable = errors.New("no applicable overload")
	ErrAmbiguous    = errors.New("ambiguous overload")
)

// Arg is a call-site argument as the binder sees it: its static type, and
// whether it is the untyped null literal (which converts to any nilable
// parameter).
type Arg struct {
	Type   reflect.Type
	IsNull bool
}

// Candidate is one callable a call site may resolve to.
type Candidate struct {
	Name string

	// Fn is the callable for pre-bound candidates (extension methods,
	// static helpers). Zero when Method is the callable.
	Fn reflect.Value

	// Method is set for instance-method candidates.
	Method    reflect.Method
	IsMethod  bool
	OnPointer bool

	// Ext marks an extension-method candidate: Fn's real signature
	// includes the receiver at position 0 with type RecvParam, stripped
	// from Sig for matching.
	Ext       bool
	RecvParam reflect.Type

	// Sig is the signature the arguments are matched against, with any
	// receiver parameter already stripped.
	Sig reflect.Type
}

// Match is the outcome of resolving a call site: the winning candidate
// and the parameter type each argument must be converted to.
type Match struct {
	Candidate  Candidate
	ParamTypes []reflect.Type

	// Variadic marks a variadic expansion (extra arguments packed into
	// the trailing slice by the call).
	Variadic bool

	// CallSlice marks a pass-through of an already-built slice to a
	// variadic callable; the invoker must use reflect CallSlice.
	CallSlice bool

	Result    reflect.Type
	ErrResult bool // signature carries a trailing error result
}

// conversion costs, ordered so that exact beats widening beats variadic
// expansion.
const (
	costExact    = 0
	costImplicit = 1
	costVariadic = 10
)

// argCost scores binding one argument to one parameter type, or reports
// the argument inapplicable.
func argCost(a Arg, param reflect.Type) (int, bool) {
	if a.IsNull {
		if param == AnyType || IsNilable(param) {
			return costImplicit, true
		}

		return 0, false
	}

	switch Classify(a.Type, param) {
	case Identity:
		return costExact, true
	case Implicit:
		return costImplicit, true
	default:
		return 0, false
	}
}

// score computes the total conversion cost of a candidate for the call
// site, or reports it inapplicable.
func score(c Candidate, args []Arg) (Match, int, bool) {
	sig := c.Sig
	numIn := sig.NumIn()

	m := Match{Candidate: c}

	switch {
	case sig.NumOut() == 0:
		m.Result = AnyType
	case sig.NumOut() == 1 && sig.Out(0) == errorType:
		m.Result = AnyType
		m.ErrResult = true
	case sig.NumOut() == 1:
		m.Result = sig.Out(0)
	case sig.NumOut() == 2 && sig.Out(1) == errorType:
		m.Result = sig.Out(0)
		m.ErrResult = true
	default:
		return Match{}, 0, false
	}

	total := 0

	if sig.IsVariadic() {
		if len(args) < numIn-1 {
			return Match{}, 0, false
		}

		// Slice pass-through: the final argument already has the
		// variadic slice type.
		if len(args) == numIn && !args[numIn-1].IsNull {
			if k := Classify(args[numIn-1].Type, sig.In(numIn-1)); k == Identity {
				ok := true

				for i := range numIn - 1 {
					cost, applicable := argCost(args[i], sig.In(i))
					if !applicable {
						ok = false

						break
					}

					total += cost

					m.ParamTypes = append(m.ParamTypes, sig.In(i))
				}

				if ok {
					m.ParamTypes = append(m.ParamTypes, sig.In(numIn-1))
					m.CallSlice = true

					return m, total, true
				}

				total = 0
				m.ParamTypes = nil
			}
		}

		elem := sig.In(numIn - 1).Elem()

		for i, a := range args {
			param := elem
			if i < numIn-1 {
				param = sig.In(i)
			}

			cost, ok := argCost(a, param)
			if !ok {
				return Match{}, 0, false
			}

			total += cost

			m.ParamTypes = append(m.ParamTypes, param)
		}

		// A variadic expansion loses ties against a fixed-arity match.
		total += costVariadic
		m.Variadic = true

		return m, total, true
	}

	if len(args) != numIn {
		return Match{}, 0, false
	}

	for i, a := range args {
		cost, ok := argCost(a, sig.In(i))
		if !ok {
			return Match{}, 0, false
		}

		total += cost

		m.ParamTypes = append(m.ParamTypes, sig.In(i))
	}

	return m, total, true
}

// Resolve picks the best applicable candidate for the call site using
// conversion-cost ordering: exact match beats implicit widening beats
// variadic expansion. A tie between distinct candidates is an error.
func Resolve(name string, cands []Candidate, args []Arg) (Match, error) {
	var (
		best     Match
		bestCost = -1
		tie      bool
	)

	for _, c := range cands {
		m, cost, ok := score(c, args)
		if !ok {
			continue
		}

		switch {
		case bestCost < 0 || cost < bestCost:
			best, bestCost, tie = m, cost, false
		case cost == bestCost:
			tie = true
		}
	}

	if bestCost < 0 {
		return Match{}, fmt.Errorf("%w for %s", ErrNoApplicable, name)
	}

	if tie {
		return Match{}, fmt.Errorf("%w for %s", ErrAmbiguous, name)
	}

	return best, nil
}

// MethodSig strips the receiver from a method's func type so it can be
// scored like any other callable.
func MethodSig(m reflect.Method) reflect.Type {
	ft := m.Func.Type()

	in := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}

	out := make([]reflect.Type, 0, ft.NumOut())
	for i := range ft.NumOut() {
		out = append(out, ft.Out(i))
	}

	return reflect.FuncOf(in, out, ft.IsVariadic())
}
