package reflectx

import "reflect"

// ExtensionMethod is a callable contributed by a registered type to
// receivers of another type: a bound method whose first parameter accepts
// the receiver. Extension methods are consulted only after instance-method
// resolution fails.
type ExtensionMethod struct {
	Name string

	// Recv is the first parameter type, which the receiver expression
	// must convert to implicitly.
	Recv reflect.Type

	// Fn is the method bound to its contributing instance; its signature
	// still includes the receiver parameter at position 0.
	Fn reflect.Value
}

// Harvest collects the extension methods a registered type contributes:
// every exported method taking at least one parameter, bound to the given
// instance.
func Harvest(inst reflect.Value) []ExtensionMethod {
	if !inst.IsValid() {
		return nil
	}

	var out []ExtensionMethod

	t := inst.Type()

	for i := range t.NumMethod() {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}

		fn := inst.Method(i)
		if fn.Type().NumIn() == 0 {
			continue
		}

		out = append(out, ExtensionMethod{
			Name: m.Name,
			Recv: fn.Type().In(0),
			Fn:   fn,
		})
	}

	return out
}

// ExtensionCandidates filters the extension set down to methods named
// name whose first parameter accepts the receiver type, and returns them
// as overload candidates with the receiver parameter stripped from the
// matched signature.
func ExtensionCandidates(
	exts []ExtensionMethod,
	recv reflect.Type,
	name string,
	fold bool,
) []Candidate {
	var out []Candidate

	for _, e := range exts {
		if !nameMatch(e.Name, name, fold) {
			continue
		}

		switch Classify(recv, e.Recv) {
		case Identity, Implicit:
		default:
			continue
		}

		ft := e.Fn.Type()

		in := make([]reflect.Type, 0, ft.NumIn()-1)
		for i := 1; i < ft.NumIn(); i++ {
			in = append(in, ft.In(i))
		}

		outs := make([]reflect.Type, 0, ft.NumOut())
		for i := range ft.NumOut() {
			outs = append(outs, ft.Out(i))
		}

		out = append(out, Candidate{
			Name:      e.Name,
			Fn:        e.Fn,
			Sig:       reflect.FuncOf(in, outs, ft.IsVariadic()),
			Ext:       true,
			RecvParam: e.Recv,
		})
	}

	return out
}
