// Package lang is an embeddable expression interpreter: it parses a
// C-family expression, binds names against host-provided Go values and
// types, produces a typed expression tree, and evaluates it — optionally
// returning a reusable, precompiled callable.
//
// # Pipeline
//
// Text flows through lexing, recursive-descent parsing with inline
// semantic binding, an ordered visitor pipeline, and compilation to a
// closure chain:
//
//	text + parameters + registry → tokens → bound tree → visited tree
//	    → compiled callable → result
//
// # Example
//
//	interp := lang.New()
//	_ = interp.SetVariable("x", 10)
//
//	out, err := interp.Eval("x * 2 + 1")
//	// out == 21
//
//	l, err := interp.Parse("a + b",
//	    lang.Parameter{Name: "a", Type: reflect.TypeOf(0)},
//	    lang.Parameter{Name: "b", Type: reflect.TypeOf(0)},
//	)
//	out, err = l.Invoke(3, 4)
//	// out == 7
//
// # Dynamic members
//
// A host object whose type implements reflectx.DynamicObject exposes
// ad-hoc, name-addressed members discovered at invocation time. Static
// member resolution always takes precedence; dynamic lookup is
// case-sensitive regardless of the interpreter's case-sensitivity
// setting, and a missing member surfaces as a DynamicBindingError.
//
// # Concurrency
//
// A Lambda is immutable after construction and safe for concurrent
// Invoke. An Interpreter is safe for concurrent Parse and Eval once all
// registration has completed; registration concurrent with parsing is
// undefined.
package lang
