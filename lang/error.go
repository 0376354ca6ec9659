package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrNameRequired      = NewError("a name is required")
	ErrReservedWord      = NewError("name is a reserved word")
	ErrTypeRequired      = NewError("a type is required")
	ErrNilFunction       = NewError("function value is nil or not a func")
	ErrDuplicateParam    = NewError("duplicate parameter name")
	ErrParamCount        = NewError("argument count does not match parameters")
	ErrDelegateShape     = NewError("delegate shape does not match lambda")
	ErrReflectionBlocked = NewError("reflection is disabled in expressions")
)

// Error represents a configuration or invocation error with optional
// structured logging attributes. It implements both error and
// slog.LogValuer.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches sentinels by message so that wrapped and attributed copies
// still compare equal under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError is a syntactic or binding failure at a known position in the
// expression text.
type ParseError struct {
	Message string
	Pos     int    // byte offset into Source
	Source  string // the original expression text
}

// NewParseError creates a ParseError for the given source position.
func NewParseError(msg string, pos int, source string) *ParseError {
	return &ParseError{Message: msg, Pos: pos, Source: source}
}

// Error implements the error interface, rendering the offending line with
// a caret marker under the failure position.
func (e *ParseError) Error() string {
	line, col := e.LineColumn()

	var buf strings.Builder

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(col))
	buf.WriteString(": ")
	buf.WriteString(e.Message)

	lines := strings.Split(e.Source, "\n")
	if line < 1 || line > len(lines) {
		return buf.String()
	}

	text := lines[line-1]

	buf.WriteString("\n  ")
	buf.WriteString(strconv.Itoa(line))
	buf.WriteString(" | ")
	buf.WriteString(text)
	buf.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(line))+5)

	if col > 0 {
		padding += strings.Repeat(" ", col-1)
	}

	buf.WriteString(padding + "^")

	return buf.String()
}

// LineColumn converts the byte offset into 1-based line and column
// numbers.
func (e *ParseError) LineColumn() (line, col int) {
	line, col = 1, 1

	for i := 0; i < e.Pos && i < len(e.Source); i++ {
		if e.Source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return line, col
}

// InvocationError wraps a failure raised while executing a compiled
// expression. The original host error is preserved unchanged as the
// cause; wrappers introduced by the evaluation substrate are unwrapped
// before it is recorded here.
type InvocationError struct {
	Expression string
	Err        error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return "invocation of " + strconv.Quote(e.Expression) + " failed: " +
		e.Err.Error()
}

// Unwrap returns the original host error.
func (e *InvocationError) Unwrap() error { return e.Err }

// DynamicBindingError reports that a dynamic member lookup failed at
// invocation time on an instance that type-checked as dynamic-capable.
type DynamicBindingError struct {
	Name     string
	Receiver string // type name of the receiver instance
}

// Error implements the error interface.
func (e *DynamicBindingError) Error() string {
	return "dynamic member " + strconv.Quote(e.Name) +
		" not found on " + e.Receiver
}
