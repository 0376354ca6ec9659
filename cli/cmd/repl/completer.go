package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/dynexpr/dynexpr/lang"
	"github.com/dynexpr/dynexpr/lang/reflectx"
)

// prompt is the repl's input prefix.
const prompt = "» "

// completer suggests registered names and, after a member-access dot,
// the members of the receiver identifier's value type.
type completer struct {
	interp *lang.Interpreter
}

func newCompleter(interp *lang.Interpreter) *completer {
	return &completer{interp: interp}
}

// isWordBoundary returns true if the rune is a word delimiter for
// completion purposes: whitespace, the member-access dot, and operator
// or punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!', '~', '^',
		'&', '|', ',', '?', ':', ';':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its
// byte boundaries within input. Returns an empty word when the cursor
// sits on a boundary (after a space, between dots, start of line).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// receiverName returns the identifier immediately before ".word" at
// wordStart, or "" when the word is not part of a member-access chain.
func receiverName(input string, wordStart int) string {
	if wordStart == 0 || input[wordStart-1] != '.' {
		return ""
	}

	end := wordStart - 1
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:pos])
		if isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return input[pos:end]
}

// candidates returns the names eligible at the cursor: member names of
// the receiver when completing after a dot, registered names otherwise.
func (c *completer) candidates(input string, wordStart int) []string {
	if recv := receiverName(input, wordStart); recv != "" {
		info, err := c.interp.Detect(recv)
		if err != nil || len(info.Identifiers) == 0 {
			return nil
		}

		id := info.Identifiers[0]

		names := reflectx.Members(id.Type())

		if v, ok := constantValue(id); ok {
			names = append(names, reflectx.DynamicNames(v)...)
		}

		return names
	}

	idents, types := c.interp.KnownNames()

	return append(append(idents, types...), ctrlCommands...)
}

// constantValue unwraps an identifier bound to a constant.
func constantValue(id *lang.Identifier) (any, bool) {
	type valuer interface{ ConstantValue() (any, bool) }

	if c, ok := id.Expr.(valuer); ok {
		return c.ConstantValue()
	}

	return nil, false
}

// complete replaces the word at the cursor with its best fuzzy match.
// It returns the new input, the new cursor position, and whether a
// completion applied.
func (c *completer) complete(input string, cursor int) (string, int, bool) {
	word, start, end := wordBounds(input, cursor)
	if word == "" {
		return "", 0, false
	}

	names := c.candidates(input, start)
	if len(names) == 0 {
		return "", 0, false
	}

	matches := fuzzy.Find(word, names)
	if len(matches) == 0 {
		// Fall back to prefix matching for very short words.
		for _, n := range names {
			if strings.HasPrefix(strings.ToLower(n), strings.ToLower(word)) {
				matches = append(matches, fuzzy.Match{Str: n})

				break
			}
		}
	}

	if len(matches) == 0 {
		return "", 0, false
	}

	best := matches[0].Str
	out := input[:start] + best + input[end:]

	return out, start + len(best), true
}
