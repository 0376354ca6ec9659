// Package lexer converts expression source text into a stream of tokens.
//
// The lexer decodes literal values eagerly: integer literals honour the
// u/U/l/L suffixes, real literals honour f/F (float32), d/D (float64), and
// m/M (decimal), and character and string literals decode the standard
// escape sequences including \uXXXX and \UXXXXXXXX unicode forms.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/dynexpr/dynexpr/lang/token"
)

// Error is a lexical error at a byte offset in the source.
type Error struct {
	Pos int
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Msg + " at offset " + strconv.Itoa(e.Pos)
}

// Lexer scans expression source text into tokens.
type Lexer struct {
	src   string
	pos   int // byte offset of the next unread character
	start int // byte offset of the current token's first character
}

// New creates a Lexer over the given source text.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Scan tokenizes the entire source and returns the token stream terminated
// by an EOF token. The first lexical error aborts the scan.
func Scan(src string) ([]token.Token, error) {
	l := New(src)

	var toks []token.Token

	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, t)

		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Next returns the next token in the stream.
func (l *Lexer) Next() (token.Token, error) {
	l.skipSpace()

	l.start = l.pos

	if l.pos >= len(l.src) {
		return l.make(token.EOF), nil
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case isIdentStart(r):
		return l.scanIdent(), nil

	case unicode.IsDigit(r):
		return l.scanNumber()

	case r == '.' && l.pos+size < len(l.src) &&
		unicode.IsDigit(rune(l.src[l.pos+size])):
		return l.scanNumber()

	case r == '"':
		return l.scanString()

	case r == '\'':
		return l.scanChar()
	}

	return l.scanOperator(r, size)
}

// skipSpace advances past whitespace.
func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		l.pos += size
	}
}

// make builds a token of the given kind spanning [l.start, l.pos).
func (l *Lexer) make(kind token.Kind) token.Token {
	return token.Token{
		Kind: kind,
		Text: l.src[l.start:l.pos],
		Pos:  l.start,
	}
}

func (l *Lexer) errorf(pos int, msg string) error {
	return &Error{Pos: pos, Msg: msg}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanIdent scans an identifier or keyword.
func (l *Lexer) scanIdent() token.Token {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}

		l.pos += size
	}

	t := l.make(token.Lookup(l.src[l.start:l.pos]))

	return t
}

// scanNumber scans an integer or real literal with optional type suffix.
func (l *Lexer) scanNumber() (token.Token, error) {
	isReal := false

	// Hex literals carry no fractional part or exponent.
	if strings.HasPrefix(l.src[l.pos:], "0x") ||
		strings.HasPrefix(l.src[l.pos:], "0X") {
		l.pos += 2

		for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
			l.pos++
		}

		return l.finishInt(l.src[l.start:l.pos], 16)
	}

	digits := func() {
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
	}

	digits()

	if l.pos < len(l.src) && l.src[l.pos] == '.' &&
		l.pos+1 < len(l.src) && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
		isReal = true
		l.pos++

		digits()
	}

	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		mark := l.pos
		l.pos++

		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}

		if l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			isReal = true

			digits()
		} else {
			// Not an exponent after all (e.g. "2e" followed by an ident).
			l.pos = mark
		}
	}

	text := l.src[l.start:l.pos]

	// Real suffixes apply to integer-shaped literals too: 1f is float32(1).
	if l.pos < len(l.src) {
		switch l.src[l.pos] {
		case 'f', 'F', 'd', 'D', 'm', 'M':
			suffix := l.src[l.pos]
			l.pos++

			return l.finishReal(text, suffix)
		}
	}

	if isReal {
		return l.finishReal(text, 'd')
	}

	return l.finishInt(text, 10)
}

func isHexDigit(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// finishInt consumes an optional integer suffix and decodes the literal.
func (l *Lexer) finishInt(text string, base int) (token.Token, error) {
	var unsigned, long bool

	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case 'u', 'U':
			if unsigned {
				return token.Token{}, l.errorf(l.pos, "duplicate integer suffix")
			}

			unsigned = true
			l.pos++

			continue
		case 'l', 'L':
			if long {
				return token.Token{}, l.errorf(l.pos, "duplicate integer suffix")
			}

			long = true
			l.pos++

			continue
		}

		break
	}

	digits := text
	if base == 16 {
		digits = text[2:]
	}

	t := l.make(token.IntLit)

	switch {
	case unsigned && long:
		v, err := strconv.ParseUint(digits, base, 64)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid integer literal")
		}

		t.Value = v

	case unsigned:
		v, err := strconv.ParseUint(digits, base, 32)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid integer literal")
		}

		t.Value = uint32(v)

	case long:
		v, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid integer literal")
		}

		t.Value = v

	default:
		// Unsuffixed literals adopt the smallest of int, int64 that holds
		// the value.
		v, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid integer literal")
		}

		if v >= minInt && v <= maxInt {
			t.Value = int(v)
		} else {
			t.Value = v
		}
	}

	return t, nil
}

const (
	maxInt = int64(^uint(0) >> 1)
	minInt = -maxInt - 1
)

// finishReal decodes a real literal with the given suffix character.
func (l *Lexer) finishReal(text string, suffix byte) (token.Token, error) {
	t := l.make(token.RealLit)

	switch suffix {
	case 'f', 'F':
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid real literal")
		}

		t.Value = float32(v)

	case 'm', 'M':
		v, err := decimal.NewFromString(text)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid decimal literal")
		}

		t.Value = v

	default:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token.Token{}, l.errorf(l.start, "invalid real literal")
		}

		t.Value = v
	}

	return t, nil
}

// scanString scans a double-quoted string literal.
func (l *Lexer) scanString() (token.Token, error) {
	l.pos++ // opening quote

	var sb strings.Builder

	for {
		if l.pos >= len(l.src) {
			return token.Token{}, l.errorf(l.start, "unterminated string literal")
		}

		r, size := utf8.DecodeRuneInString(l.src[l.pos:])

		switch r {
		case '"':
			l.pos++

			t := l.make(token.StringLit)
			t.Value = sb.String()

			return t, nil

		case '\\':
			esc, err := l.scanEscape('"')
			if err != nil {
				return token.Token{}, err
			}

			sb.WriteRune(esc)

		case '\n':
			return token.Token{}, l.errorf(l.start, "unterminated string literal")

		default:
			l.pos += size

			sb.WriteRune(r)
		}
	}
}

// scanChar scans a single-quoted character literal.
func (l *Lexer) scanChar() (token.Token, error) {
	l.pos++ // opening quote

	if l.pos >= len(l.src) {
		return token.Token{}, l.errorf(l.start, "unterminated character literal")
	}

	var value rune

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	switch r {
	case '\\':
		esc, err := l.scanEscape('\'')
		if err != nil {
			return token.Token{}, err
		}

		value = esc

	case '\'', '\n':
		return token.Token{}, l.errorf(l.start, "empty character literal")

	default:
		l.pos += size
		value = r
	}

	if l.pos >= len(l.src) || l.src[l.pos] != '\'' {
		return token.Token{}, l.errorf(l.start, "unterminated character literal")
	}

	l.pos++

	t := l.make(token.CharLit)
	t.Value = value

	return t, nil
}

// scanEscape decodes one escape sequence. The leading backslash has not
// been consumed. quote is the active delimiter, accepted as \" or \'.
func (l *Lexer) scanEscape(quote rune) (rune, error) {
	escPos := l.pos
	l.pos++ // backslash

	if l.pos >= len(l.src) {
		return 0, l.errorf(escPos, "unterminated escape sequence")
	}

	c := l.src[l.pos]
	l.pos++

	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case 'u':
		return l.scanUnicodeEscape(escPos, 4)
	case 'U':
		return l.scanUnicodeEscape(escPos, 8)
	case 'x':
		return l.scanUnicodeEscape(escPos, 2)
	}

	if rune(c) == quote {
		return quote, nil
	}

	return 0, l.errorf(escPos, "unknown escape sequence")
}

// scanUnicodeEscape decodes exactly n hex digits into a rune.
func (l *Lexer) scanUnicodeEscape(escPos, n int) (rune, error) {
	if l.pos+n > len(l.src) {
		return 0, l.errorf(escPos, "unterminated unicode escape")
	}

	digits := l.src[l.pos : l.pos+n]

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, l.errorf(escPos, "invalid unicode escape")
	}

	l.pos += n

	if !utf8.ValidRune(rune(v)) {
		return 0, l.errorf(escPos, "invalid unicode code point")
	}

	return rune(v), nil
}

// scanOperator scans punctuators and operator glyphs.
func (l *Lexer) scanOperator(r rune, size int) (token.Token, error) {
	l.pos += size

	two := func(next byte, ifTwo, ifOne token.Kind) token.Token {
		if l.pos < len(l.src) && l.src[l.pos] == next {
			l.pos++

			return l.make(ifTwo)
		}

		return l.make(ifOne)
	}

	switch r {
	case '+':
		return l.make(token.Plus), nil
	case '-':
		return l.make(token.Minus), nil
	case '*':
		return l.make(token.Star), nil
	case '/':
		return l.make(token.Slash), nil
	case '%':
		return l.make(token.Percent), nil
	case '~':
		return l.make(token.Tilde), nil
	case '.':
		return l.make(token.Dot), nil
	case ',':
		return l.make(token.Comma), nil
	case '(':
		return l.make(token.LParen), nil
	case ')':
		return l.make(token.RParen), nil
	case '[':
		return l.make(token.LBracket), nil
	case ']':
		return l.make(token.RBracket), nil
	case ':':
		return l.make(token.Colon), nil
	case '=':
		return two('=', token.Equal, token.Assign), nil
	case '!':
		return two('=', token.NotEqual, token.Not), nil
	case '<':
		if l.pos < len(l.src) && l.src[l.pos] == '<' {
			l.pos++

			return l.make(token.Shl), nil
		}

		return two('=', token.LessEqual, token.Less), nil
	case '>':
		if l.pos < len(l.src) && l.src[l.pos] == '>' {
			l.pos++

			return l.make(token.Shr), nil
		}

		return two('=', token.GreaterEqual, token.Greater), nil
	case '&':
		return two('&', token.AndAnd, token.Amp), nil
	case '|':
		return two('|', token.OrOr, token.Pipe), nil
	case '^':
		return l.make(token.Caret), nil
	case '?':
		return two('?', token.Coalesce, token.Question), nil
	}

	return token.Token{}, l.errorf(l.start, "unexpected character "+strconv.QuoteRune(r))
}
