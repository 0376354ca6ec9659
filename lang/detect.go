package lang

import (
	"github.com/dynexpr/dynexpr/lang/lexer"
	"github.com/dynexpr/dynexpr/lang/token"
)

// IdentifiersInfo is the outcome of detecting identifiers in an
// expression without binding it: every identifier token classified as a
// known identifier, a known type alias, or an unknown name that would
// have to be supplied as a parameter.
//
// Detection is a best-effort pre-parse pass: member and call chains are
// not validated, so a nonsense expression can still detect cleanly.
type IdentifiersInfo struct {
	Identifiers []*Identifier
	Types       []*ReferenceType
	Unknown     []string
}

// Detect classifies the identifiers of text against the current
// registries. Lexical errors surface as a ParseError; nothing is bound
// or evaluated.
func (i *Interpreter) Detect(text string) (IdentifiersInfo, error) {
	toks, err := lexer.Scan(text)
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			return IdentifiersInfo{}, NewParseError(le.Msg, le.Pos, text)
		}

		return IdentifiersInfo{}, err
	}

	var (
		info IdentifiersInfo
		seen = map[string]bool{}
	)

	for n, t := range toks {
		if t.Kind != token.Ident {
			continue
		}

		// Member names bind against their receiver, not the registry.
		if n > 0 && toks[n-1].Kind == token.Dot {
			continue
		}

		key := i.settings.canonical(t.Text)
		if seen[key] {
			continue
		}

		seen[key] = true

		if id, ok := i.settings.identifiers[key]; ok {
			info.Identifiers = append(info.Identifiers, id)

			continue
		}

		if ref, ok := i.settings.types[key]; ok {
			info.Types = append(info.Types, ref)

			continue
		}

		info.Unknown = append(info.Unknown, t.Text)
	}

	return info, nil
}
