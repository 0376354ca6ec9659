package lang

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
)

// programCache stores compiled lambdas keyed by source hash combined
// with the interpreter configuration fingerprint. Visitor mutation and
// registry writes invalidate entries through the settings generation
// counter embedded in the key.
//
//nolint:gochecknoglobals
var programCache sync.Map

// cacheKey fingerprints one (source, configuration, parameter shape)
// combination.
func (i *Interpreter) cacheKey(
	text string, want reflect.Type, params []Parameter,
) string {
	var fp strings.Builder

	fp.WriteString(strconv.FormatUint(i.settings.id, 36))
	fp.WriteByte(':')
	fp.WriteString(strconv.FormatUint(i.settings.gen, 36))
	fp.WriteByte(':')
	fp.WriteString(strconv.Itoa(len(i.visitors)))

	if want != nil {
		fp.WriteByte(':')
		fp.WriteString(want.String())
	}

	for _, p := range params {
		fp.WriteByte(';')
		fp.WriteString(p.Name)
		fp.WriteByte('=')

		t := p.Type
		if t == nil && p.Value != nil {
			t = reflect.TypeOf(p.Value)
		}

		if t != nil {
			fp.WriteString(t.String())
		}
	}

	key := xxh3.Hash([]byte(text)) ^ xxh3.Hash([]byte(fp.String()))

	return strconv.FormatUint(key, 36)
}

// cachedParse returns a compiled Lambda for the text, reusing a prior
// parse when the configuration and parameter shape match.
func (i *Interpreter) cachedParse(
	text string, want reflect.Type, params []Parameter,
) (*Lambda, error) {
	key := i.cacheKey(text, want, params)

	if cached, ok := programCache.Load(key); ok {
		i.logger.Trace("program cache hit",
			slog.String("key", key),
			slog.Int("source_bytes", len(text)),
		)

		return cached.(*Lambda), nil
	}

	l, err := i.ParseAs(text, want, params...)
	if err != nil {
		return nil, err
	}

	programCache.Store(key, l)

	return l, nil
}

// ClearCache removes every cached program. This is primarily useful for
// tests and for reclaiming memory.
func ClearCache() {
	programCache = sync.Map{}
}
