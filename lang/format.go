package lang

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

// FormatResult renders an evaluation result for terminal output.
func FormatResult(result any) string {
	return formatResultValue(result)
}

// formatResultValue recursively formats a Go value.
func formatResultValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"

	case bool:
		return strconv.FormatBool(val)

	case string:
		return strconv.Quote(val)

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case uint64:
		return strconv.FormatUint(val, 10)

	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)

	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)

	case decimal.Decimal:
		return val.String()

	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatResultValue(item)
		}

		return "[" + strings.Join(parts, ", ") + "]"

	case map[string]any:
		parts := make([]string, 0, len(val))
		for _, k := range sortedKeys(val) {
			parts = append(parts, k+": "+formatResultValue(val[k]))
		}

		return "{" + strings.Join(parts, ", ") + "}"

	default:
		return fmt.Sprintf("%v", val)
	}
}

// identifiersDoc is the serialisable shape of an IdentifiersInfo.
type identifiersDoc struct {
	Identifiers []string `json:"identifiers" yaml:"identifiers"`
	Types       []string `json:"types"       yaml:"types"`
	Unknown     []string `json:"unknown"     yaml:"unknown"`
}

func (info IdentifiersInfo) doc() identifiersDoc {
	doc := identifiersDoc{}

	for _, id := range info.Identifiers {
		doc.Identifiers = append(doc.Identifiers, id.Name)
	}

	for _, ref := range info.Types {
		doc.Types = append(doc.Types, ref.Alias)
	}

	doc.Unknown = append(doc.Unknown, info.Unknown...)

	return doc
}

// MarshalJSON encodes the detected names as JSON.
func (info IdentifiersInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(info.doc())
}

// MarshalYAML encodes the detected names for YAML output.
func (info IdentifiersInfo) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(info.doc())
}
