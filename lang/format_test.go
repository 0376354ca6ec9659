package lang

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"float", 2.5, "2.5"},
		{"string", "hi", `"hi"`},
		{"decimal", decimal.RequireFromString("1.50"), "1.5"},
		{"slice", []any{1, "a"}, `[1, "a"]`},
		{"map", map[string]any{"b": 2, "a": 1}, `{a: 1, b: 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResult(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParse_CanonicalPrinting(t *testing.T) {
	interp := New()

	tests := []struct {
		input string
		want  string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1+2)*3", "(1 + 2) * 3"},
		{"1+2+3", "1 + 2 + 3"},
		{`true?1:2`, "true ? 1 : 2"},
		{`"a"+"b"`, `"a" + "b"`},
		{"-(1+2)", "-(1 + 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l, err := interp.Parse(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if got := l.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParse_PrintReparses(t *testing.T) {
	interp := New()

	inputs := []string{
		"1 + 2 * (3 - 4)",
		"1 < 2 ? 10 : 20",
		`"x" + 1`,
	}

	for _, input := range inputs {
		l, err := interp.Parse(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}

		orig, err := l.Invoke()
		if err != nil {
			t.Fatalf("invoke %q: %v", input, err)
		}

		reparsed, err := interp.Parse(l.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", l.String(), err)
		}

		again, err := reparsed.Invoke()
		if err != nil {
			t.Fatalf("invoke reparse: %v", err)
		}

		if orig != again {
			t.Errorf("round-trip diverged for %q: %v vs %v", input, orig, again)
		}
	}
}
