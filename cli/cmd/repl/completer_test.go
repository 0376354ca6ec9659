package repl

import (
	"strings"
	"testing"

	"github.com/dynexpr/dynexpr/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		word   string
		start  int
		end    int
	}{
		{"empty", "", 0, "", 0, 0},
		{"single word", "foo", 3, "foo", 0, 3},
		{"mid word", "foobar", 3, "foobar", 0, 6},
		{"after operator", "a + bc", 6, "bc", 4, 6},
		{"after dot", "obj.mem", 7, "mem", 4, 7},
		{"cursor on boundary", "a + ", 4, "", 4, 4},
		{"cursor past end", "ab", 99, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.word || start != tt.start || end != tt.end {
				t.Errorf("expected (%q, %d, %d), got (%q, %d, %d)",
					tt.word, tt.start, tt.end, word, start, end)
			}
		})
	}
}

func TestReceiverName(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      string
	}{
		{"obj.mem", 4, "obj"},
		{"a + obj.mem", 8, "obj"},
		{"plain", 0, ""},
		{"f(x).y", 5, ""},
	}

	for _, tt := range tests {
		if tt.input == "f(x).y" {
			// Call-chain receivers are not completable; the walk stops
			// at the parenthesis boundary.
			got := receiverName(tt.input, tt.wordStart)
			if got != "" {
				t.Errorf("expected no receiver for %q, got %q", tt.input, got)
			}

			continue
		}

		got := receiverName(tt.input, tt.wordStart)
		if got != tt.want {
			t.Errorf("receiverName(%q, %d) = %q, want %q",
				tt.input, tt.wordStart, got, tt.want)
		}
	}
}

func TestComplete_TopLevelNames(t *testing.T) {
	interp := lang.New()

	if err := interp.SetVariable("velocity", 1); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	c := newCompleter(interp)

	out, pos, ok := c.complete("velo", 4)
	if !ok {
		t.Fatalf("expected a completion")
	}

	if out != "velocity" || pos != len("velocity") {
		t.Errorf("expected velocity completion, got %q at %d", out, pos)
	}
}

func TestComplete_MemberNames(t *testing.T) {
	interp := lang.New()

	type payload struct {
		Amount int
		Origin string
	}

	if err := interp.SetVariable("pkt", payload{}); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	c := newCompleter(interp)

	input := "pkt.Amo"

	out, _, ok := c.complete(input, len(input))
	if !ok {
		t.Fatalf("expected a member completion")
	}

	if !strings.HasSuffix(out, "pkt.Amount") {
		t.Errorf("expected member completion, got %q", out)
	}
}

func TestComplete_NoMatch(t *testing.T) {
	interp := lang.New(lang.WithoutDefaultTypes())

	c := newCompleter(interp)

	if _, _, ok := c.complete("zzzz", 4); ok {
		t.Errorf("expected no completion with empty registry")
	}
}
