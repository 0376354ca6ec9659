package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dynexpr/dynexpr/pkg"
)

func TestExpression_FromArgs(t *testing.T) {
	text, err := expression([]string{"1", "+", "2"}, "")
	if err != nil {
		t.Fatalf("expression error: %v", err)
	}

	if text != "1 + 2" {
		t.Errorf("expected joined args, got %q", text)
	}
}

func TestExpression_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expr.txt")

	if err := os.WriteFile(path, []byte("  6 * 7\n"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	text, err := expression(nil, path)
	if err != nil {
		t.Fatalf("expression error: %v", err)
	}

	if text != "6 * 7" {
		t.Errorf("expected trimmed file content, got %q", text)
	}
}

func TestExpression_Missing(t *testing.T) {
	_, err := expression(nil, "")
	if !errors.Is(err, pkg.ErrNoExpression) {
		t.Errorf("expected ErrNoExpression, got %v", err)
	}
}

func TestMakeInterpreter_VarsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")

	content := "answer: 42\ngreeting: hello\nratio: 2.5\n"

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	interp, err := MakeInterpreter(Options{VarsFiles: []string{path}})
	if err != nil {
		t.Fatalf("MakeInterpreter: %v", err)
	}

	out, err := interp.Eval("answer")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != uint64(42) && out != 42 && out != int64(42) {
		t.Errorf("expected 42, got %T(%v)", out, out)
	}

	out, err = interp.Eval("greeting")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != "hello" {
		t.Errorf("expected hello, got %v", out)
	}
}

func TestMakeInterpreter_BadVarsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")

	if err := os.WriteFile(path, []byte(":\n:::"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	if _, err := MakeInterpreter(Options{VarsFiles: []string{path}}); err == nil {
		t.Errorf("expected error for malformed vars file")
	}
}

func TestMakeInterpreter_CaseInsensitive(t *testing.T) {
	interp, err := MakeInterpreter(Options{CaseInsensitive: true})
	if err != nil {
		t.Fatalf("MakeInterpreter: %v", err)
	}

	if err := interp.SetVariable("value", 5); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	out, err := interp.Eval("VALUE")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out != 5 {
		t.Errorf("expected folded lookup, got %v", out)
	}
}
