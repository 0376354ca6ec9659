package lang

import (
	"strings"
	"testing"
)

func TestDetect_Classification(t *testing.T) {
	interp := New()

	if err := interp.SetVariable("known", 1); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	info, err := interp.Detect("known + mystery * Math.Pow(other, 2)")
	if err != nil {
		t.Fatalf("detect error: %v", err)
	}

	if len(info.Identifiers) != 1 || info.Identifiers[0].Name != "known" {
		t.Errorf("expected known identifier, got %v", info.Identifiers)
	}

	if len(info.Types) != 1 || info.Types[0].Alias != "Math" {
		t.Errorf("expected Math type, got %v", info.Types)
	}

	want := map[string]bool{"mystery": false, "other": false}

	for _, u := range info.Unknown {
		want[u] = true
	}

	for name, found := range want {
		if !found {
			t.Errorf("expected %s in unknowns %v", name, info.Unknown)
		}
	}
}

func TestDetect_MemberNamesSkipped(t *testing.T) {
	interp := New()

	if err := interp.SetVariable("obj", struct{ Foo int }{}); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	info, err := interp.Detect("obj.Foo.Bar")
	if err != nil {
		t.Fatalf("detect error: %v", err)
	}

	if len(info.Unknown) != 0 {
		t.Errorf("member names must not be unknowns: %v", info.Unknown)
	}
}

func TestDetect_InvalidChainsTolerated(t *testing.T) {
	interp := New()

	// Detection is a pre-parse pass: this would never bind, but the
	// identifiers still classify.
	info, err := interp.Detect("ghost..(")
	if err != nil {
		t.Fatalf("detect error: %v", err)
	}

	if len(info.Unknown) != 1 || info.Unknown[0] != "ghost" {
		t.Errorf("expected ghost unknown, got %v", info.Unknown)
	}
}

func TestDetect_Deduplicates(t *testing.T) {
	interp := New()

	info, err := interp.Detect("x + x + x")
	if err != nil {
		t.Fatalf("detect error: %v", err)
	}

	if len(info.Unknown) != 1 {
		t.Errorf("expected deduplicated unknowns, got %v", info.Unknown)
	}
}

func TestDetect_KeywordsExcluded(t *testing.T) {
	interp := New()

	if err := interp.SetVariable("x", any(nil)); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	info, err := interp.Detect("x is int")
	if err != nil {
		t.Fatalf("detect error: %v", err)
	}

	for _, u := range info.Unknown {
		if u == "is" {
			t.Errorf("keyword leaked into unknowns: %v", info.Unknown)
		}
	}
}

func TestDetect_MarshalYAML(t *testing.T) {
	interp := New()

	info, err := interp.Detect("alpha + 1")
	if err != nil {
		t.Fatalf("detect error: %v", err)
	}

	out, err := info.MarshalYAML()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	if !strings.Contains(string(out), "alpha") {
		t.Errorf("expected alpha in YAML output: %s", out)
	}
}
