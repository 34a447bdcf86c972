package cli

import (
	"testing"

	"github.com/s0up4200/qbitapi"
)

func TestCompileFilter(t *testing.T) {
	if _, err := compileFilter(""); err == nil {
		t.Fatalf("expected empty expression to fail compilation")
	}
	if _, err := compileFilter("Progress >"); err == nil {
		t.Fatalf("expected malformed expression to fail compilation")
	}
	if _, err := compileFilter("Progress == 1.0"); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
}

func TestFilterEvaluate(t *testing.T) {
	torrent := &qbitapi.Torrent{
		Name:     "Some.Linux.ISO",
		State:    "uploading",
		Progress: 1.0,
		Ratio:    2.5,
		Tags:     "iso, public",
		Size:     4 << 30,
	}

	cases := map[string]bool{
		"Progress == 1.0":                      true,
		"Ratio > 3.0":                          false,
		`State == "uploading" and Complete`:    true,
		`HasTag("PUBLIC")`:                     true,
		`HasTag("private")`:                    false,
		`Name contains "Linux" and Size > 100`: true,
	}

	for expression, want := range cases {
		filter, err := compileFilter(expression)
		if err != nil {
			t.Fatalf("compile %q: %v", expression, err)
		}
		if got := filter.Evaluate(torrent); got != want {
			t.Fatalf("Evaluate(%q) = %v, want %v", expression, got, want)
		}
	}
}

func TestFilterUnknownFieldIsNil(t *testing.T) {
	filter, err := compileFilter("NoSuchField == nil")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !filter.Evaluate(&qbitapi.Torrent{}) {
		t.Fatalf("unknown fields should evaluate as nil, not fail")
	}
}
