package review

import (
	"strings"
	"testing"
)

func TestBuildPromptEmbedsCodeAndLanguage(t *testing.T) {
	p := BuildPrompt("x=1", "python")
	if !strings.Contains(p, "expert python code reviewer") {
		t.Fatalf("prompt missing language: %s", p)
	}
	if !strings.Contains(p, "x=1") {
		t.Fatalf("prompt missing code: %s", p)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	if BuildPrompt("a", "go") != BuildPrompt("a", "go") {
		t.Fatal("prompt not deterministic")
	}
}
