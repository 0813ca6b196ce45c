package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/llir/llvm/ir"
)

const addModule = `
source_filename = "add.ll"

define i64 @add(i64 %a, i64 %b) {
entry:
  %sum = add i64 %a, %b
  ret i64 %sum
}
`

func TestFromString(t *testing.T) {
	ctx, err := FromString("add.ll", addModule)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	var funcs int
	err = ctx.Analyze(func(m *ir.Module) error {
		funcs = len(m.Funcs)
		return nil
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if funcs != 1 {
		t.Fatalf("module has %d functions, want 1", funcs)
	}
}

func TestFromString_ParseError(t *testing.T) {
	if _, err := FromString("bad.ll", "define i64 @f("); err == nil {
		t.Fatal("FromString accepted malformed input")
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.ll")
	if err := os.WriteFile(path, []byte(addModule), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if ctx.Path() != path {
		t.Fatalf("Path() = %q, want %q", ctx.Path(), path)
	}
}

func TestAnalyzeResult_PropagatesError(t *testing.T) {
	ctx, err := FromString("add.ll", addModule)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	sentinel := errors.New("analysis failed")
	_, err = AnalyzeResult(ctx, func(*ir.Module) (int, error) {
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("AnalyzeResult error = %v, want sentinel", err)
	}
}
