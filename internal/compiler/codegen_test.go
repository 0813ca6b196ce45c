package compiler

import (
	"errors"
	"testing"

	"floc/internal/flo"
	"floc/internal/pass"
	"floc/internal/source"
)

const lowerableModule = `
source_filename = "add.ll"
target datalayout = "e-m:e-i8:8:32-i16:16:32-i64:64-i128:128-n32:64-S128"

@limit = constant i32 100
@table = constant [4 x i64] zeroinitializer
@external_flag = external global i1

declare i64 @opaque_helper(i64)

define i64 @add(i64 %a, i64 %b) {
entry:
  %sum = add i64 %a, %b
  ret i64 %sum
}

define void @touch() {
entry:
  ret void
}
`

func generateString(t *testing.T, text string) (*flo.Object, error) {
	t.Helper()
	ctx, err := source.FromString("test.ll", text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c.Run()
}

func TestNewCodeGenerator_RequiresName(t *testing.T) {
	_, err := NewCodeGenerator("", pass.NewDataMap(), nil)
	if !errors.Is(err, ErrMissingModuleName) {
		t.Fatalf("err = %v, want ErrMissingModuleName", err)
	}
}

func TestCodeGenerator_RequiresModuleMap(t *testing.T) {
	gen, err := NewCodeGenerator("empty", pass.NewDataMap(), nil)
	if err != nil {
		t.Fatalf("NewCodeGenerator: %v", err)
	}
	if _, err := gen.Run(); !errors.Is(err, ErrMissingModuleMap) {
		t.Fatalf("Run err = %v, want ErrMissingModuleMap", err)
	}
}

func TestCodeGenerator_DefinitionsGetEntryBlocks(t *testing.T) {
	obj, err := generateString(t, lowerableModule)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !obj.Partial() {
		t.Error("generated object should be partial")
	}
	if obj.Name != "add.ll" {
		t.Errorf("Name = %q, want add.ll", obj.Name)
	}

	id, ok := obj.Symbols.Code.ByName("add")
	if !ok {
		t.Fatal("no code symbol for add")
	}
	entry := obj.Blocks.Get(id)
	if entry.Signature == nil {
		t.Fatal("add entry block has no signature")
	}
	if len(entry.Signature.Params) != 2 || len(entry.Signature.Returns) != 1 {
		t.Fatalf("add signature %d params %d returns, want 2 and 1",
			len(entry.Signature.Params), len(entry.Signature.Returns))
	}
	if entry.Poison.Kind != flo.PoisonUndefined {
		t.Errorf("untranslated body should stay Undefined, got %v", entry.Poison.Kind)
	}
	param := obj.Variables.Get(entry.Signature.Params[0])
	if param.Type.Kind != flo.TypeUnsigned64 {
		t.Errorf("param type = %v, want TypeUnsigned64", param.Type.Kind)
	}

	id, ok = obj.Symbols.Code.ByName("touch")
	if !ok {
		t.Fatal("no code symbol for touch")
	}
	entry = obj.Blocks.Get(id)
	if entry.Signature == nil || len(entry.Signature.Returns) != 0 {
		t.Errorf("void function should have an empty return list, got %+v", entry.Signature)
	}
}

func TestCodeGenerator_DeclarationsKeepPlaceholders(t *testing.T) {
	obj, err := generateString(t, lowerableModule)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	id, ok := obj.Symbols.Code.ByName("opaque_helper")
	if !ok {
		t.Fatal("no code symbol for opaque_helper")
	}
	placeholder := obj.Blocks.Get(id)
	if placeholder.Signature != nil {
		t.Error("declaration placeholder should carry no signature")
	}
	if placeholder.Poison.Kind != flo.PoisonUndefined {
		t.Errorf("placeholder poison = %v, want PoisonUndefined", placeholder.Poison.Kind)
	}
}

func TestCodeGenerator_GlobalsBecomeVariables(t *testing.T) {
	obj, err := generateString(t, lowerableModule)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	id, ok := obj.Symbols.Data.ByName("limit")
	if !ok {
		t.Fatal("no data symbol for limit")
	}
	limit := obj.Variables.Get(id)
	if limit.Type.Kind != flo.TypeUnsigned32 {
		t.Errorf("limit type = %v, want TypeUnsigned32", limit.Type.Kind)
	}
	if limit.Linkage.Kind != flo.LinkLocal {
		t.Errorf("limit linkage = %v, want LinkLocal", limit.Linkage.Kind)
	}

	id, ok = obj.Symbols.Data.ByName("table")
	if !ok {
		t.Fatal("no data symbol for table")
	}
	table := obj.Variables.Get(id)
	if table.Type.Kind != flo.TypeArray {
		t.Fatalf("table type = %v, want TypeArray", table.Type.Kind)
	}
	arr := obj.Arrays.Get(table.Type.Array)
	if arr.Length != 4 || arr.Member.Kind != flo.TypeUnsigned64 {
		t.Errorf("table array = %+v, want 4 x TypeUnsigned64", arr)
	}

	id, ok = obj.Symbols.Data.ByName("external_flag")
	if !ok {
		t.Fatal("no data symbol for external_flag")
	}
	flag := obj.Variables.Get(id)
	if flag.Linkage.Kind != flo.LinkExternal || flag.Linkage.Symbol != "external_flag" {
		t.Errorf("external_flag linkage = %+v, want external by name", flag.Linkage)
	}
}

func TestCodeGenerator_RejectsMutableInitializedGlobal(t *testing.T) {
	_, err := generateString(t, `
source_filename = "mut.ll"
@counter = global i64 0
`)
	if !errors.Is(err, ErrNonConstGlobal) {
		t.Fatalf("err = %v, want ErrNonConstGlobal", err)
	}
}
