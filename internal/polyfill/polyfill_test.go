package polyfill

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMap_DefaultBindings(t *testing.T) {
	m := NewMap()

	poly, ok := m.Polyfill("llvm.uadd.with.overflow.i64")
	if !ok || poly != "__llvm_uadd_with_overflow_i64_i64" {
		t.Fatalf("Polyfill() = %q, %v", poly, ok)
	}
	ir, ok := m.IRName("__llvm_uadd_with_overflow_i64_i64")
	if !ok || ir != "llvm.uadd.with.overflow.i64" {
		t.Fatalf("IRName() = %q, %v", ir, ok)
	}
	if _, ok := m.Polyfill("llvm.nothing"); ok {
		t.Fatal("unknown name resolved")
	}
}

func TestMap_BindDisplacesBothSides(t *testing.T) {
	m := NewMap()
	m.Bind("llvm.a", "__poly_a")
	m.Bind("llvm.b", "__poly_b")
	m.Bind("llvm.a", "__poly_b")

	if _, ok := m.IRName("__poly_a"); ok {
		t.Fatal("displaced polyfill symbol still resolves")
	}
	if _, ok := m.Polyfill("llvm.b"); ok {
		t.Fatal("displaced input name still resolves")
	}
	if ir, _ := m.IRName("__poly_b"); ir != "llvm.a" {
		t.Fatalf("IRName(__poly_b) = %q, want llvm.a", ir)
	}
}

func TestOfOpcode(t *testing.T) {
	cases := []struct {
		opcode string
		types  []string
		want   string
	}{
		{"add", []string{"i8", "i64"}, "__llvm_add_i8_i64"},
		{"fneg", []string{"double"}, "__llvm_fneg_double"},
		{"trap", nil, "__llvm_trap_void"},
	}
	for _, tc := range cases {
		if got := OfOpcode(tc.opcode, tc.types...); got != tc.want {
			t.Errorf("OfOpcode(%q, %v) = %q, want %q", tc.opcode, tc.types, got, tc.want)
		}
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyfills.toml")
	overlay := `
[polyfills]
"llvm.sadd.with.overflow.i64" = "__llvm_sadd_with_overflow_i64_i64"
"llvm.uadd.with.overflow.i64" = "__custom_uadd"
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewMap()
	if err := m.LoadOverlay(path); err != nil {
		t.Fatalf("LoadOverlay: %v", err)
	}
	if poly, _ := m.Polyfill("llvm.sadd.with.overflow.i64"); poly != "__llvm_sadd_with_overflow_i64_i64" {
		t.Fatalf("new pair missing, got %q", poly)
	}
	// The overlay replaces the default binding for uadd.
	if poly, _ := m.Polyfill("llvm.uadd.with.overflow.i64"); poly != "__custom_uadd" {
		t.Fatalf("override missing, got %q", poly)
	}
	if _, ok := m.IRName("__llvm_uadd_with_overflow_i64_i64"); ok {
		t.Fatal("displaced default symbol still resolves")
	}
}

func TestLoadOverlay_Rejections(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty-name.toml")
	if err := os.WriteFile(empty, []byte("[polyfills]\n\"llvm.x\" = \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewMap().LoadOverlay(empty); err == nil {
		t.Fatal("LoadOverlay accepted an empty polyfill name")
	}

	if err := NewMap().LoadOverlay(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("LoadOverlay succeeded on a missing file")
	}
}
