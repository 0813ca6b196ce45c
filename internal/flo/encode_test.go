package flo

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestEncode_StampsVersionAndTime(t *testing.T) {
	o, _ := buildAddObject()
	if o.Version != "" || o.Time != "" {
		t.Fatal("fresh object already stamped")
	}

	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	if o.Version == "" || o.Time == "" {
		t.Fatal("emission did not stamp version and time onto the object")
	}
	if !strings.Contains(text, o.Version) {
		t.Fatalf("emitted text does not carry version %q", o.Version)
	}

	// A second emission keeps the original stamp.
	version, stamp := o.Version, o.Time
	if _, err := o.String(); err != nil {
		t.Fatalf("String(): %v", err)
	}
	if o.Version != version || o.Time != stamp {
		t.Fatal("re-emission changed an existing stamp")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	o, entry := buildAddObject()
	o.SetEntryPoint(entry)
	o.PushInitializer(entry)
	o.Symbols.Data.Put("counter", o.AddVariable(Variable{
		Type:    ScalarType(TypeUnsigned32),
		Linkage: ExternalLinkage("counter"),
	}))

	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if !Equal(o, back) {
		t.Fatalf("round trip changed the object:\n%s", text)
	}
	if back.Partial() {
		t.Fatal("round trip marked a complete object partial")
	}
}

func TestEncode_RoundTripPreservesIDs(t *testing.T) {
	o, entry := buildAddObject()
	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	id, ok := back.Symbols.Code.ByName("add")
	if !ok || id != entry {
		t.Fatalf("decoded symbol add = %d, %v; want %d, true", id, ok, entry)
	}
	b := back.Blocks.Get(id)
	if b.Signature == nil || len(b.Signature.Params) != 2 {
		t.Fatal("decoded entry block lost its signature")
	}
	if b.Exit.Kind != ExitReturn {
		t.Fatalf("decoded exit kind = %v, want return", b.Exit.Kind)
	}
}

func TestEncode_DecodedTableKeepsAllocating(t *testing.T) {
	o, _ := buildAddObject()
	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	// Fresh inserts into a decoded object must not collide with restored
	// ids.
	before := back.Blocks.IDs()
	id := back.AddBlock(Block{Exit: ReturnExit()})
	for _, old := range before {
		if id == old {
			t.Fatalf("post-decode insert reused id %d", id)
		}
	}
}

func TestEncode_PartialRoundTripKeepsPoison(t *testing.T) {
	o := NewPartial("wip")
	hole := o.DeclareBlock()
	o.Symbols.Code.Put("pending", hole)
	o.AddDiagnostic(Diagnostic{Message: "body not lowered yet"})

	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() of partial emission: %v", err)
	}
	if !back.Partial() {
		t.Fatal("partial flag lost on the wire")
	}
	id, _ := back.Symbols.Code.ByName("pending")
	if got := back.Blocks.Get(id).Poison.Kind; got != PoisonUndefined {
		t.Fatalf("decoded placeholder poison = %v, want %v", got, PoisonUndefined)
	}
}

func TestEncode_ExplicitPoisonReasonSurvives(t *testing.T) {
	o := NewPartial("wip")
	v := o.AddVariable(PoisonedVariable(PoisonExplicit))
	poisoned := o.Variables.Get(v)
	poisoned.Poison = Poison("unsupported atomic ordering")
	o.Variables.Swap(v, poisoned)
	o.Symbols.Data.Put("bad", v)

	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	got := back.Variables.Get(v).Poison
	if got.Kind != PoisonExplicit || got.Reason != "unsupported atomic ordering" {
		t.Fatalf("decoded poison = %+v, want explicit with reason", got)
	}
}

func TestParse_RejectsPoisonedCompleteDocument(t *testing.T) {
	o := NewPartial("wip")
	o.Symbols.Code.Put("f", o.DeclareBlock())
	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	// Strip the partial flag so the document claims to be complete.
	text = strings.Replace(text, "partial = true\n", "", 1)

	if _, err := Parse(text); err == nil {
		t.Fatal("Parse() accepted a complete document with reachable poison")
	}
	if _, err := ParsePartial(text); err != nil {
		t.Fatalf("ParsePartial(): %v", err)
	}
}

func TestMarkerWireSpellingMatchesString(t *testing.T) {
	for _, k := range []PoisonKind{PoisonExplicit, PoisonUndefined, PoisonUnreachable, PoisonNullEntry} {
		w := markerToWire(MarkerOf(k))
		if w == nil {
			t.Fatalf("%v has no wire form", k)
		}
		if w.Kind != k.String() {
			t.Errorf("wire spelling %q != String() %q", w.Kind, k.String())
		}
	}
}

func TestParse_RejectsUnknownPoisonKind(t *testing.T) {
	o := NewPartial("wip")
	v := o.AddVariable(PoisonedVariable(PoisonExplicit))
	o.Symbols.Data.Put("bad", v)
	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	// Corrupt the marker and claim the document is complete. The marker
	// must fail decoding, never quietly collapse to unpoisoned.
	text = strings.Replace(text, `kind = "explicit"`, `kind = "bogus"`, 1)
	text = strings.Replace(text, "partial = true\n", "", 1)

	if _, err := Parse(text); err == nil {
		t.Fatal("Parse() accepted an unknown poison kind")
	}
	if _, err := ParsePartial(text); err == nil {
		t.Fatal("ParsePartial() accepted an unknown poison kind")
	}
}

func TestWriteFileReadFile(t *testing.T) {
	o, entry := buildAddObject()
	o.SetEntryPoint(entry)
	path := filepath.Join(t.TempDir(), "add.flo")

	if err := o.WriteFile(path); err != nil {
		t.Fatalf("WriteFile(): %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(): %v", err)
	}
	if !Equal(o, back) {
		t.Fatal("file round trip changed the object")
	}
}

func TestBinary_RoundTrip(t *testing.T) {
	o, entry := buildAddObject()
	o.SetEntryPoint(entry)

	data, err := o.EncodeBinary()
	if err != nil {
		t.Fatalf("EncodeBinary(): %v", err)
	}
	back, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary(): %v", err)
	}
	if !Equal(o, back) {
		t.Fatal("binary round trip changed the object")
	}
}

func TestBinary_MatchesTextualForm(t *testing.T) {
	o, _ := buildAddObject()
	text, err := o.String()
	if err != nil {
		t.Fatalf("String(): %v", err)
	}
	data, err := o.EncodeBinary()
	if err != nil {
		t.Fatalf("EncodeBinary(): %v", err)
	}

	fromText, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	fromBinary, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary(): %v", err)
	}
	if !Equal(fromText, fromBinary) {
		t.Fatal("textual and binary decodings disagree")
	}
}

func TestEqual_DistinguishesObjects(t *testing.T) {
	a, _ := buildAddObject()
	b, _ := buildAddObject()
	if !Equal(a, b) {
		t.Fatal("identically built objects compare unequal")
	}
	b.Name = "other"
	if Equal(a, b) {
		t.Fatal("objects with different names compare equal")
	}
}
