package flo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"floc/internal/version"
)

// The textual object format is a TOML document: scalar header fields,
// the symbol tables as key/value tables, and one array-of-tables section
// per intern table with explicit ids. The wire structs below are the
// single source of truth for both the TOML form and the binary sibling
// in binary.go.

type wireObject struct {
	Name         string      `toml:"name" msgpack:"name"`
	Version      string      `toml:"version" msgpack:"version"`
	Time         string      `toml:"time" msgpack:"time"`
	EntryPoint   uint64      `toml:"entry_point,omitempty" msgpack:"entry_point,omitempty"`
	Partial      bool        `toml:"partial,omitempty" msgpack:"partial,omitempty"`
	Symbols      wireSymbols `toml:"symbols" msgpack:"symbols"`
	Initializers []uint64    `toml:"initializers,omitempty" msgpack:"initializers,omitempty"`
	Finalizers   []uint64    `toml:"finalizers,omitempty" msgpack:"finalizers,omitempty"`

	Blocks      []wireBlock      `toml:"block,omitempty" msgpack:"block,omitempty"`
	Statements  []wireStatement  `toml:"statement,omitempty" msgpack:"statement,omitempty"`
	MatchArms   []wireMatchArm   `toml:"match_arm,omitempty" msgpack:"match_arm,omitempty"`
	Variables   []wireVariable   `toml:"variable,omitempty" msgpack:"variable,omitempty"`
	Arrays      []wireArrayType  `toml:"array_type,omitempty" msgpack:"array_type,omitempty"`
	Structs     []wireStructType `toml:"struct_type,omitempty" msgpack:"struct_type,omitempty"`
	Diagnostics []wireDiagnostic `toml:"diagnostic,omitempty" msgpack:"diagnostic,omitempty"`
	Locations   []wireLocation   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireSymbols struct {
	Code map[string]uint64 `toml:"code,omitempty" msgpack:"code,omitempty"`
	Data map[string]uint64 `toml:"data,omitempty" msgpack:"data,omitempty"`
}

type wireMarker struct {
	Kind   string `toml:"kind" msgpack:"kind"`
	Reason string `toml:"reason,omitempty" msgpack:"reason,omitempty"`
}

type wireBlock struct {
	ID          uint64         `toml:"id" msgpack:"id"`
	Signature   *wireSignature `toml:"signature,omitempty" msgpack:"signature,omitempty"`
	Statements  []uint64       `toml:"statements,omitempty" msgpack:"statements,omitempty"`
	Exit        wireExit       `toml:"exit" msgpack:"exit"`
	Diagnostics []uint64       `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Poison      *wireMarker    `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireSignature struct {
	Params   []uint64 `toml:"params,omitempty" msgpack:"params,omitempty"`
	Returns  []uint64 `toml:"returns,omitempty" msgpack:"returns,omitempty"`
	CanPanic bool     `toml:"can_panic,omitempty" msgpack:"can_panic,omitempty"`
	Location uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireExit struct {
	Kind        string   `toml:"kind" msgpack:"kind"`
	Returns     []uint64 `toml:"returns,omitempty" msgpack:"returns,omitempty"`
	PanicFormat string   `toml:"panic_format,omitempty" msgpack:"panic_format,omitempty"`
	PanicArgs   []uint64 `toml:"panic_args,omitempty" msgpack:"panic_args,omitempty"`
	Goto        uint64   `toml:"goto,omitempty" msgpack:"goto,omitempty"`
	Arms        []uint64 `toml:"arms,omitempty" msgpack:"arms,omitempty"`
}

type wireStatement struct {
	ID          uint64           `toml:"id" msgpack:"id"`
	AssignConst *wireAssignConst `toml:"assign_const,omitempty" msgpack:"assign_const,omitempty"`
	Call        *wireCall        `toml:"call,omitempty" msgpack:"call,omitempty"`
	Construct   *wireConstruct   `toml:"construct,omitempty" msgpack:"construct,omitempty"`
	Destructure *wireDestructure `toml:"destructure,omitempty" msgpack:"destructure,omitempty"`
	Snap        *wireSnap        `toml:"snap,omitempty" msgpack:"snap,omitempty"`
	Desnap      *wireDesnap      `toml:"desnap,omitempty" msgpack:"desnap,omitempty"`
	Poison      *wireMarker      `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireAssignConst struct {
	Variable    uint64   `toml:"variable" msgpack:"variable"`
	ValueHi     uint64   `toml:"value_hi,omitempty" msgpack:"value_hi,omitempty"`
	ValueLo     uint64   `toml:"value_lo" msgpack:"value_lo"`
	ValueType   string   `toml:"value_type" msgpack:"value_type"`
	Diagnostics []uint64 `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireCall struct {
	Target      wireRef  `toml:"target" msgpack:"target"`
	Inputs      []uint64 `toml:"inputs,omitempty" msgpack:"inputs,omitempty"`
	Outputs     []uint64 `toml:"outputs,omitempty" msgpack:"outputs,omitempty"`
	Diagnostics []uint64 `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireConstruct struct {
	Target       uint64   `toml:"target" msgpack:"target"`
	Initializers []uint64 `toml:"initializers,omitempty" msgpack:"initializers,omitempty"`
	Diagnostics  []uint64 `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location     uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireDestructure struct {
	Whole       uint64   `toml:"whole" msgpack:"whole"`
	Parts       []uint64 `toml:"parts,omitempty" msgpack:"parts,omitempty"`
	Diagnostics []uint64 `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireSnap struct {
	Target      uint64   `toml:"target" msgpack:"target"`
	Source      uint64   `toml:"source" msgpack:"source"`
	Diagnostics []uint64 `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireDesnap struct {
	Snap        uint64   `toml:"snap" msgpack:"snap"`
	Target      uint64   `toml:"target" msgpack:"target"`
	Diagnostics []uint64 `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64   `toml:"location,omitempty" msgpack:"location,omitempty"`
}

type wireRef struct {
	Kind   string `toml:"kind" msgpack:"kind"`
	Block  uint64 `toml:"block,omitempty" msgpack:"block,omitempty"`
	Symbol string `toml:"symbol,omitempty" msgpack:"symbol,omitempty"`
}

type wireMatchArm struct {
	Condition   uint64      `toml:"condition" msgpack:"condition"`
	ID          uint64      `toml:"id" msgpack:"id"`
	Target      wireRef     `toml:"target" msgpack:"target"`
	Diagnostics []uint64    `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64      `toml:"location,omitempty" msgpack:"location,omitempty"`
	Poison      *wireMarker `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireVariable struct {
	ID            uint64      `toml:"id" msgpack:"id"`
	Type          string      `toml:"type" msgpack:"type"`
	Linkage       string      `toml:"linkage" msgpack:"linkage"`
	LinkageSymbol string      `toml:"linkage_symbol,omitempty" msgpack:"linkage_symbol,omitempty"`
	Diagnostics   []uint64    `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location      uint64      `toml:"location,omitempty" msgpack:"location,omitempty"`
	Poison        *wireMarker `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireArrayType struct {
	ID          uint64      `toml:"id" msgpack:"id"`
	Member      string      `toml:"member" msgpack:"member"`
	Length      uint64      `toml:"length" msgpack:"length"`
	Diagnostics []uint64    `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64      `toml:"location,omitempty" msgpack:"location,omitempty"`
	Poison      *wireMarker `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireStructType struct {
	ID          uint64      `toml:"id" msgpack:"id"`
	Members     []string    `toml:"members,omitempty" msgpack:"members,omitempty"`
	Diagnostics []uint64    `toml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Location    uint64      `toml:"location,omitempty" msgpack:"location,omitempty"`
	Poison      *wireMarker `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireDiagnostic struct {
	ID       uint64      `toml:"id" msgpack:"id"`
	Message  string      `toml:"message" msgpack:"message"`
	Location uint64      `toml:"location,omitempty" msgpack:"location,omitempty"`
	Poison   *wireMarker `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

type wireLocation struct {
	ID     uint64      `toml:"id" msgpack:"id"`
	Source string      `toml:"source" msgpack:"source"`
	Line   uint32      `toml:"line,omitempty" msgpack:"line,omitempty"`
	Col    uint32      `toml:"col,omitempty" msgpack:"col,omitempty"`
	Poison *wireMarker `toml:"poison,omitempty" msgpack:"poison,omitempty"`
}

// String renders the object as a TOML document. Unless the object is
// partial, a reachable poison value makes it fail with ErrPoisoned.
//
// Version and Time are stamped on the object first if still empty, so the
// emitted text decodes back to an equal object.
func (o *Object) String() (string, error) {
	var buf bytes.Buffer
	if err := o.Write(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write encodes the object as TOML to w.
func (o *Object) Write(w io.Writer) error {
	wire, err := o.toWire()
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(wire); err != nil {
		return fmt.Errorf("flo: encode %q: %w", o.Name, err)
	}
	return nil
}

// WriteFile encodes the object as TOML into the file at path, creating or
// truncating it.
func (o *Object) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := o.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("flo: write %s: %w", path, err)
	}
	return nil
}

// Parse decodes a TOML document produced by String or Write and validates
// the result. Objects emitted as partial are accepted with their poison
// intact.
func Parse(text string) (*Object, error) {
	var wire wireObject
	if _, err := toml.Decode(text, &wire); err != nil {
		return nil, fmt.Errorf("flo: parse: %w", err)
	}
	return fromWire(&wire, false)
}

// ParsePartial decodes a TOML document without validating, and marks the
// result partial regardless of how it was emitted.
func ParsePartial(text string) (*Object, error) {
	var wire wireObject
	if _, err := toml.Decode(text, &wire); err != nil {
		return nil, fmt.Errorf("flo: parse: %w", err)
	}
	return fromWire(&wire, true)
}

// Read decodes a TOML-encoded object from r.
func Read(r io.Reader) (*Object, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("flo: read: %w", err)
	}
	return Parse(string(text))
}

// ReadFile decodes the TOML-encoded object stored at path.
func ReadFile(path string) (*Object, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flo: read %s: %w", path, err)
	}
	return Parse(string(text))
}

// ReadFilePartial decodes the object at path without validating.
func ReadFilePartial(path string) (*Object, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flo: read %s: %w", path, err)
	}
	return ParsePartial(string(text))
}

// Equal reports whether two objects describe the same translation unit.
// It compares the normalized wire forms, so it is insensitive to nil
// versus empty slices and to map iteration order, and it does not stamp
// either object.
func Equal(a, b *Object) bool {
	wa, errA := a.wireSnapshot()
	wb, errB := b.wireSnapshot()
	if errA != nil || errB != nil {
		return false
	}
	var bufA, bufB bytes.Buffer
	if toml.NewEncoder(&bufA).Encode(wa) != nil {
		return false
	}
	if toml.NewEncoder(&bufB).Encode(wb) != nil {
		return false
	}
	return bytes.Equal(bufA.Bytes(), bufB.Bytes())
}

// toWire stamps the object and converts it for emission, enforcing the
// poison gate.
func (o *Object) toWire() (*wireObject, error) {
	if err := o.checkEmittable(); err != nil {
		return nil, err
	}
	if o.Version == "" {
		o.Version = version.Number()
	}
	if o.Time == "" {
		o.Time = time.Now().UTC().Format(time.RFC3339)
	}
	return o.wireSnapshot()
}

// wireSnapshot converts without stamping or validating.
func (o *Object) wireSnapshot() (*wireObject, error) {
	wire := &wireObject{
		Name:         o.Name,
		Version:      o.Version,
		Time:         o.Time,
		EntryPoint:   uint64(o.EntryPoint),
		Partial:      o.allowIncomplete,
		Initializers: idsToWire(o.Initializers),
		Finalizers:   idsToWire(o.Finalizers),
	}
	if o.Symbols.Code.Len() > 0 {
		wire.Symbols.Code = make(map[string]uint64, o.Symbols.Code.Len())
		for _, name := range o.Symbols.Code.Names() {
			id, _ := o.Symbols.Code.ByName(name)
			wire.Symbols.Code[name] = uint64(id)
		}
	}
	if o.Symbols.Data.Len() > 0 {
		wire.Symbols.Data = make(map[string]uint64, o.Symbols.Data.Len())
		for _, name := range o.Symbols.Data.Names() {
			id, _ := o.Symbols.Data.ByName(name)
			wire.Symbols.Data[name] = uint64(id)
		}
	}
	for _, id := range o.Blocks.IDs() {
		wire.Blocks = append(wire.Blocks, blockToWire(uint64(id), o.Blocks.Get(id)))
	}
	for _, id := range o.Statements.IDs() {
		w, err := statementToWire(uint64(id), o.Statements.Get(id))
		if err != nil {
			return nil, err
		}
		wire.Statements = append(wire.Statements, w)
	}
	for _, id := range o.MatchArms.IDs() {
		a := o.MatchArms.Get(id)
		wire.MatchArms = append(wire.MatchArms, wireMatchArm{
			ID:          uint64(id),
			Condition:   uint64(a.Condition),
			Target:      refToWire(a.Target),
			Diagnostics: idsToWire(a.Diagnostics),
			Location:    uint64(a.Location),
			Poison:      markerToWire(a.Poison),
		})
	}
	for _, id := range o.Variables.IDs() {
		v := o.Variables.Get(id)
		wire.Variables = append(wire.Variables, wireVariable{
			ID:            uint64(id),
			Type:          typeToWire(v.Type),
			Linkage:       linkageKindToWire(v.Linkage.Kind),
			LinkageSymbol: v.Linkage.Symbol,
			Diagnostics:   idsToWire(v.Diagnostics),
			Location:      uint64(v.Location),
			Poison:        markerToWire(v.Poison),
		})
	}
	for _, id := range o.Arrays.IDs() {
		t := o.Arrays.Get(id)
		wire.Arrays = append(wire.Arrays, wireArrayType{
			ID:          uint64(id),
			Member:      typeToWire(t.Member),
			Length:      t.Length,
			Diagnostics: idsToWire(t.Diagnostics),
			Location:    uint64(t.Location),
			Poison:      markerToWire(t.Poison),
		})
	}
	for _, id := range o.Structs.IDs() {
		t := o.Structs.Get(id)
		members := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			members = append(members, typeToWire(m))
		}
		wire.Structs = append(wire.Structs, wireStructType{
			ID:          uint64(id),
			Members:     members,
			Diagnostics: idsToWire(t.Diagnostics),
			Location:    uint64(t.Location),
			Poison:      markerToWire(t.Poison),
		})
	}
	for _, id := range o.Diagnostics.IDs() {
		d := o.Diagnostics.Get(id)
		wire.Diagnostics = append(wire.Diagnostics, wireDiagnostic{
			ID:       uint64(id),
			Message:  d.Message,
			Location: uint64(d.Location),
			Poison:   markerToWire(d.Poison),
		})
	}
	for _, id := range o.Locations.IDs() {
		l := o.Locations.Get(id)
		wire.Locations = append(wire.Locations, wireLocation{
			ID:     uint64(id),
			Source: l.Source,
			Line:   l.Line,
			Col:    l.Col,
			Poison: markerToWire(l.Poison),
		})
	}
	return wire, nil
}

// fromWire rebuilds an object from its decoded wire form. forcePartial
// marks the result partial and skips validation.
func fromWire(wire *wireObject, forcePartial bool) (*Object, error) {
	o := New(wire.Name)
	o.Version = wire.Version
	o.Time = wire.Time
	o.EntryPoint = BlockID(wire.EntryPoint)
	o.allowIncomplete = wire.Partial || forcePartial
	o.Initializers = idsFromWire[BlockID](wire.Initializers)
	o.Finalizers = idsFromWire[BlockID](wire.Finalizers)
	for name, id := range wire.Symbols.Code {
		o.Symbols.Code.Put(name, BlockID(id))
	}
	for name, id := range wire.Symbols.Data {
		o.Symbols.Data.Put(name, VariableID(id))
	}

	if err := restoreSection(o.Blocks, wire.Blocks, func(w wireBlock) uint64 { return w.ID }, blockFromWire); err != nil {
		return nil, err
	}
	if err := restoreSection(o.Statements, wire.Statements, func(w wireStatement) uint64 { return w.ID }, statementFromWire); err != nil {
		return nil, err
	}
	if err := restoreSection(o.MatchArms, wire.MatchArms, func(w wireMatchArm) uint64 { return w.ID }, func(w wireMatchArm) (MatchArm, error) {
		ref, err := refFromWire(w.Target)
		if err != nil {
			return MatchArm{}, err
		}
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return MatchArm{}, err
		}
		return MatchArm{
			Condition:   VariableID(w.Condition),
			Target:      ref,
			Diagnostics: idsFromWire[DiagnosticID](w.Diagnostics),
			Location:    LocationID(w.Location),
			Poison:      marker,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := restoreSection(o.Variables, wire.Variables, func(w wireVariable) uint64 { return w.ID }, func(w wireVariable) (Variable, error) {
		typ, err := typeFromWire(w.Type)
		if err != nil {
			return Variable{}, err
		}
		kind, err := linkageKindFromWire(w.Linkage)
		if err != nil {
			return Variable{}, err
		}
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return Variable{}, err
		}
		return Variable{
			Type:        typ,
			Linkage:     Linkage{Kind: kind, Symbol: w.LinkageSymbol},
			Diagnostics: idsFromWire[DiagnosticID](w.Diagnostics),
			Location:    LocationID(w.Location),
			Poison:      marker,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := restoreSection(o.Arrays, wire.Arrays, func(w wireArrayType) uint64 { return w.ID }, func(w wireArrayType) (ArrayType, error) {
		member, err := typeFromWire(w.Member)
		if err != nil {
			return ArrayType{}, err
		}
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return ArrayType{}, err
		}
		return ArrayType{
			Member:      member,
			Length:      w.Length,
			Diagnostics: idsFromWire[DiagnosticID](w.Diagnostics),
			Location:    LocationID(w.Location),
			Poison:      marker,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := restoreSection(o.Structs, wire.Structs, func(w wireStructType) uint64 { return w.ID }, func(w wireStructType) (StructType, error) {
		members := make([]Type, 0, len(w.Members))
		for _, m := range w.Members {
			typ, err := typeFromWire(m)
			if err != nil {
				return StructType{}, err
			}
			members = append(members, typ)
		}
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return StructType{}, err
		}
		return StructType{
			Members:     members,
			Diagnostics: idsFromWire[DiagnosticID](w.Diagnostics),
			Location:    LocationID(w.Location),
			Poison:      marker,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := restoreSection(o.Diagnostics, wire.Diagnostics, func(w wireDiagnostic) uint64 { return w.ID }, func(w wireDiagnostic) (Diagnostic, error) {
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return Diagnostic{}, err
		}
		return Diagnostic{
			Message:  w.Message,
			Location: LocationID(w.Location),
			Poison:   marker,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := restoreSection(o.Locations, wire.Locations, func(w wireLocation) uint64 { return w.ID }, func(w wireLocation) (Location, error) {
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return Location{}, err
		}
		return Location{
			Source: w.Source,
			Line:   w.Line,
			Col:    w.Col,
			Poison: marker,
		}, nil
	}); err != nil {
		return nil, err
	}

	if !o.allowIncomplete {
		if err := o.Validate(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// restoreSection converts one wire section and loads it into the table.
func restoreSection[W any, ID ~uint64, V any](t *Table[ID, V], section []W, id func(W) uint64, conv func(W) (V, error)) error {
	ids := make([]uint64, 0, len(section))
	values := make([]V, 0, len(section))
	for _, w := range section {
		v, err := conv(w)
		if err != nil {
			return err
		}
		ids = append(ids, id(w))
		values = append(values, v)
	}
	return restore(t, ids, values)
}

func blockToWire(id uint64, b Block) wireBlock {
	w := wireBlock{
		ID:          id,
		Statements:  idsToWire(b.Statements),
		Diagnostics: idsToWire(b.Diagnostics),
		Poison:      markerToWire(b.Poison),
	}
	if b.Signature != nil {
		w.Signature = &wireSignature{
			Params:   idsToWire(b.Signature.Params),
			Returns:  idsToWire(b.Signature.Returns),
			CanPanic: b.Signature.CanPanic,
			Location: uint64(b.Signature.Location),
		}
	}
	switch b.Exit.Kind {
	case ExitReturn:
		w.Exit = wireExit{Kind: "return", Returns: idsToWire(b.Exit.Returns)}
	case ExitPanic:
		w.Exit = wireExit{Kind: "panic", PanicFormat: b.Exit.PanicFormat, PanicArgs: idsToWire(b.Exit.PanicArgs)}
	case ExitGoto:
		w.Exit = wireExit{Kind: "goto", Goto: uint64(b.Exit.Goto)}
	case ExitMatch:
		w.Exit = wireExit{Kind: "match", Arms: idsToWire(b.Exit.Arms)}
	case ExitUnspecified:
		w.Exit = wireExit{Kind: "unspecified"}
	}
	return w
}

func blockFromWire(w wireBlock) (Block, error) {
	marker, err := markerFromWire(w.Poison)
	if err != nil {
		return Block{}, err
	}
	b := Block{
		Statements:  idsFromWire[StatementID](w.Statements),
		Diagnostics: idsFromWire[DiagnosticID](w.Diagnostics),
		Poison:      marker,
	}
	if w.Signature != nil {
		b.Signature = &Signature{
			Params:   idsFromWire[VariableID](w.Signature.Params),
			Returns:  idsFromWire[VariableID](w.Signature.Returns),
			CanPanic: w.Signature.CanPanic,
			Location: LocationID(w.Signature.Location),
		}
	}
	switch w.Exit.Kind {
	case "return":
		b.Exit = BlockExit{Kind: ExitReturn, Returns: idsFromWire[VariableID](w.Exit.Returns)}
	case "panic":
		b.Exit = BlockExit{Kind: ExitPanic, PanicFormat: w.Exit.PanicFormat, PanicArgs: idsFromWire[VariableID](w.Exit.PanicArgs)}
	case "goto":
		b.Exit = BlockExit{Kind: ExitGoto, Goto: BlockID(w.Exit.Goto)}
	case "match":
		b.Exit = BlockExit{Kind: ExitMatch, Arms: idsFromWire[MatchArmID](w.Exit.Arms)}
	case "unspecified":
		b.Exit = BlockExit{Kind: ExitUnspecified}
	default:
		return Block{}, fmt.Errorf("flo: block %d: unknown exit kind %q", w.ID, w.Exit.Kind)
	}
	return b, nil
}

func statementToWire(id uint64, s Statement) (wireStatement, error) {
	w := wireStatement{ID: id}
	switch s.Kind {
	case StmtAssignConst:
		p := s.AssignConst
		w.AssignConst = &wireAssignConst{
			Variable:    uint64(p.Variable),
			ValueHi:     p.Value.Value.Hi,
			ValueLo:     p.Value.Value.Lo,
			ValueType:   typeToWire(p.Value.Type),
			Diagnostics: idsToWire(p.Diagnostics),
			Location:    uint64(p.Location),
		}
	case StmtCall:
		p := s.Call
		w.Call = &wireCall{
			Target:      refToWire(p.Target),
			Inputs:      idsToWire(p.Inputs),
			Outputs:     idsToWire(p.Outputs),
			Diagnostics: idsToWire(p.Diagnostics),
			Location:    uint64(p.Location),
		}
	case StmtConstruct:
		p := s.Construct
		w.Construct = &wireConstruct{
			Target:       uint64(p.Target),
			Initializers: idsToWire(p.Initializers),
			Diagnostics:  idsToWire(p.Diagnostics),
			Location:     uint64(p.Location),
		}
	case StmtDestructure:
		p := s.Destructure
		w.Destructure = &wireDestructure{
			Whole:       uint64(p.Whole),
			Parts:       idsToWire(p.Parts),
			Diagnostics: idsToWire(p.Diagnostics),
			Location:    uint64(p.Location),
		}
	case StmtSnap:
		p := s.Snap
		w.Snap = &wireSnap{
			Target:      uint64(p.Target),
			Source:      uint64(p.Source),
			Diagnostics: idsToWire(p.Diagnostics),
			Location:    uint64(p.Location),
		}
	case StmtDesnap:
		p := s.Desnap
		w.Desnap = &wireDesnap{
			Snap:        uint64(p.Snap),
			Target:      uint64(p.Target),
			Diagnostics: idsToWire(p.Diagnostics),
			Location:    uint64(p.Location),
		}
	case StmtPoisoned:
		w.Poison = markerToWire(s.Poison)
		if w.Poison == nil {
			w.Poison = &wireMarker{Kind: "explicit"}
		}
	default:
		return wireStatement{}, fmt.Errorf("flo: statement %d: unknown kind %d", id, s.Kind)
	}
	return w, nil
}

func statementFromWire(w wireStatement) (Statement, error) {
	switch {
	case w.AssignConst != nil:
		p := w.AssignConst
		typ, err := typeFromWire(p.ValueType)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtAssignConst, AssignConst: AssignConstStatement{
			Variable:    VariableID(p.Variable),
			Value:       ConstantValue{Value: Uint128{Hi: p.ValueHi, Lo: p.ValueLo}, Type: typ},
			Diagnostics: idsFromWire[DiagnosticID](p.Diagnostics),
			Location:    LocationID(p.Location),
		}}, nil
	case w.Call != nil:
		p := w.Call
		ref, err := refFromWire(p.Target)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtCall, Call: CallStatement{
			Target:      ref,
			Inputs:      idsFromWire[VariableID](p.Inputs),
			Outputs:     idsFromWire[VariableID](p.Outputs),
			Diagnostics: idsFromWire[DiagnosticID](p.Diagnostics),
			Location:    LocationID(p.Location),
		}}, nil
	case w.Construct != nil:
		p := w.Construct
		return Statement{Kind: StmtConstruct, Construct: ConstructStatement{
			Target:       VariableID(p.Target),
			Initializers: idsFromWire[VariableID](p.Initializers),
			Diagnostics:  idsFromWire[DiagnosticID](p.Diagnostics),
			Location:     LocationID(p.Location),
		}}, nil
	case w.Destructure != nil:
		p := w.Destructure
		return Statement{Kind: StmtDestructure, Destructure: DestructureStatement{
			Whole:       VariableID(p.Whole),
			Parts:       idsFromWire[VariableID](p.Parts),
			Diagnostics: idsFromWire[DiagnosticID](p.Diagnostics),
			Location:    LocationID(p.Location),
		}}, nil
	case w.Snap != nil:
		p := w.Snap
		return Statement{Kind: StmtSnap, Snap: SnapStatement{
			Target:      VariableID(p.Target),
			Source:      VariableID(p.Source),
			Diagnostics: idsFromWire[DiagnosticID](p.Diagnostics),
			Location:    LocationID(p.Location),
		}}, nil
	case w.Desnap != nil:
		p := w.Desnap
		return Statement{Kind: StmtDesnap, Desnap: DesnapStatement{
			Snap:        VariableID(p.Snap),
			Target:      VariableID(p.Target),
			Diagnostics: idsFromWire[DiagnosticID](p.Diagnostics),
			Location:    LocationID(p.Location),
		}}, nil
	case w.Poison != nil:
		marker, err := markerFromWire(w.Poison)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtPoisoned, Poison: marker}, nil
	default:
		return Statement{}, fmt.Errorf("flo: statement %d: no payload", w.ID)
	}
}

func refToWire(r BlockRef) wireRef {
	switch r.Kind {
	case RefLocal:
		return wireRef{Kind: "local", Block: uint64(r.Block)}
	case RefExternal:
		return wireRef{Kind: "external", Symbol: r.Symbol}
	case RefBuiltin:
		return wireRef{Kind: "builtin", Symbol: r.Symbol}
	default:
		return wireRef{Kind: "unspecified"}
	}
}

func refFromWire(w wireRef) (BlockRef, error) {
	switch w.Kind {
	case "local":
		return BlockRef{Kind: RefLocal, Block: BlockID(w.Block)}, nil
	case "external":
		return BlockRef{Kind: RefExternal, Symbol: w.Symbol}, nil
	case "builtin":
		return BlockRef{Kind: RefBuiltin, Symbol: w.Symbol}, nil
	case "unspecified":
		return BlockRef{Kind: RefUnspecified}, nil
	default:
		return BlockRef{}, fmt.Errorf("flo: unknown block reference kind %q", w.Kind)
	}
}

func linkageKindToWire(k LinkageKind) string {
	switch k {
	case LinkLocal:
		return "local"
	case LinkExternal:
		return "external"
	case LinkBuiltin:
		return "builtin"
	default:
		return "unspecified"
	}
}

func linkageKindFromWire(s string) (LinkageKind, error) {
	switch s {
	case "local":
		return LinkLocal, nil
	case "external":
		return LinkExternal, nil
	case "builtin":
		return LinkBuiltin, nil
	case "unspecified":
		return LinkUnspecified, nil
	default:
		return 0, fmt.Errorf("flo: unknown linkage kind %q", s)
	}
}

var scalarTypeNames = map[TypeKind]string{
	TypeUnspecified: "unspecified",
	TypeVoid:        "void",
	TypeBool:        "bool",
	TypeEnum:        "enum",
	TypeUnsigned8:   "u8",
	TypeUnsigned16:  "u16",
	TypeUnsigned32:  "u32",
	TypeUnsigned64:  "u64",
	TypeUnsigned128: "u128",
	TypeSigned8:     "s8",
	TypeSigned16:    "s16",
	TypeSigned32:    "s32",
	TypeSigned64:    "s64",
	TypeSigned128:   "s128",
	TypeFloat:       "float",
	TypeDouble:      "double",
	TypePointer:     "ptr",
	TypeSnapshot:    "snap",
}

var scalarTypeKinds = func() map[string]TypeKind {
	m := make(map[string]TypeKind, len(scalarTypeNames))
	for k, n := range scalarTypeNames {
		m[n] = k
	}
	return m
}()

// typeToWire renders a type as a compact string: a scalar name, or the
// composite id as "array#N" / "struct#N".
func typeToWire(t Type) string {
	switch t.Kind {
	case TypeArray:
		return "array#" + strconv.FormatUint(uint64(t.Array), 10)
	case TypeStruct:
		return "struct#" + strconv.FormatUint(uint64(t.Struct), 10)
	default:
		if n, ok := scalarTypeNames[t.Kind]; ok {
			return n
		}
		return "unspecified"
	}
}

func typeFromWire(s string) (Type, error) {
	if k, ok := scalarTypeKinds[s]; ok {
		return Type{Kind: k}, nil
	}
	if rest, ok := strings.CutPrefix(s, "array#"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Type{}, fmt.Errorf("flo: bad array type reference %q", s)
		}
		return ArrayOf(ArrayTypeID(id)), nil
	}
	if rest, ok := strings.CutPrefix(s, "struct#"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Type{}, fmt.Errorf("flo: bad struct type reference %q", s)
		}
		return StructOf(StructTypeID(id)), nil
	}
	return Type{}, fmt.Errorf("flo: unknown type %q", s)
}

func markerToWire(m Marker) *wireMarker {
	switch m.Kind {
	case PoisonNone:
		return nil
	case PoisonExplicit:
		return &wireMarker{Kind: "explicit", Reason: m.Reason}
	case PoisonUndefined:
		return &wireMarker{Kind: "undefined"}
	case PoisonUnreachable:
		return &wireMarker{Kind: "unreachable"}
	case PoisonNullEntry:
		return &wireMarker{Kind: "null"}
	}
	return nil
}

func markerFromWire(w *wireMarker) (Marker, error) {
	if w == nil {
		return Marker{}, nil
	}
	switch w.Kind {
	case "explicit":
		return Marker{Kind: PoisonExplicit, Reason: w.Reason}, nil
	case "undefined":
		return MarkerOf(PoisonUndefined), nil
	case "unreachable":
		return MarkerOf(PoisonUnreachable), nil
	case "null":
		return MarkerOf(PoisonNullEntry), nil
	default:
		return Marker{}, fmt.Errorf("flo: unknown poison kind %q", w.Kind)
	}
}

func idsToWire[ID ~uint64](ids []ID) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func idsFromWire[ID ~uint64](raw []uint64) []ID {
	if len(raw) == 0 {
		return nil
	}
	out := make([]ID, len(raw))
	for i, id := range raw {
		out[i] = ID(id)
	}
	return out
}
