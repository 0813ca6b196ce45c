package llvmir

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// byteSize is the bit width of a byte, below which alignments misbehave.
const byteSize = 8

// Endianness of data in memory.
type Endianness uint8

const (
	Little Endianness = iota
	Big
)

// Mangling identifies the symbol mangling scheme in use.
type Mangling uint8

const (
	ManglingELF Mangling = iota
	ManglingGOFF
	ManglingMIPS
	ManglingMachO
	ManglingCOFF
	ManglingCOFF86
	ManglingXCOFF
)

// PointerLayout describes pointers in one address space. Sizes and
// alignments are in bits.
type PointerLayout struct {
	AddressSpace int
	Size         int
	ABIAlign     int
	PrefAlign    int
	IndexSize    int
}

// ScalarLayout describes an integer, vector or floating-point width.
// Sizes and alignments are in bits.
type ScalarLayout struct {
	Size      int
	ABIAlign  int
	PrefAlign int
}

// AggregateLayout describes the alignment of aggregate types.
type AggregateLayout struct {
	ABIAlign  int
	PrefAlign int
}

// FunctionPointerAlignKind says what the alignment of function pointers
// is relative to.
type FunctionPointerAlignKind uint8

const (
	// FnPtrIndependent aligns function pointers independently of the
	// alignment of functions.
	FnPtrIndependent FunctionPointerAlignKind = iota
	// FnPtrMultiple aligns function pointers to a multiple of the
	// explicit alignment on the function.
	FnPtrMultiple
)

// FunctionPointerLayout describes how function pointers are aligned.
type FunctionPointerLayout struct {
	Kind     FunctionPointerAlignKind
	ABIAlign int
}

// DataLayout is the parsed form of a module's data-layout string.
//
// Components the string leaves out take LLVM's documented defaults, so a
// layout parsed from the empty string is fully populated.
type DataLayout struct {
	Endianness          Endianness
	Mangling            Mangling
	StackAlign          int
	ProgramAddressSpace int
	GlobalAddressSpace  int
	AllocAddressSpace   int

	Pointers  []PointerLayout
	Integers  []ScalarLayout
	Vectors   []ScalarLayout
	Floats    []ScalarLayout
	Aggregate AggregateLayout
	FnPtr     FunctionPointerLayout

	// NativeIntWidths are the integer widths the target handles natively.
	NativeIntWidths []int

	// NonIntegralSpaces are address spaces whose pointers carry no stable
	// integer representation.
	NonIntegralSpaces []int
}

// ParseDataLayout parses an LLVM data-layout string, filling every
// unspecified component with its default. The defaults additionally
// assume 32/64-bit native integers, ELF mangling and independent
// function pointers aligned to 64 bits.
func ParseDataLayout(layout string) (DataLayout, error) {
	dl := DataLayout{
		Aggregate:       AggregateLayout{ABIAlign: 0, PrefAlign: 64},
		FnPtr:           FunctionPointerLayout{Kind: FnPtrIndependent, ABIAlign: 64},
		NativeIntWidths: []int{32, 64},
	}

	for _, part := range strings.Split(layout, "-") {
		if err := dl.applyPart(part); err != nil {
			return DataLayout{}, fmt.Errorf("%w: %q in %q: %v", ErrInvalidLayout, part, layout, err)
		}
	}

	dl.applyDefaults()
	return dl, nil
}

func (dl *DataLayout) applyPart(part string) error {
	switch {
	case part == "":
		// Tolerated; an empty component cannot mean anything else.
		return nil
	case part == "e":
		dl.Endianness = Little
	case part == "E":
		dl.Endianness = Big
	case strings.HasPrefix(part, "m:"):
		return dl.applyMangling(part[len("m:"):])
	case strings.HasPrefix(part, "S"):
		return applyInt(&dl.StackAlign, part[1:])
	case strings.HasPrefix(part, "P"):
		return applyInt(&dl.ProgramAddressSpace, part[1:])
	case strings.HasPrefix(part, "G"):
		return applyInt(&dl.GlobalAddressSpace, part[1:])
	case strings.HasPrefix(part, "A"):
		return applyInt(&dl.AllocAddressSpace, part[1:])
	case strings.HasPrefix(part, "p"):
		return dl.applyPointer(part[1:])
	case strings.HasPrefix(part, "i"):
		return dl.applyScalar(&dl.Integers, part[1:], validateInteger)
	case strings.HasPrefix(part, "v"):
		return dl.applyScalar(&dl.Vectors, part[1:], nil)
	case strings.HasPrefix(part, "f"):
		return dl.applyScalar(&dl.Floats, part[1:], validateFloat)
	case strings.HasPrefix(part, "a"):
		return dl.applyAggregate(part[1:])
	case strings.HasPrefix(part, "F"):
		return dl.applyFnPtr(part[1:])
	case strings.HasPrefix(part, "ni"):
		return dl.applyNonIntegral(part[len("ni"):])
	case strings.HasPrefix(part, "n"):
		return dl.applyNativeWidths(part[1:])
	default:
		return fmt.Errorf("unrecognized component")
	}
	return nil
}

func (dl *DataLayout) applyMangling(spec string) error {
	schemes := map[string]Mangling{
		"a": ManglingXCOFF,
		"e": ManglingELF,
		"l": ManglingGOFF,
		"m": ManglingMIPS,
		"o": ManglingMachO,
		"w": ManglingCOFF,
		"x": ManglingCOFF86,
	}
	m, ok := schemes[spec]
	if !ok {
		return fmt.Errorf("unknown mangling scheme %q", spec)
	}
	dl.Mangling = m
	return nil
}

// applyPointer parses "p[<space>]:<size>:<abi>[:<pref>[:<idx>]]", the
// leading "p" already stripped.
func (dl *DataLayout) applyPointer(spec string) error {
	head, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return fmt.Errorf("pointer layout needs a size")
	}
	space := 0
	if head != "" {
		var err error
		if space, err = parseInt(head); err != nil {
			return err
		}
	}
	fields, err := parseIntFields(rest, 2, 4)
	if err != nil {
		return err
	}
	p := PointerLayout{
		AddressSpace: space,
		Size:         fields[0],
		ABIAlign:     fields[1],
		PrefAlign:    fields[1],
		IndexSize:    fields[0],
	}
	if len(fields) > 2 {
		p.PrefAlign = fields[2]
	}
	if len(fields) > 3 {
		p.IndexSize = fields[3]
	}
	if p.IndexSize > p.Size {
		return fmt.Errorf("index size %d is larger than the pointer size %d", p.IndexSize, p.Size)
	}
	dl.Pointers = append(dl.Pointers, p)
	return nil
}

// applyScalar parses "<size>:<abi>[:<pref>]" into a scalar layout list.
func (dl *DataLayout) applyScalar(list *[]ScalarLayout, spec string, check func(ScalarLayout) error) error {
	fields, err := parseIntFields(spec, 2, 3)
	if err != nil {
		return err
	}
	l := ScalarLayout{Size: fields[0], ABIAlign: fields[1], PrefAlign: fields[1]}
	if len(fields) > 2 {
		l.PrefAlign = fields[2]
	}
	if check != nil {
		if err := check(l); err != nil {
			return err
		}
	}
	*list = append(*list, l)
	return nil
}

func validateInteger(l ScalarLayout) error {
	if l.Size == byteSize && l.ABIAlign != byteSize {
		return fmt.Errorf("i8 was not aligned to a byte boundary")
	}
	return nil
}

func validateFloat(l ScalarLayout) error {
	switch l.Size {
	case 16, 32, 64, 80, 128:
		return nil
	}
	return fmt.Errorf("%d is not a valid floating-point size", l.Size)
}

// applyAggregate parses "a:<abi>[:<pref>]"; aggregates have no size, so
// the canonical spelling leads with an empty field.
func (dl *DataLayout) applyAggregate(spec string) error {
	spec = strings.TrimPrefix(spec, ":")
	fields, err := parseIntFields(spec, 1, 2)
	if err != nil {
		return err
	}
	dl.Aggregate = AggregateLayout{ABIAlign: fields[0], PrefAlign: fields[0]}
	if len(fields) > 1 {
		dl.Aggregate.PrefAlign = fields[1]
	}
	return nil
}

func (dl *DataLayout) applyFnPtr(spec string) error {
	if spec == "" {
		return fmt.Errorf("function pointer layout needs a kind and alignment")
	}
	var kind FunctionPointerAlignKind
	switch spec[0] {
	case 'i':
		kind = FnPtrIndependent
	case 'n':
		kind = FnPtrMultiple
	default:
		return fmt.Errorf("unknown function pointer kind %q", spec[0])
	}
	align, err := parseInt(spec[1:])
	if err != nil {
		return err
	}
	dl.FnPtr = FunctionPointerLayout{Kind: kind, ABIAlign: align}
	return nil
}

func (dl *DataLayout) applyNativeWidths(spec string) error {
	widths, err := parseIntFields(spec, 1, -1)
	if err != nil {
		return err
	}
	dl.NativeIntWidths = widths
	return nil
}

// applyNonIntegral parses "ni:<space>...", the "ni" already stripped.
func (dl *DataLayout) applyNonIntegral(spec string) error {
	if !strings.HasPrefix(spec, ":") {
		return fmt.Errorf("non-integral pointer component needs at least one address space")
	}
	spaces, err := parseIntFields(spec[1:], 1, -1)
	if err != nil {
		return err
	}
	if slices.Contains(spaces, 0) {
		return fmt.Errorf("the 0 address space cannot be specified as using non-integral pointers")
	}
	dl.NonIntegralSpaces = spaces
	return nil
}

// applyDefaults fills in LLVM's built-in layouts for every width the
// string did not mention, then sorts each list for stable comparison.
func (dl *DataLayout) applyDefaults() {
	if !slices.ContainsFunc(dl.Pointers, func(p PointerLayout) bool { return p.AddressSpace == 0 }) {
		dl.Pointers = append(dl.Pointers, PointerLayout{
			AddressSpace: 0, Size: 64, ABIAlign: 64, PrefAlign: 64, IndexSize: 64,
		})
	}
	intDefaults := []ScalarLayout{
		{Size: 1, ABIAlign: 8, PrefAlign: 8},
		{Size: 8, ABIAlign: 8, PrefAlign: 8},
		{Size: 16, ABIAlign: 16, PrefAlign: 16},
		{Size: 32, ABIAlign: 32, PrefAlign: 32},
		{Size: 64, ABIAlign: 32, PrefAlign: 64},
	}
	vecDefaults := []ScalarLayout{
		{Size: 64, ABIAlign: 64, PrefAlign: 64},
		{Size: 128, ABIAlign: 128, PrefAlign: 128},
	}
	floatDefaults := []ScalarLayout{
		{Size: 16, ABIAlign: 16, PrefAlign: 16},
		{Size: 32, ABIAlign: 32, PrefAlign: 32},
		{Size: 64, ABIAlign: 64, PrefAlign: 64},
		{Size: 128, ABIAlign: 128, PrefAlign: 128},
	}
	dl.Integers = scalarsOrDefaults(dl.Integers, intDefaults)
	dl.Vectors = scalarsOrDefaults(dl.Vectors, vecDefaults)
	dl.Floats = scalarsOrDefaults(dl.Floats, floatDefaults)
	slices.SortFunc(dl.Pointers, func(a, b PointerLayout) int {
		return cmp.Compare(a.AddressSpace, b.AddressSpace)
	})
}

func scalarsOrDefaults(specs, defaults []ScalarLayout) []ScalarLayout {
	for _, d := range defaults {
		if !slices.ContainsFunc(specs, func(s ScalarLayout) bool { return s.Size == d.Size }) {
			specs = append(specs, d)
		}
	}
	slices.SortFunc(specs, func(a, b ScalarLayout) int { return cmp.Compare(a.Size, b.Size) })
	return specs
}

// PointerIn returns the pointer layout for the given address space.
func (dl *DataLayout) PointerIn(space int) (PointerLayout, bool) {
	for _, p := range dl.Pointers {
		if p.AddressSpace == space {
			return p, true
		}
	}
	return PointerLayout{}, false
}

// IntegerFor returns the layout for an integer of the given bit width,
// following LLVM's rule: an exact match if there is one, otherwise the
// smallest specified width that is larger, otherwise the largest.
func (dl *DataLayout) IntegerFor(bits int) ScalarLayout {
	for _, l := range dl.Integers {
		if l.Size >= bits {
			return l
		}
	}
	return dl.Integers[len(dl.Integers)-1]
}

// FloatFor returns the layout for a float of exactly the given width.
func (dl *DataLayout) FloatFor(bits int) (ScalarLayout, bool) {
	for _, l := range dl.Floats {
		if l.Size == bits {
			return l, true
		}
	}
	return ScalarLayout{}, false
}

func applyInt(dst *int, s string) error {
	n, err := parseInt(s)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseInt(s string) (int, error) {
	raw, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a positive integer, got %q", s)
	}
	n, err := safecast.Conv[int](raw)
	if err != nil {
		return 0, fmt.Errorf("integer %q out of range", s)
	}
	return n, nil
}

// parseIntFields parses a colon-separated list of positive integers with
// the given arity bounds; max < 0 means unbounded.
func parseIntFields(spec string, min, max int) ([]int, error) {
	if spec == "" {
		return nil, fmt.Errorf("expected at least %d integer fields", min)
	}
	parts := strings.Split(spec, ":")
	if len(parts) < min || (max >= 0 && len(parts) > max) {
		return nil, fmt.Errorf("expected between %d and %d integer fields, got %d", min, max, len(parts))
	}
	fields := make([]int, len(parts))
	for i, p := range parts {
		n, err := parseInt(p)
		if err != nil {
			return nil, err
		}
		fields[i] = n
	}
	return fields, nil
}
