package pass

import (
	"errors"
	"fmt"
	"testing"

	"floc/internal/source"
)

// stubPass is a configurable pass for exercising the scheduler.
type stubPass struct {
	key         Key
	depends     []Key
	invalidates []Key
	run         func(ctx *source.Context, data *DataMap) (any, error)
}

func (p *stubPass) Key() Key           { return p.key }
func (p *stubPass) Depends() []Key     { return p.depends }
func (p *stubPass) Invalidates() []Key { return p.invalidates }
func (p *stubPass) Clone() Pass        { c := *p; return &c }
func (p *stubPass) Run(ctx *source.Context, data *DataMap) (any, error) {
	if p.run != nil {
		return p.run(ctx, data)
	}
	return string(p.key), nil
}

func keysEqual(got []Key, want ...Key) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewManager_OrdersByDependencies(t *testing.T) {
	m, err := NewManager(
		&stubPass{key: "late", depends: []Key{"mid"}},
		&stubPass{key: "mid", depends: []Key{"early"}},
		&stubPass{key: "early"},
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := m.Order(); !keysEqual(got, "early", "mid", "late") {
		t.Fatalf("Order() = %v, want [early mid late]", got)
	}
}

func TestNewManager_TiesRunInRegistrationOrder(t *testing.T) {
	m, err := NewManager(
		&stubPass{key: "b"},
		&stubPass{key: "a"},
		&stubPass{key: "c", depends: []Key{"b", "a"}},
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := m.Order(); !keysEqual(got, "b", "a", "c") {
		t.Fatalf("Order() = %v, want registration order for the tie", got)
	}
}

func TestNewManager_InvalidConfigurations(t *testing.T) {
	cases := []struct {
		name   string
		passes []Pass
	}{
		{
			"dependency cycle",
			[]Pass{
				&stubPass{key: "a", depends: []Key{"b"}},
				&stubPass{key: "b", depends: []Key{"a"}},
			},
		},
		{
			"self dependency",
			[]Pass{&stubPass{key: "a", depends: []Key{"a"}}},
		},
		{
			"unregistered dependency",
			[]Pass{&stubPass{key: "a", depends: []Key{"ghost"}}},
		},
		{
			"duplicate key",
			[]Pass{&stubPass{key: "a"}, &stubPass{key: "a"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.passes...); !errors.Is(err, ErrInvalidOrdering) {
				t.Fatalf("NewManager = %v, want ErrInvalidOrdering", err)
			}
		})
	}
}

func TestRun_ThreadsDataForward(t *testing.T) {
	producer := &stubPass{key: "produce", run: func(*source.Context, *DataMap) (any, error) {
		return 42, nil
	}}
	var seen int
	consumer := &stubPass{key: "consume", depends: []Key{"produce"}, run: func(_ *source.Context, data *DataMap) (any, error) {
		seen = MustGet[int](data, "produce")
		return nil, nil
	}}

	m, err := NewManager(consumer, producer)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	res, err := m.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen != 42 {
		t.Fatalf("consumer read %d, want 42", seen)
	}
	// A nil output stores no entry.
	if res.Data.Has("consume") {
		t.Fatal("nil pass output was stored")
	}
	if got := MustGet[int](res.Data, "produce"); got != 42 {
		t.Fatalf("final map entry = %d, want 42", got)
	}
}

func TestRun_EvictsInvalidatedEntries(t *testing.T) {
	m, err := NewManager(
		&stubPass{key: "analysis"},
		&stubPass{key: "transform", depends: []Key{"analysis"}, invalidates: []Key{"analysis"}},
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	res, err := m.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Data.Has("analysis") {
		t.Fatal("invalidated entry survived the run")
	}
	if !res.Data.Has("transform") {
		t.Fatal("invalidating pass's own output missing")
	}
}

func TestRun_AbortsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	m, err := NewManager(
		&stubPass{key: "fails", run: func(*source.Context, *DataMap) (any, error) {
			return nil, boom
		}},
		&stubPass{key: "after", depends: []Key{"fails"}, run: func(*source.Context, *DataMap) (any, error) {
			ran = true
			return nil, nil
		}},
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	_, err = m.Run(nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want the pass error", err)
	}
	if ran {
		t.Fatal("a pass ran after an earlier pass failed")
	}
}

func TestDataMap_GetTypeMismatchIsAbsent(t *testing.T) {
	data := NewDataMap()
	data.put("k", "a string")

	if _, ok := Get[int](data, "k"); ok {
		t.Fatal("Get with the wrong type reported presence")
	}
	if v, ok := Get[string](data, "k"); !ok || v != "a string" {
		t.Fatalf("Get[string] = %q, %v", v, ok)
	}
	if _, ok := Get[string](data, "missing"); ok {
		t.Fatal("Get on a missing key reported presence")
	}
}

func TestDataMap_MustGetPanics(t *testing.T) {
	data := NewDataMap()
	data.put("k", "a string")

	for _, tc := range []struct {
		name string
		f    func()
	}{
		{"wrong type", func() { MustGet[int](data, "k") }},
		{"missing key", func() { MustGet[string](data, "nope") }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("MustGet did not panic")
				}
			}()
			tc.f()
		})
	}
}

func TestClone_IndependentSchedule(t *testing.T) {
	runs := 0
	m, err := NewManager(&stubPass{key: "count", run: func(*source.Context, *DataMap) (any, error) {
		runs++
		return runs, nil
	}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := m.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	clone := m.Clone()
	if got := clone.Order(); !keysEqual(got, "count") {
		t.Fatalf("clone Order() = %v", got)
	}
	if _, err := clone.Run(nil); err != nil {
		t.Fatalf("clone Run: %v", err)
	}
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
}

func TestRun_ManyPassesDeterministic(t *testing.T) {
	// A wider graph: two independent chains joined by a final pass.
	var passes []Pass
	for i := 0; i < 4; i++ {
		key := Key(fmt.Sprintf("left/%d", i))
		p := &stubPass{key: key}
		if i > 0 {
			p.depends = []Key{Key(fmt.Sprintf("left/%d", i-1))}
		}
		passes = append(passes, p)
	}
	passes = append(passes, &stubPass{key: "right"})
	passes = append(passes, &stubPass{key: "join", depends: []Key{"left/3", "right"}})

	m, err := NewManager(passes...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	first := m.Order()
	for i := 0; i < 5; i++ {
		m2, err := NewManager(clonePasses(passes)...)
		if err != nil {
			t.Fatalf("NewManager: %v", err)
		}
		if !keysEqual(m2.Order(), first...) {
			t.Fatalf("order differs between constructions: %v vs %v", m2.Order(), first)
		}
	}
	if got := first[len(first)-1]; got != "join" {
		t.Fatalf("join scheduled at %v, want last", got)
	}
}

func clonePasses(passes []Pass) []Pass {
	out := make([]Pass, len(passes))
	for i, p := range passes {
		out[i] = p.Clone()
	}
	return out
}
