package xmlrpc

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFuncRejectsBadSignatures(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{"NotAFunction", 42},
		{"Nil", nil},
		{"Variadic", func(xs ...int) int { return 0 }},
		{"ChannelParam", func(c chan int) {}},
		{"FuncParam", func(f func()) {}},
		{"ChannelResult", func() chan int { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Func(tt.fn); err == nil {
				t.Error("expected registration error, got nil")
			}
		})
	}
}

func TestFuncUnpack(t *testing.T) {
	tests := []struct {
		name    string
		h       Handler
		args    []Value
		want    []Value
		wantErr bool
	}{
		{
			"Scalars",
			MustFunc(func(a int32, b float64, c bool, d string) string {
				if c {
					return d
				}
				return ""
			}),
			[]Value{Int(1), Double(2.5), Bool(true), String("ok")},
			[]Value{String("ok")},
			false,
		},
		{
			"NumericNarrowing",
			MustFunc(func(a int, b int64, c float32) int { return a + int(b) + int(c) }),
			[]Value{Int(1), Double(2.9), Int(3)},
			[]Value{Int(6)},
			false,
		},
		{
			"IntToFloat",
			MustFunc(func(x float64) float64 { return x * 2 }),
			[]Value{Int(21)},
			[]Value{Double(42)},
			false,
		},
		{
			"Base64ToString",
			MustFunc(func(s string) int { return len(s) }),
			[]Value{Base64("raw")},
			[]Value{Int(3)},
			false,
		},
		{
			"StringToBytes",
			MustFunc(func(b []byte) int { return len(b) }),
			[]Value{String("four")},
			[]Value{Int(4)},
			false,
		},
		{
			"Slice",
			MustFunc(func(xs []float64) float64 {
				var sum float64
				for _, x := range xs {
					sum += x
				}
				return sum
			}),
			[]Value{Array{Double(1.5), Double(2.5), Int(1)}},
			[]Value{Double(5)},
			false,
		},
		{
			"Map",
			MustFunc(func(m map[string]int32) int32 { return m["a"] + m["b"] }),
			[]Value{Struct{{Name: "a", Value: Int(1)}, {Name: "b", Value: Int(2)}}},
			[]Value{Int(3)},
			false,
		},
		{
			"DynamicValue",
			MustFunc(func(v Value) string { return kindName(v) }),
			[]Value{Base64{1}},
			[]Value{String("base64")},
			false,
		},
		{
			"WrongArityLow",
			MustFunc(func(a, b int32) int32 { return a + b }),
			[]Value{Int(1)},
			nil,
			true,
		},
		{
			"WrongArityHigh",
			MustFunc(func(a int32) int32 { return a }),
			[]Value{Int(1), Int(2)},
			nil,
			true,
		},
		{
			"WrongType",
			MustFunc(func(a int32) int32 { return a }),
			[]Value{String("not a number")},
			nil,
			true,
		},
		{
			"WrongElementType",
			MustFunc(func(xs []int32) int { return len(xs) }),
			[]Value{Array{Int(1), String("x")}},
			nil,
			true,
		},
		{
			"StructForScalar",
			MustFunc(func(a bool) bool { return a }),
			[]Value{Struct{}},
			nil,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.h(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var me *MarshalError
				if !errors.As(err, &me) {
					t.Errorf("got %T, want *MarshalError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !Equal(got[i], tt.want[i]) {
					t.Errorf("result %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

type rangeArgs struct {
	Lower int32 `xmlrpc:"lowerBound"`
	Upper int32 `xmlrpc:"upperBound"`
	note  string
}

func TestFuncStructParams(t *testing.T) {
	h := MustFunc(func(r rangeArgs) int32 { return r.Upper - r.Lower })

	got, err := h([]Value{Struct{
		{Name: "lowerBound", Value: Int(18)},
		{Name: "upperBound", Value: Int(139)},
	}})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !Equal(got[0], Int(121)) {
		t.Errorf("got %v, want 121", got[0])
	}

	// A missing member is a marshalling failure, not a zero value.
	_, err = h([]Value{Struct{{Name: "lowerBound", Value: Int(18)}}})
	var me *MarshalError
	if !errors.As(err, &me) {
		t.Errorf("got %T (%v), want *MarshalError", err, err)
	}
}

func TestFuncPack(t *testing.T) {
	when := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		h    Handler
		want []Value
	}{
		{
			"NoResult",
			MustFunc(func() {}),
			nil,
		},
		{
			"ErrorOnlyNil",
			MustFunc(func() error { return nil }),
			nil,
		},
		{
			"SingleScalar",
			MustFunc(func() int32 { return 7 }),
			[]Value{Int(7)},
		},
		{
			"SingleAggregate",
			MustFunc(func() map[string]string { return map[string]string{"b": "2", "a": "1"} }),
			[]Value{Struct{{Name: "a", Value: String("1")}, {Name: "b", Value: String("2")}}},
		},
		{
			"Time",
			MustFunc(func() time.Time { return when }),
			[]Value{DateTime(when)},
		},
		{
			"Bytes",
			MustFunc(func() []byte { return []byte{1, 2} }),
			[]Value{Base64{1, 2}},
		},
		{
			"TaggedStruct",
			MustFunc(func() rangeArgs { return rangeArgs{Lower: 1, Upper: 2} }),
			[]Value{Struct{
				{Name: "lowerBound", Value: Int(1)},
				{Name: "upperBound", Value: Int(2)},
			}},
		},
		{
			"Pointer",
			MustFunc(func() *rangeArgs { return &rangeArgs{Lower: 3, Upper: 4} }),
			[]Value{Struct{
				{Name: "lowerBound", Value: Int(3)},
				{Name: "upperBound", Value: Int(4)},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.h(nil)
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !Equal(got[i], tt.want[i]) {
					t.Errorf("result %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFuncErrorPassthrough(t *testing.T) {
	sentinel := errors.New("boom")
	h := MustFunc(func() (int32, error) { return 0, sentinel })
	_, err := h(nil)
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want the handler's own error", err)
	}

	h = MustFunc(func() error { return &Fault{Code: 1, Message: "deliberate"} })
	_, err = h(nil)
	var f *Fault
	if !errors.As(err, &f) || f.Code != 1 {
		t.Errorf("got %v, want fault code 1", err)
	}
}

func TestPackParams(t *testing.T) {
	tests := []struct {
		name string
		in   []Value
		want []Value
	}{
		{"Empty", nil, nil},
		{"Single", []Value{Int(1)}, []Value{Int(1)}},
		{"Pair", []Value{Int(-73), Int(42)}, []Value{Array{Int(-73), Int(42)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packParams(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d params, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !Equal(got[i], tt.want[i]) {
					t.Errorf("param %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMustFuncPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustFunc did not panic on a bad signature")
		}
	}()
	MustFunc(func(c chan int) {})
}

func TestMarshalErrorMessageNamesArgument(t *testing.T) {
	h := MustFunc(func(a int32, b int32) int32 { return a + b })
	_, err := h([]Value{Int(1), String("x")})
	if err == nil || !strings.Contains(err.Error(), "argument 2") {
		t.Errorf("got %v, want message naming argument 2", err)
	}
}
