package xmlrpc

import (
	"testing"
	"time"
)

func TestEqual(t *testing.T) {
	when := time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"IntEqual", Int(42), Int(42), true},
		{"IntUnequal", Int(42), Int(-73), false},
		{"IntVsDouble", Int(42), Double(42), false},
		{"DoubleEqual", Double(12.3), Double(12.3), true},
		{"BoolEqual", Bool(true), Bool(true), true},
		{"BoolUnequal", Bool(true), Bool(false), false},
		{"StringEqual", String("hello"), String("hello"), true},
		{"StringVsBase64", String("hello"), Base64("hello"), false},
		{"Base64Equal", Base64{1, 2, 3}, Base64{1, 2, 3}, true},
		{"Base64Unequal", Base64{1, 2, 3}, Base64{1, 2, 4}, false},
		{"Base64EmptyVsNil", Base64{}, Base64(nil), true},
		{"DateTimeEqual", DateTime(when), DateTime(when), true},
		{"DateTimeZone", DateTime(when), DateTime(when.In(time.FixedZone("x", 3600))), true},
		{"ArrayEqual", Array{Int(1), String("a")}, Array{Int(1), String("a")}, true},
		{"ArrayLength", Array{Int(1)}, Array{Int(1), Int(2)}, false},
		{"ArrayOrder", Array{Int(1), Int(2)}, Array{Int(2), Int(1)}, false},
		{
			"StructOrderIrrelevant",
			Struct{{Name: "a", Value: Int(1)}, {Name: "b", Value: Int(2)}},
			Struct{{Name: "b", Value: Int(2)}, {Name: "a", Value: Int(1)}},
			true,
		},
		{
			"StructValueDiffers",
			Struct{{Name: "a", Value: Int(1)}},
			Struct{{Name: "a", Value: Int(2)}},
			false,
		},
		{
			"StructKeyDiffers",
			Struct{{Name: "a", Value: Int(1)}},
			Struct{{Name: "b", Value: Int(1)}},
			false,
		},
		{
			"Nested",
			Array{Struct{{Name: "xs", Value: Array{Int(1), Int(2)}}}},
			Array{Struct{{Name: "xs", Value: Array{Int(1), Int(2)}}}},
			true,
		},
		{"BothNil", nil, nil, true},
		{"OneNil", Int(1), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Equal(tt.b, tt.a); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	when := time.Date(1998, 7, 17, 14, 8, 55, 0, time.UTC)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"Int", Int(-73), "-73"},
		{"Double", Double(12.3), "12.3"},
		{"BoolTrue", Bool(true), "true"},
		{"BoolFalse", Bool(false), "false"},
		{"String", String("say \"hi\""), `"say \"hi\""`},
		{"Base64", Base64{0x01, 0xab}, "base64[01 ab]"},
		{"Base64Empty", Base64{}, "base64[]"},
		{"DateTime", DateTime(when), "19980717T14:08:55"},
		{"Array", Array{Int(1), String("a")}, `[1, "a"]`},
		{"ArrayEmpty", Array{}, "[]"},
		{
			"Struct",
			Struct{{Name: "k", Value: Int(1)}, {Name: "s", Value: String("v")}},
			`{"k": 1, "s": "v"}`,
		},
		{
			"Nested",
			Array{Struct{{Name: "xs", Value: Array{Bool(true)}}}},
			`[{"xs": [true]}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStructGet(t *testing.T) {
	st := Struct{{Name: "a", Value: Int(1)}, {Name: "b", Value: String("x")}}

	if v, ok := st.Get("b"); !ok || !Equal(v, String("x")) {
		t.Errorf("Get(b) = %v, %v", v, ok)
	}
	if _, ok := st.Get("missing"); ok {
		t.Error("Get(missing) reported presence")
	}
}
