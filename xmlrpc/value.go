package xmlrpc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is the dynamic XML-RPC value: a closed union over the eight wire
// types. The only implementations are Int, Double, Bool, String, Base64,
// DateTime, Array and Struct; consumers may type-switch exhaustively.
type Value interface {
	fmt.Stringer

	// isValue seals the union.
	isValue()
}

// Int is the XML-RPC four-byte signed integer (<int> / <i4>).
type Int int32

// Double is the XML-RPC double-precision float (<double>).
type Double float64

// Bool is the XML-RPC boolean (<boolean>).
type Bool bool

// String is the XML-RPC string (<string>, or a bare <value>).
type String string

// Base64 is a raw octet sequence, base64-encoded on the wire (<base64>).
type Base64 []byte

// DateTime is the XML-RPC timestamp (<dateTime.iso8601>).
type DateTime time.Time

// Array is an ordered sequence of values (<array>). Nesting is arbitrary.
type Array []Value

// Member is a single named field of a Struct.
type Member struct {
	Name  string
	Value Value
}

// Struct is a mapping from string keys to values (<struct>). Member order is
// preserved for stable output; it carries no semantic weight. Names must be
// unique, which the decoder enforces.
type Struct []Member

func (Int) isValue()      {}
func (Double) isValue()   {}
func (Bool) isValue()     {}
func (String) isValue()   {}
func (Base64) isValue()   {}
func (DateTime) isValue() {}
func (Array) isValue()    {}
func (Struct) isValue()   {}

// Get returns the value of the named member and whether it exists.
func (s Struct) Get(name string) (Value, bool) {
	for _, m := range s {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

// iso8601Layout is the dateTime.iso8601 form emitted on the wire, matching
// the compact format used by stock XML-RPC implementations.
const iso8601Layout = "20060102T15:04:05"

func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Double) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v String) String() string { return strconv.Quote(string(v)) }

func (v Base64) String() string {
	return fmt.Sprintf("base64[% x]", []byte(v))
}

func (v DateTime) String() string {
	return time.Time(v).Format(iso8601Layout)
}

func (v Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(valueString(e))
	}
	b.WriteByte(']')
	return b.String()
}

func (v Struct) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, m := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(m.Name))
		b.WriteString(": ")
		b.WriteString(valueString(m.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// valueString renders v, tolerating a nil element so diagnostics never panic.
func valueString(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

// Equal reports structural equality of two values. Struct comparison ignores
// member order; everything else compares element-wise. Two nil values are
// equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Double:
		bv, ok := b.(Double)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Base64:
		bv, ok := b.(Base64)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case DateTime:
		bv, ok := b.(DateTime)
		return ok && time.Time(av).Equal(time.Time(bv))
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Struct:
		bv, ok := b.(Struct)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, m := range av {
			other, ok := bv.Get(m.Name)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}
