package xmlrpc

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Binary Value interchange. Embedding code that wants to journal or cache
// decoded values (session state, replay logs) can round-trip them through
// CBOR without re-encoding XML. The encoding is a small tagged envelope so
// the closed union survives intact: a plain CBOR mapping could not tell a
// string from a byte sequence or preserve struct member order.

type valueKind uint8

const (
	kindInt valueKind = iota + 1
	kindDouble
	kindBool
	kindString
	kindBase64
	kindDateTime
	kindArray
	kindStruct
)

// cborNode is the envelope for one value. Integer keys keep the encoding
// compact.
type cborNode struct {
	Kind    valueKind  `cbor:"0,keyasint"`
	Int     int32      `cbor:"1,keyasint,omitempty"`
	Double  float64    `cbor:"2,keyasint,omitempty"`
	Bool    bool       `cbor:"3,keyasint,omitempty"`
	Str     string     `cbor:"4,keyasint,omitempty"`
	Bytes   []byte     `cbor:"5,keyasint,omitempty"`
	Time    time.Time  `cbor:"6,keyasint"`
	List    []cborNode `cbor:"7,keyasint,omitempty"`
	Names   []string   `cbor:"8,keyasint,omitempty"`
	Members []cborNode `cbor:"9,keyasint,omitempty"`
}

// cborEnc preserves sub-second timestamp precision across the round trip.
var cborEnc = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalValueCBOR encodes v in the binary interchange form.
func MarshalValueCBOR(v Value) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}
	return cborEnc.Marshal(node)
}

// UnmarshalValueCBOR decodes data produced by MarshalValueCBOR.
func UnmarshalValueCBOR(data []byte) (Value, error) {
	var node cborNode
	if err := cbor.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("xmlrpc: cbor: %w", err)
	}
	return fromNode(node)
}

func toNode(v Value) (cborNode, error) {
	switch t := v.(type) {
	case Int:
		return cborNode{Kind: kindInt, Int: int32(t)}, nil
	case Double:
		return cborNode{Kind: kindDouble, Double: float64(t)}, nil
	case Bool:
		return cborNode{Kind: kindBool, Bool: bool(t)}, nil
	case String:
		return cborNode{Kind: kindString, Str: string(t)}, nil
	case Base64:
		return cborNode{Kind: kindBase64, Bytes: t}, nil
	case DateTime:
		return cborNode{Kind: kindDateTime, Time: time.Time(t)}, nil
	case Array:
		list := make([]cborNode, len(t))
		for i, e := range t {
			n, err := toNode(e)
			if err != nil {
				return cborNode{}, err
			}
			list[i] = n
		}
		return cborNode{Kind: kindArray, List: list}, nil
	case Struct:
		names := make([]string, len(t))
		members := make([]cborNode, len(t))
		for i, m := range t {
			n, err := toNode(m.Value)
			if err != nil {
				return cborNode{}, err
			}
			names[i] = m.Name
			members[i] = n
		}
		return cborNode{Kind: kindStruct, Names: names, Members: members}, nil
	}
	return cborNode{}, fmt.Errorf("xmlrpc: cbor: cannot encode nil value")
}

func fromNode(node cborNode) (Value, error) {
	switch node.Kind {
	case kindInt:
		return Int(node.Int), nil
	case kindDouble:
		return Double(node.Double), nil
	case kindBool:
		return Bool(node.Bool), nil
	case kindString:
		return String(node.Str), nil
	case kindBase64:
		return Base64(node.Bytes), nil
	case kindDateTime:
		return DateTime(node.Time), nil
	case kindArray:
		out := make(Array, len(node.List))
		for i, n := range node.List {
			v, err := fromNode(n)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case kindStruct:
		if len(node.Names) != len(node.Members) {
			return nil, fmt.Errorf("xmlrpc: cbor: struct has %d names but %d members", len(node.Names), len(node.Members))
		}
		out := make(Struct, len(node.Members))
		for i, n := range node.Members {
			v, err := fromNode(n)
			if err != nil {
				return nil, err
			}
			out[i] = Member{Name: node.Names[i], Value: v}
		}
		return out, nil
	}
	return nil, fmt.Errorf("xmlrpc: cbor: unknown value kind %d", node.Kind)
}
