package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// MethodCall is a decoded methodCall document: a method name and its
// positional parameters.
type MethodCall struct {
	Name   string
	Params []Value
}

// MethodResponse is a decoded methodResponse document. Exactly one of the
// two outcomes is populated: Params for a success, Fault for a fault. A
// successful response carries at most one logical value.
type MethodResponse struct {
	Params []Value
	Fault  *Fault
}

// DecodeError reports a malformed or incomplete wire payload. It is the only
// error kind the codec returns; nothing escapes the codec boundary as a
// panic or an unclassified error.
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return "xmlrpc: decode: " + e.Message + ": " + e.Cause.Error()
	}
	return "xmlrpc: decode: " + e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func decodeErrf(format string, args ...any) error {
	return &DecodeError{Message: fmt.Sprintf(format, args...)}
}

// maxDecodeDepth bounds array/struct nesting in decoded documents. The wire
// grammar itself allows unbounded nesting, which would let a small payload
// exhaust the stack.
const maxDecodeDepth = 64

// DecodeRequest parses a methodCall document.
func DecodeRequest(data []byte) (*MethodCall, error) {
	dec := newDecoder(data)
	if _, err := dec.start("methodCall"); err != nil {
		return nil, err
	}
	se, err := dec.start("methodName")
	if err != nil {
		return nil, err
	}
	name, err := dec.text(se)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, decodeErrf("empty method name")
	}

	call := &MethodCall{Name: name}

	tok, err := dec.next()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case xml.EndElement:
		// methodCall without params.
		return call, nil
	case xml.StartElement:
		if t.Name.Local != "params" {
			return nil, decodeErrf("unexpected element <%s> in methodCall", t.Name.Local)
		}
		params, err := dec.params()
		if err != nil {
			return nil, err
		}
		call.Params = params
		if err := dec.end("methodCall"); err != nil {
			return nil, err
		}
		return call, nil
	default:
		return nil, decodeErrf("unexpected token in methodCall")
	}
}

// DecodeResponse parses a methodResponse document, either the params branch
// or the fault branch.
func DecodeResponse(data []byte) (*MethodResponse, error) {
	dec := newDecoder(data)
	if _, err := dec.start("methodResponse"); err != nil {
		return nil, err
	}
	tok, err := dec.next()
	if err != nil {
		return nil, err
	}
	se, ok := tok.(xml.StartElement)
	if !ok {
		return nil, decodeErrf("empty methodResponse")
	}

	switch se.Name.Local {
	case "params":
		params, err := dec.params()
		if err != nil {
			return nil, err
		}
		if len(params) > 1 {
			return nil, decodeErrf("response carries %d values, want at most one", len(params))
		}
		if err := dec.end("methodResponse"); err != nil {
			return nil, err
		}
		return &MethodResponse{Params: params}, nil

	case "fault":
		f, err := dec.fault()
		if err != nil {
			return nil, err
		}
		if err := dec.end("methodResponse"); err != nil {
			return nil, err
		}
		return &MethodResponse{Fault: f}, nil

	default:
		return nil, decodeErrf("unexpected element <%s> in methodResponse", se.Name.Local)
	}
}

// decoder walks the XML token stream. All failures surface as *DecodeError.
type decoder struct {
	d *xml.Decoder
}

func newDecoder(data []byte) *decoder {
	return &decoder{d: xml.NewDecoder(bytes.NewReader(data))}
}

func tokenErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &DecodeError{Message: "unexpected end of document"}
	}
	return &DecodeError{Message: "malformed XML", Cause: err}
}

// next returns the next structural token, skipping comments, processing
// instructions, directives and inter-element whitespace.
func (dec *decoder) next() (xml.Token, error) {
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return nil, tokenErr(err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			return nil, decodeErrf("unexpected character data %q", string(t))
		default:
			return tok, nil
		}
	}
}

// start consumes the next start element, which must be named name.
func (dec *decoder) start(name string) (xml.StartElement, error) {
	tok, err := dec.next()
	if err != nil {
		return xml.StartElement{}, err
	}
	se, ok := tok.(xml.StartElement)
	if !ok {
		return xml.StartElement{}, decodeErrf("expected <%s>", name)
	}
	if se.Name.Local != name {
		return xml.StartElement{}, decodeErrf("expected <%s>, got <%s>", name, se.Name.Local)
	}
	return se, nil
}

// end consumes the next end element, which must close name.
func (dec *decoder) end(name string) error {
	tok, err := dec.next()
	if err != nil {
		return err
	}
	ee, ok := tok.(xml.EndElement)
	if !ok || ee.Name.Local != name {
		return decodeErrf("expected </%s>", name)
	}
	return nil
}

// text reads character data up to the end of the element opened by se.
// Nested elements are a decode failure.
func (dec *decoder) text(se xml.StartElement) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return "", tokenErr(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.Comment, xml.ProcInst, xml.Directive:
			// skip
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", decodeErrf("unexpected element <%s> inside <%s>", t.Name.Local, se.Name.Local)
		}
	}
}

// params consumes zero or more <param><value>...</value></param> children,
// assuming <params> has already been consumed, through </params>.
func (dec *decoder) params() ([]Value, error) {
	var out []Value
	for {
		tok, err := dec.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return out, nil
		case xml.StartElement:
			if t.Name.Local != "param" {
				return nil, decodeErrf("unexpected element <%s> in params", t.Name.Local)
			}
			if _, err := dec.start("value"); err != nil {
				return nil, err
			}
			v, err := dec.value(0)
			if err != nil {
				return nil, err
			}
			if err := dec.end("param"); err != nil {
				return nil, err
			}
			out = append(out, v)
		default:
			return nil, decodeErrf("unexpected token in params")
		}
	}
}

// value parses the contents of a <value> element, consuming through the
// closing </value>. A value with no type element decodes as a string, per
// the XML-RPC default-type rule.
func (dec *decoder) value(depth int) (Value, error) {
	if depth > maxDecodeDepth {
		return nil, decodeErrf("value nesting exceeds %d levels", maxDecodeDepth)
	}
	var text strings.Builder
	for {
		tok, err := dec.d.Token()
		if err != nil {
			return nil, tokenErr(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.Comment, xml.ProcInst, xml.Directive:
			// skip
		case xml.EndElement:
			// Bare <value>text</value>.
			return String(text.String()), nil
		case xml.StartElement:
			v, err := dec.typedValue(t, depth)
			if err != nil {
				return nil, err
			}
			if err := dec.end("value"); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
}

// typedValue parses one typed value element (already consumed as se) through
// its closing tag.
func (dec *decoder) typedValue(se xml.StartElement, depth int) (Value, error) {
	switch se.Name.Local {
	case "int", "i4":
		s, err := dec.text(se)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, decodeErrf("invalid integer %q", strings.TrimSpace(s))
		}
		return Int(n), nil

	case "boolean":
		s, err := dec.text(se)
		if err != nil {
			return nil, err
		}
		switch strings.TrimSpace(s) {
		case "0":
			return Bool(false), nil
		case "1":
			return Bool(true), nil
		}
		return nil, decodeErrf("invalid boolean %q", strings.TrimSpace(s))

	case "double":
		s, err := dec.text(se)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, decodeErrf("invalid double %q", strings.TrimSpace(s))
		}
		return Double(f), nil

	case "string":
		s, err := dec.text(se)
		if err != nil {
			return nil, err
		}
		return String(s), nil

	case "base64":
		s, err := dec.text(se)
		if err != nil {
			return nil, err
		}
		b, err := base64.StdEncoding.DecodeString(stripSpace(s))
		if err != nil {
			return nil, &DecodeError{Message: "invalid base64 data", Cause: err}
		}
		return Base64(b), nil

	case "dateTime.iso8601":
		s, err := dec.text(se)
		if err != nil {
			return nil, err
		}
		t, err := parseISO8601(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		return DateTime(t), nil

	case "array":
		if _, err := dec.start("data"); err != nil {
			return nil, err
		}
		arr := Array{}
		for {
			tok, err := dec.next()
			if err != nil {
				return nil, err
			}
			switch t := tok.(type) {
			case xml.EndElement:
				// </data>; the closing </array> follows.
				if err := dec.end("array"); err != nil {
					return nil, err
				}
				return arr, nil
			case xml.StartElement:
				if t.Name.Local != "value" {
					return nil, decodeErrf("unexpected element <%s> in array data", t.Name.Local)
				}
				v, err := dec.value(depth + 1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			default:
				return nil, decodeErrf("unexpected token in array data")
			}
		}

	case "struct":
		st := Struct{}
		for {
			tok, err := dec.next()
			if err != nil {
				return nil, err
			}
			switch t := tok.(type) {
			case xml.EndElement:
				return st, nil
			case xml.StartElement:
				if t.Name.Local != "member" {
					return nil, decodeErrf("unexpected element <%s> in struct", t.Name.Local)
				}
				nameEl, err := dec.start("name")
				if err != nil {
					return nil, err
				}
				name, err := dec.text(nameEl)
				if err != nil {
					return nil, err
				}
				if _, ok := st.Get(name); ok {
					return nil, decodeErrf("duplicate struct member %q", name)
				}
				if _, err := dec.start("value"); err != nil {
					return nil, err
				}
				v, err := dec.value(depth + 1)
				if err != nil {
					return nil, err
				}
				if err := dec.end("member"); err != nil {
					return nil, err
				}
				st = append(st, Member{Name: name, Value: v})
			default:
				return nil, decodeErrf("unexpected token in struct")
			}
		}

	default:
		return nil, decodeErrf("unknown value type <%s>", se.Name.Local)
	}
}

// fault parses the contents of a <fault> element through </fault>, assuming
// the start element has been consumed.
func (dec *decoder) fault() (*Fault, error) {
	if _, err := dec.start("value"); err != nil {
		return nil, err
	}
	v, err := dec.value(0)
	if err != nil {
		return nil, err
	}
	if err := dec.end("fault"); err != nil {
		return nil, err
	}
	st, ok := v.(Struct)
	if !ok {
		return nil, decodeErrf("fault value is not a struct")
	}
	codeVal, ok := st.Get("faultCode")
	if !ok {
		return nil, decodeErrf("fault struct lacks faultCode")
	}
	code, ok := codeVal.(Int)
	if !ok {
		return nil, decodeErrf("faultCode is not an integer")
	}
	msgVal, ok := st.Get("faultString")
	if !ok {
		return nil, decodeErrf("fault struct lacks faultString")
	}
	msg, ok := msgVal.(String)
	if !ok {
		return nil, decodeErrf("faultString is not a string")
	}
	return &Fault{Code: int(code), Message: string(msg)}, nil
}

// iso8601Layouts lists accepted dateTime.iso8601 spellings. The compact form
// is what stock implementations emit; the dashed form appears in the wild.
var iso8601Layouts = []string{
	"20060102T15:04:05",
	"2006-01-02T15:04:05",
	"20060102T15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

func parseISO8601(s string) (time.Time, error) {
	for _, layout := range iso8601Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, decodeErrf("invalid dateTime %q", s)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
