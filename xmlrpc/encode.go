package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

const xmlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"

// entityEscaper escapes the three characters XML-RPC requires inside text
// content. Nothing else is escaped, keeping output byte-compatible with
// stock implementations.
var entityEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EncodeRequest renders call as a methodCall document. It is total: any
// MethodCall with well-formed values encodes without failure.
func EncodeRequest(call *MethodCall) []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	b.WriteString("<methodCall>\n<methodName>")
	entityEscaper.WriteString(&b, call.Name)
	b.WriteString("</methodName>\n<params>\n")
	for _, v := range call.Params {
		b.WriteString("<param>")
		encodeValue(&b, v)
		b.WriteString("</param>\n")
	}
	b.WriteString("</params>\n</methodCall>\n")
	return b.Bytes()
}

// EncodeResponse renders resp as a methodResponse document. A non-nil Fault
// always wins over Params; a success with no params renders an empty params
// element.
func EncodeResponse(resp *MethodResponse) []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	b.WriteString("<methodResponse>\n")
	if resp.Fault != nil {
		b.WriteString("<fault>")
		encodeValue(&b, Struct{
			{Name: "faultCode", Value: Int(resp.Fault.Code)},
			{Name: "faultString", Value: String(resp.Fault.Message)},
		})
		b.WriteString("</fault>\n")
	} else {
		b.WriteString("<params>\n")
		for _, v := range resp.Params {
			b.WriteString("<param>")
			encodeValue(&b, v)
			b.WriteString("</param>\n")
		}
		b.WriteString("</params>\n")
	}
	b.WriteString("</methodResponse>\n")
	return b.Bytes()
}

func encodeValue(b *bytes.Buffer, v Value) {
	b.WriteString("<value>")
	switch t := v.(type) {
	case Int:
		b.WriteString("<int>")
		b.WriteString(strconv.FormatInt(int64(t), 10))
		b.WriteString("</int>")
	case Double:
		b.WriteString("<double>")
		b.WriteString(strconv.FormatFloat(float64(t), 'g', -1, 64))
		b.WriteString("</double>")
	case Bool:
		if t {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
	case String:
		b.WriteString("<string>")
		entityEscaper.WriteString(b, string(t))
		b.WriteString("</string>")
	case Base64:
		b.WriteString("<base64>")
		b.WriteString(base64.StdEncoding.EncodeToString(t))
		b.WriteString("</base64>")
	case DateTime:
		b.WriteString("<dateTime.iso8601>")
		b.WriteString(time.Time(t).Format(iso8601Layout))
		b.WriteString("</dateTime.iso8601>")
	case Array:
		b.WriteString("<array><data>")
		for _, e := range t {
			encodeValue(b, e)
		}
		b.WriteString("</data></array>")
	case Struct:
		b.WriteString("<struct>")
		for _, m := range t {
			b.WriteString("<member><name>")
			entityEscaper.WriteString(b, m.Name)
			b.WriteString("</name>")
			encodeValue(b, m.Value)
			b.WriteString("</member>")
		}
		b.WriteString("</struct>")
	case nil:
		// A nil value should not reach the encoder; render it as an empty
		// string rather than corrupting the document.
		b.WriteString("<string></string>")
	}
	b.WriteString("</value>")
}
