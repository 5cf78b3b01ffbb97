package xmlrpc

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Handler is the registry-level callable: it receives the call's positional
// values and returns the result values, or an error. Return *Fault to send a
// deliberate fault; any other error becomes an application-error fault.
type Handler func(args []Value) ([]Value, error)

// MarshalError reports an arity or type mismatch while converting wire
// values to handler arguments, or a handler result the marshaller cannot
// represent. The dispatcher surfaces it as an invalid-params fault.
type MarshalError struct {
	Message string
}

func (e *MarshalError) Error() string {
	return "xmlrpc: marshal: " + e.Message
}

func marshalErrf(format string, args ...any) error {
	return &MarshalError{Message: fmt.Sprintf(format, args...)}
}

var (
	valueType = reflect.TypeOf((*Value)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	timeType  = reflect.TypeOf(time.Time{})
)

// argConverter turns one wire value into one typed argument.
type argConverter func(v Value) (reflect.Value, error)

// resultConverter turns one typed result back into a wire value.
type resultConverter func(rv reflect.Value) (Value, error)

// Func adapts an ordinary Go function into a Handler. The signature is
// inspected exactly once, here; converter closures for every parameter and
// result are composed up front so each call only checks arity and runs them.
//
// Parameters may be bool, any integer or float type, string, []byte,
// time.Time, slices, string-keyed maps, tagged structs (`xmlrpc:"name"`
// field tags, falling back to the field name), or Value to accept anything.
// Results follow the same rules; an optional trailing error return carries
// failures. Variadic functions are rejected: arity is always exact.
func Func(fn any) (Handler, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("xmlrpc: Func: not a function: %T", fn)
	}
	ft := rv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("xmlrpc: Func: variadic functions are not supported")
	}

	argConvs := make([]argConverter, ft.NumIn())
	for i := range argConvs {
		conv, err := converterFor(ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("xmlrpc: Func: parameter %d: %w", i+1, err)
		}
		argConvs[i] = conv
	}

	numOut := ft.NumOut()
	hasErr := numOut > 0 && ft.Out(numOut-1) == errorType
	numRes := numOut
	if hasErr {
		numRes--
	}
	resConvs := make([]resultConverter, numRes)
	for i := range resConvs {
		conv, err := resultFor(ft.Out(i))
		if err != nil {
			return nil, fmt.Errorf("xmlrpc: Func: result %d: %w", i+1, err)
		}
		resConvs[i] = conv
	}

	return func(args []Value) ([]Value, error) {
		if len(args) != len(argConvs) {
			return nil, marshalErrf("got %d arguments, want %d", len(args), len(argConvs))
		}
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			v, err := argConvs[i](a)
			if err != nil {
				return nil, marshalErrf("argument %d: %v", i+1, err)
			}
			in[i] = v
		}

		out := rv.Call(in)
		if hasErr {
			if e := out[numRes]; !e.IsNil() {
				return nil, e.Interface().(error)
			}
		}

		vals := make([]Value, numRes)
		for i := 0; i < numRes; i++ {
			v, err := resConvs[i](out[i])
			if err != nil {
				return nil, marshalErrf("result %d: %v", i+1, err)
			}
			vals[i] = v
		}
		return vals, nil
	}, nil
}

// MustFunc is Func but panics on an unsupported signature. Intended for
// registration at startup, where a bad signature is a programming error.
func MustFunc(fn any) Handler {
	h, err := Func(fn)
	if err != nil {
		panic(err)
	}
	return h
}

// packParams collapses a handler's result sequence into response params:
// zero results stay empty, a single result is carried as-is, and multiple
// results are wrapped into one array value, since a response carries at most
// one logical value on the wire.
func packParams(vals []Value) []Value {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals
	default:
		return []Value{Array(vals)}
	}
}

// kindName names a value's wire type for diagnostics.
func kindName(v Value) string {
	switch v.(type) {
	case Int:
		return "int"
	case Double:
		return "double"
	case Bool:
		return "boolean"
	case String:
		return "string"
	case Base64:
		return "base64"
	case DateTime:
		return "dateTime"
	case Array:
		return "array"
	case Struct:
		return "struct"
	}
	return "unknown"
}

// converterFor builds the wire-to-typed converter for one parameter type.
// Conversion is permissive within the dynamic format: any numeric value
// converts to any numeric target (narrowing allowed), strings and byte
// sequences interconvert, aggregates convert structurally and recursively.
func converterFor(t reflect.Type) (argConverter, error) {
	if t == valueType {
		return func(v Value) (reflect.Value, error) {
			return reflect.ValueOf(&v).Elem(), nil
		}, nil
	}
	if t == timeType {
		return func(v Value) (reflect.Value, error) {
			d, ok := v.(DateTime)
			if !ok {
				return reflect.Value{}, fmt.Errorf("cannot convert %s to time.Time", kindName(v))
			}
			return reflect.ValueOf(time.Time(d)), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return func(v Value) (reflect.Value, error) {
			b, ok := v.(Bool)
			if !ok {
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			rv := reflect.New(t).Elem()
			rv.SetBool(bool(b))
			return rv, nil
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v Value) (reflect.Value, error) {
			rv := reflect.New(t).Elem()
			switch n := v.(type) {
			case Int:
				rv.SetInt(int64(n))
			case Double:
				rv.SetInt(int64(n))
			default:
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			return rv, nil
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(v Value) (reflect.Value, error) {
			rv := reflect.New(t).Elem()
			switch n := v.(type) {
			case Int:
				rv.SetUint(uint64(n))
			case Double:
				rv.SetUint(uint64(n))
			default:
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			return rv, nil
		}, nil

	case reflect.Float32, reflect.Float64:
		return func(v Value) (reflect.Value, error) {
			rv := reflect.New(t).Elem()
			switch n := v.(type) {
			case Int:
				rv.SetFloat(float64(n))
			case Double:
				rv.SetFloat(float64(n))
			default:
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			return rv, nil
		}, nil

	case reflect.String:
		return func(v Value) (reflect.Value, error) {
			rv := reflect.New(t).Elem()
			switch s := v.(type) {
			case String:
				rv.SetString(string(s))
			case Base64:
				rv.SetString(string(s))
			default:
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			return rv, nil
		}, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(v Value) (reflect.Value, error) {
				switch b := v.(type) {
				case Base64:
					return reflect.ValueOf([]byte(b)).Convert(t), nil
				case String:
					return reflect.ValueOf([]byte(b)).Convert(t), nil
				}
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}, nil
		}
		elemConv, err := converterFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(v Value) (reflect.Value, error) {
			arr, ok := v.(Array)
			if !ok {
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			out := reflect.MakeSlice(t, len(arr), len(arr))
			for i, e := range arr {
				ev, err := elemConv(e)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("element %d: %v", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", t.Key())
		}
		elemConv, err := converterFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(v Value) (reflect.Value, error) {
			st, ok := v.(Struct)
			if !ok {
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			out := reflect.MakeMapWithSize(t, len(st))
			for _, m := range st {
				ev, err := elemConv(m.Value)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("member %q: %v", m.Name, err)
				}
				out.SetMapIndex(reflect.ValueOf(m.Name).Convert(t.Key()), ev)
			}
			return out, nil
		}, nil

	case reflect.Struct:
		plan, err := structPlanFor(t)
		if err != nil {
			return nil, err
		}
		convs := make([]argConverter, len(plan))
		for i, f := range plan {
			conv, err := converterFor(t.Field(f.index).Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.name, err)
			}
			convs[i] = conv
		}
		return func(v Value) (reflect.Value, error) {
			st, ok := v.(Struct)
			if !ok {
				return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", kindName(v), t)
			}
			out := reflect.New(t).Elem()
			for i, f := range plan {
				mv, ok := st.Get(f.name)
				if !ok {
					return reflect.Value{}, fmt.Errorf("missing struct member %q", f.name)
				}
				fv, err := convs[i](mv)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("member %q: %v", f.name, err)
				}
				out.Field(f.index).Set(fv)
			}
			return out, nil
		}, nil

	case reflect.Pointer:
		elemConv, err := converterFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(v Value) (reflect.Value, error) {
			ev, err := elemConv(v)
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(t.Elem())
			out.Elem().Set(ev)
			return out, nil
		}, nil
	}

	return nil, fmt.Errorf("unsupported parameter type %s", t)
}

// resultFor builds the typed-to-wire converter for one result type.
func resultFor(t reflect.Type) (resultConverter, error) {
	if t == valueType {
		return func(rv reflect.Value) (Value, error) {
			v, ok := rv.Interface().(Value)
			if !ok || v == nil {
				return nil, fmt.Errorf("nil Value result")
			}
			return v, nil
		}, nil
	}
	if t == timeType {
		return func(rv reflect.Value) (Value, error) {
			return DateTime(rv.Interface().(time.Time)), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return func(rv reflect.Value) (Value, error) {
			return Bool(rv.Bool()), nil
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(rv reflect.Value) (Value, error) {
			return Int(rv.Int()), nil
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(rv reflect.Value) (Value, error) {
			return Int(rv.Uint()), nil
		}, nil

	case reflect.Float32, reflect.Float64:
		return func(rv reflect.Value) (Value, error) {
			return Double(rv.Float()), nil
		}, nil

	case reflect.String:
		return func(rv reflect.Value) (Value, error) {
			return String(rv.String()), nil
		}, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(rv reflect.Value) (Value, error) {
				return Base64(rv.Bytes()), nil
			}, nil
		}
		elemConv, err := resultFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(rv reflect.Value) (Value, error) {
			out := make(Array, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				ev, err := elemConv(rv.Index(i))
				if err != nil {
					return nil, fmt.Errorf("element %d: %v", i, err)
				}
				out[i] = ev
			}
			return out, nil
		}, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", t.Key())
		}
		elemConv, err := resultFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(rv reflect.Value) (Value, error) {
			keys := make([]string, 0, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				keys = append(keys, iter.Key().String())
			}
			// Map iteration order is random; sort for stable output.
			sort.Strings(keys)
			out := make(Struct, 0, len(keys))
			for _, k := range keys {
				ev, err := elemConv(rv.MapIndex(reflect.ValueOf(k).Convert(t.Key())))
				if err != nil {
					return nil, fmt.Errorf("member %q: %v", k, err)
				}
				out = append(out, Member{Name: k, Value: ev})
			}
			return out, nil
		}, nil

	case reflect.Struct:
		plan, err := structPlanFor(t)
		if err != nil {
			return nil, err
		}
		convs := make([]resultConverter, len(plan))
		for i, f := range plan {
			conv, err := resultFor(t.Field(f.index).Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.name, err)
			}
			convs[i] = conv
		}
		return func(rv reflect.Value) (Value, error) {
			out := make(Struct, 0, len(plan))
			for i, f := range plan {
				ev, err := convs[i](rv.Field(f.index))
				if err != nil {
					return nil, fmt.Errorf("member %q: %v", f.name, err)
				}
				out = append(out, Member{Name: f.name, Value: ev})
			}
			return out, nil
		}, nil

	case reflect.Pointer:
		elemConv, err := resultFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(rv reflect.Value) (Value, error) {
			if rv.IsNil() {
				return nil, fmt.Errorf("nil pointer result")
			}
			return elemConv(rv.Elem())
		}, nil
	}

	return nil, fmt.Errorf("unsupported result type %s", t)
}

// structField is one exported field participating in struct conversion.
type structField struct {
	index int
	name  string
}

// structPlanFor maps a struct type's exported fields to wire member names.
// The xmlrpc tag overrides the name; "-" excludes the field.
func structPlanFor(t reflect.Type) ([]structField, error) {
	var plan []structField
	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag := f.Tag.Get("xmlrpc"); tag != "" {
			name = strings.Split(tag, ",")[0]
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate struct member %q in %s", name, t)
		}
		seen[name] = true
		plan = append(plan, structField{index: i, name: name})
	}
	return plan, nil
}
