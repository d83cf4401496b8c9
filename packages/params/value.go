package params

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/abdul-hamid-achik/hittest/packages/upload"
	"github.com/hashicorp/go-multierror"
)

// Value is a node of a parameter tree. It is implemented only by Null,
// String, List, *Map and File. A nil Value behaves like Null.
type Value interface {
	isValue()
}

// Null is an absent scalar. Under a key it encodes as the bare key.
type Null struct{}

// String is a scalar value
type String string

// List is an ordered sequence of values
type List []Value

// File is an uploaded file leaf
type File struct {
	*upload.File
}

func (Null) isValue()   {}
func (String) isValue() {}
func (List) isValue()   {}
func (*Map) isValue()   {}
func (File) isValue()   {}

// Map is a string-keyed mapping that remembers insertion order
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty Map
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores v under key. A new key is appended; an existing key keeps its position.
func (m *Map) Set(key string, v Value) *Map {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in insertion order
func (m *Map) Each(fn func(key string, v Value)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// From converts native Go values into a Value tree. Go maps have no order,
// so their keys are sorted.
func From(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case *upload.File:
		return File{val}, nil
	case string:
		return String(val), nil
	case []byte:
		return String(val), nil
	case bool:
		return String(strconv.FormatBool(val)), nil
	case fmt.Stringer:
		return String(val.String()), nil
	case []string:
		list := make(List, len(val))
		for i, s := range val {
			list[i] = String(s)
		}
		return list, nil
	case []any:
		list := make(List, len(val))
		for i, item := range val {
			converted, err := From(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			converted, err := From(val[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, converted)
		}
		return m, nil
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, String(val[k]))
		}
		return m, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return String(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return String(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		return String(strconv.FormatFloat(rv.Float(), 'f', -1, 64)), nil
	}
	return nil, fmt.Errorf("unsupported parameter type %T", v)
}

// MustFrom is like From but panics on unsupported types
func MustFrom(v any) Value {
	val, err := From(v)
	if err != nil {
		panic(err)
	}
	return val
}

// HasFile reports whether a File appears anywhere in the tree
func HasFile(v Value) bool {
	switch val := v.(type) {
	case File:
		return val.File != nil
	case List:
		for _, item := range val {
			if HasFile(item) {
				return true
			}
		}
	case *Map:
		for _, k := range val.Keys() {
			if HasFile(val.values[k]) {
				return true
			}
		}
	}
	return false
}

// Release closes every File in the tree
func Release(v Value) error {
	var result *multierror.Error
	walkFiles(v, func(f File) {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result.ErrorOrNil()
}

func walkFiles(v Value, fn func(File)) {
	switch val := v.(type) {
	case File:
		if val.File != nil {
			fn(val)
		}
	case List:
		for _, item := range val {
			walkFiles(item, fn)
		}
	case *Map:
		val.Each(func(_ string, item Value) {
			walkFiles(item, fn)
		})
	}
}

// Equal compares two trees. Files are equal when their original filenames
// and contents match; Null and nil are interchangeable.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			other, ok := bv.Get(k)
			if !ok || !Equal(av.values[k], other) {
				return false
			}
		}
		return true
	case File:
		bv, ok := b.(File)
		if !ok || av.File == nil || bv.File == nil {
			return false
		}
		if av.OriginalFilename() != bv.OriginalFilename() {
			return false
		}
		ac, err := av.Content()
		if err != nil {
			return false
		}
		bc, err := bv.Content()
		if err != nil {
			return false
		}
		return bytes.Equal(ac, bc)
	}
	return false
}
