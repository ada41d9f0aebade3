package cache

import (
	"bytes"
	"sort"

	"github.com/goccy/go-reflect"
	"github.com/vmihailenco/msgpack/v5"
)

// sortedMap is the canonical form of a map: entries ordered by the msgpack
// encoding of their keys.
type sortedMap struct {
	Entries [][2]any `msgpack:"m"`
}

// structFields is the canonical form of a struct that holds maps or opaque
// values: its encoded fields in declaration order.
type structFields struct {
	Type   string `msgpack:"t"`
	Fields []any  `msgpack:"f"`
}

// canonicalize rewrites vary-by values into a form msgpack encodes the same
// way on every call and in every process. Maps become sorted entry lists, and
// funcs, channels and unsafe pointers are replaced by their type name.
// Values that need neither are passed through untouched.
func canonicalize(varyBy []any) []any {
	out := make([]any, len(varyBy))
	for i, v := range varyBy {
		out[i] = canonical(reflect.ValueOf(v))
	}
	return out
}

func canonical(v reflect.Value) any {
	if v.Kind() == reflect.Invalid {
		return nil
	}
	if !needsCanonical(v.Type(), map[reflect.Type]bool{}) {
		return v.Interface()
	}
	if v.CanInterface() {
		switch v.Interface().(type) {
		case msgpack.CustomEncoder, msgpack.Marshaler:
			return v.Interface()
		}
	}

	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return "<" + v.Type().String() + ">"

	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return canonical(v.Elem())

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		return sortMap(v)

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		return canonicalElems(v)

	case reflect.Array:
		return canonicalElems(v)

	case reflect.Struct:
		t := v.Type()
		s := structFields{Type: t.String()}
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); !encodedField(f) {
				continue
			}
			s.Fields = append(s.Fields, canonical(v.Field(i)))
		}
		return s
	}

	return v.Interface()
}

func canonicalElems(v reflect.Value) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = canonical(v.Index(i))
	}
	return out
}

func sortMap(v reflect.Value) sortedMap {
	type entry struct {
		encoded []byte
		key     any
		value   any
	}

	keys := v.MapKeys()
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		ck := canonical(k)
		encoded, err := msgpack.Marshal(ck)
		if err != nil {
			encoded = []byte(k.Type().String())
		}
		entries = append(entries, entry{encoded: encoded, key: ck, value: canonical(v.MapIndex(k))})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].encoded, entries[j].encoded) < 0
	})

	m := sortedMap{Entries: make([][2]any, len(entries))}
	for i, e := range entries {
		m.Entries[i] = [2]any{e.key, e.value}
	}
	return m
}

// needsCanonical reports whether values of t can contain a map or an opaque
// value, looking through interfaces, pointers, containers and exported fields.
func needsCanonical(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Map, reflect.Interface, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return needsCanonical(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if encodedField(f) && needsCanonical(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

// encodedField reports whether msgpack encodes f.
func encodedField(f reflect.StructField) bool {
	return f.PkgPath == "" && f.Tag.Get("msgpack") != "-"
}
