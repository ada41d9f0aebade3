package cache

import (
	"github.com/goccy/go-reflect"
)

// Option controls whether a cached query reads the cache before executing.
type Option int

const (
	// Default reads the cache first and only executes on a miss.
	Default Option = iota

	// Refresh skips the read, always executes and still writes the result.
	Refresh
)

// String returns the option name.
func (o Option) String() string {
	switch o {
	case Default:
		return "default"
	case Refresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Info describes how the result of a cached query is keyed and stored.
type Info struct {
	// KeyPrefix is the first part of the key. Defaults to the query type identity.
	KeyPrefix string

	// VaryBy holds the ordered values that distinguish one result from another.
	VaryBy []any

	// CacheNullResults enables caching of nil results.
	CacheNullResults bool
}

// NewInfo returns the default Info for v: prefix set to TypeName(v), no
// vary-by values, nil results not cached.
func NewInfo(v any) Info {
	return Info{KeyPrefix: TypeName(v)}
}

// Key builds the cache key for this Info with the process-wide key builder.
func (i Info) Key() string {
	return BuildKey(i.KeyPrefix, i.VaryBy)
}

// TypeName returns the package-qualified type name of v, dereferencing pointers.
func TypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// IsNil reports whether v is nil or a nil pointer, map, slice, channel,
// function or interface. Other kinds are never nil.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
