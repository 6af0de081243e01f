// Package resolver defines the field resolver contract shared by the field
// runtime and the resolver decorators.
//
// A resolver is called once per field instance with the parent value, the
// coerced arguments, the request context, and an Info describing the field
// being resolved. It either returns a plain value, an error, or a value
// implementing Thenable whose settlement is observed later.
package resolver

import (
	"context"
	"reflect"
	"sort"
)

// Info describes the field instance being resolved.
type Info struct {
	// ParentType is the object type owning the field (e.g. "Query").
	ParentType string
	// FieldName is the schema field name, not the response alias.
	FieldName string
	// Path is the response path of the field, e.g. ["users", 0, "name"].
	Path []any
	// ReturnType is the field's declared type in SDL notation.
	ReturnType string
}

// Key returns the "Type.field" coordinate of the field.
func (i Info) Key() string { return i.ParentType + "." + i.FieldName }

// Func resolves one field. S is the parent value type and A the argument
// type; both are chosen by the caller.
type Func[S, A any] func(ctx context.Context, source S, args A, info Info) (any, error)

// FieldFunc is the resolver shape used by the field runtime.
type FieldFunc = Func[any, map[string]any]

// Thenable is a deferred value that settles later to a value or a failure.
//
// Any value with these two methods is treated as deferred regardless of its
// concrete type. A handler returning a non-nil error rejects the derived
// Thenable with that error; otherwise the derived Thenable fulfills with the
// handler's value. A nil handler passes the settlement through.
type Thenable interface {
	Then(onFulfilled func(value any) (any, error), onRejected func(reason any) (any, error)) Thenable
	Catch(onRejected func(reason any) (any, error)) Thenable
}

// Map holds field resolvers keyed by "Type.field".
type Map map[string]FieldFunc

// Set registers fn for the field coordinate parentType.field.
func (m Map) Set(parentType, field string, fn FieldFunc) {
	m[parentType+"."+field] = fn
}

// Get returns the resolver for parentType.field, or nil.
func (m Map) Get(parentType, field string) FieldFunc {
	return m[parentType+"."+field]
}

// Keys returns the registered coordinates in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AsThenable reports whether v is a usable deferred value. Typed nil
// pointers implementing Thenable are not.
func AsThenable(v any) (Thenable, bool) {
	t, ok := v.(Thenable)
	if !ok {
		return nil, false
	}
	rv := reflect.ValueOf(t)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
	}
	return t, true
}
