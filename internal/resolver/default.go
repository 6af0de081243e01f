package resolver

import (
	"context"
	"reflect"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// DefaultFieldResolver returns the resolver used for fields without an
// explicit one. It looks info.FieldName up on the source value:
//
//   - map[string]T: the entry under the field name
//   - struct (or pointer to struct): the exported field tagged
//     `graphql:"name"` or `json:"name"`, else the field whose name matches
//     case-insensitively
//   - a method named like the field (case-insensitive) taking no arguments
//     and returning T or (T, error)
//
// A nil source or a missing field resolves to nil.
func DefaultFieldResolver[S, A any]() Func[S, A] {
	return func(_ context.Context, source S, _ A, info Info) (any, error) {
		return lookupField(any(source), info.FieldName)
	}
}

func lookupField(source any, name string) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[name], nil
	}

	rv := reflect.ValueOf(source)
	if v, ok, err := callMethod(rv, name); ok {
		return v, err
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), nil
		}
		if rv.CanAddr() {
			if v, ok, err := callMethod(rv.Addr(), name); ok {
				return v, err
			}
		}
	}
	return nil, nil
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	fallback := -1
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tagName(sf.Tag.Get("graphql")) == name || tagName(sf.Tag.Get("json")) == name {
			return rv.Field(i), true
		}
		if fallback < 0 && strings.EqualFold(sf.Name, name) {
			fallback = i
		}
	}
	if fallback >= 0 {
		return rv.Field(fallback), true
	}
	return reflect.Value{}, false
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func callMethod(rv reflect.Value, name string) (any, bool, error) {
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		mt := m.Type // receiver is the first input
		if mt.NumIn() != 1 {
			continue
		}
		switch mt.NumOut() {
		case 1:
			out := rv.Method(i).Call(nil)
			return out[0].Interface(), true, nil
		case 2:
			if !mt.Out(1).Implements(errorType) {
				continue
			}
			out := rv.Method(i).Call(nil)
			var err error
			if !out[1].IsNil() {
				err = out[1].Interface().(error)
			}
			return out[0].Interface(), true, err
		}
	}
	return nil, false, nil
}
