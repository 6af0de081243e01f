// Package introspection serves the __schema and __type fields of the query
// type as ordinary field resolvers.
//
// Extend adds the introspection types to a schema and Resolvers returns the
// resolvers for them, to be merged into the application's resolver.Map.
package introspection

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hanpama/resolverlog/internal/resolver"
	"github.com/hanpama/resolverlog/internal/schema"
)

// Extend returns a copy of sch with the introspection types added and the
// __schema and __type fields appended to the query type. sch is not
// modified.
func Extend(sch *schema.Schema) (*schema.Schema, error) {
	types, err := schema.IntrospectionTypes()
	if err != nil {
		return nil, err
	}
	out := &schema.Schema{
		QueryType:        sch.QueryType,
		MutationType:     sch.MutationType,
		SubscriptionType: sch.SubscriptionType,
		Types:            maps.Clone(sch.Types),
		Directives:       sch.Directives,
		Description:      sch.Description,
	}
	maps.Copy(out.Types, types)

	query := sch.GetQueryType()
	if query == nil {
		return nil, fmt.Errorf("schema has no query type")
	}
	q := *query
	q.Fields = append(slices.Clone(query.Fields),
		schema.NewField("__schema", "Access the current type schema of this server.",
			schema.NonNullType(schema.NamedType("__Schema"))),
		schema.NewField("__type", "Request the type information of a single type.",
			schema.NamedType("__Type")).
			AddArgument(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType("String")))),
	)
	out.Types[q.Name] = &q
	return out, nil
}

// typeRef is the source value of a __Type: a named type, or a List or
// Non-Null wrapper when wrapper is set.
type typeRef struct {
	named   *schema.Type
	wrapper *schema.TypeRef
}

type inspector struct {
	sch *schema.Schema
}

func (in inspector) named(name string) *typeRef {
	t := in.sch.Types[name]
	if t == nil {
		return nil
	}
	return &typeRef{named: t}
}

func (in inspector) ref(r *schema.TypeRef) *typeRef {
	if r == nil {
		return nil
	}
	if r.Kind == schema.TypeRefKindNamed {
		return in.named(r.Named)
	}
	return &typeRef{wrapper: r}
}

// Resolvers returns the resolvers of the introspection fields and types of
// sch, which should come from Extend. Types and directives are listed by
// name; fields, arguments and values keep their definition order.
func Resolvers(sch *schema.Schema) resolver.Map {
	in := inspector{sch: sch}
	m := resolver.Map{}

	m.Set(sch.QueryType, "__schema", func(context.Context, any, map[string]any, resolver.Info) (any, error) {
		return sch, nil
	})
	m.Set(sch.QueryType, "__type", func(_ context.Context, _ any, args map[string]any, _ resolver.Info) (any, error) {
		name, _ := args["name"].(string)
		return in.named(name), nil
	})

	on(m, "__Schema", "description", func(s *schema.Schema, _ map[string]any) any { return optional(s.Description) })
	on(m, "__Schema", "types", func(s *schema.Schema, _ map[string]any) any {
		out := make([]*typeRef, 0, len(s.Types))
		for _, name := range slices.Sorted(maps.Keys(s.Types)) {
			out = append(out, &typeRef{named: s.Types[name]})
		}
		return out
	})
	on(m, "__Schema", "queryType", func(s *schema.Schema, _ map[string]any) any { return in.named(s.QueryType) })
	on(m, "__Schema", "mutationType", func(s *schema.Schema, _ map[string]any) any { return in.named(s.MutationType) })
	on(m, "__Schema", "subscriptionType", func(s *schema.Schema, _ map[string]any) any { return in.named(s.SubscriptionType) })
	on(m, "__Schema", "directives", func(s *schema.Schema, _ map[string]any) any {
		dirs := slices.Collect(maps.Values(s.Directives))
		slices.SortFunc(dirs, func(a, b *schema.Directive) int { return cmp.Compare(a.Name, b.Name) })
		return dirs
	})

	on(m, "__Type", "kind", func(t *typeRef, _ map[string]any) any {
		if t.wrapper != nil {
			return string(t.wrapper.Kind)
		}
		return string(t.named.Kind)
	})
	on(m, "__Type", "name", func(t *typeRef, _ map[string]any) any {
		if t.named == nil {
			return nil
		}
		return t.named.Name
	})
	on(m, "__Type", "description", func(t *typeRef, _ map[string]any) any {
		if t.named == nil {
			return nil
		}
		return optional(t.named.Description)
	})
	on(m, "__Type", "specifiedByURL", func(*typeRef, map[string]any) any { return nil })
	on(m, "__Type", "fields", func(t *typeRef, args map[string]any) any {
		if t.named == nil || (t.named.Kind != schema.TypeKindObject && t.named.Kind != schema.TypeKindInterface) {
			return nil
		}
		return visible(t.named.Fields, args, func(f *schema.Field) (string, bool) { return f.Name, f.IsDeprecated })
	})
	on(m, "__Type", "interfaces", func(t *typeRef, _ map[string]any) any {
		if t.named == nil || (t.named.Kind != schema.TypeKindObject && t.named.Kind != schema.TypeKindInterface) {
			return nil
		}
		return in.list(t.named.Interfaces)
	})
	on(m, "__Type", "possibleTypes", func(t *typeRef, _ map[string]any) any {
		if t.named == nil || (t.named.Kind != schema.TypeKindInterface && t.named.Kind != schema.TypeKindUnion) {
			return nil
		}
		return in.list(t.named.PossibleTypes)
	})
	on(m, "__Type", "enumValues", func(t *typeRef, args map[string]any) any {
		if t.named == nil || t.named.Kind != schema.TypeKindEnum {
			return nil
		}
		return visible(t.named.EnumValues, args, func(v *schema.EnumValue) (string, bool) { return v.Name, v.IsDeprecated })
	})
	on(m, "__Type", "inputFields", func(t *typeRef, args map[string]any) any {
		if t.named == nil || t.named.Kind != schema.TypeKindInputObject {
			return nil
		}
		return visible(t.named.InputFields, args, func(v *schema.InputValue) (string, bool) { return v.Name, v.IsDeprecated })
	})
	on(m, "__Type", "ofType", func(t *typeRef, _ map[string]any) any {
		if t.wrapper == nil {
			return nil
		}
		return in.ref(t.wrapper.OfType)
	})
	on(m, "__Type", "isOneOf", func(t *typeRef, _ map[string]any) any {
		if t.named == nil || t.named.Kind != schema.TypeKindInputObject {
			return nil
		}
		return t.named.OneOf
	})

	on(m, "__Field", "description", func(f *schema.Field, _ map[string]any) any { return optional(f.Description) })
	on(m, "__Field", "args", func(f *schema.Field, args map[string]any) any {
		return visible(f.Arguments, args, func(v *schema.InputValue) (string, bool) { return v.Name, v.IsDeprecated })
	})
	on(m, "__Field", "type", func(f *schema.Field, _ map[string]any) any { return in.ref(f.Type) })
	on(m, "__Field", "deprecationReason", func(f *schema.Field, _ map[string]any) any {
		return deprecationReason(f.IsDeprecated, f.DeprecationReason)
	})

	on(m, "__InputValue", "description", func(v *schema.InputValue, _ map[string]any) any { return optional(v.Description) })
	on(m, "__InputValue", "type", func(v *schema.InputValue, _ map[string]any) any { return in.ref(v.Type) })
	on(m, "__InputValue", "defaultValue", func(v *schema.InputValue, _ map[string]any) any {
		if v.DefaultValue == nil {
			return nil
		}
		return schema.FormatValue(sch, v.Type, v.DefaultValue)
	})
	on(m, "__InputValue", "deprecationReason", func(v *schema.InputValue, _ map[string]any) any {
		return deprecationReason(v.IsDeprecated, v.DeprecationReason)
	})

	on(m, "__EnumValue", "description", func(v *schema.EnumValue, _ map[string]any) any { return optional(v.Description) })
	on(m, "__EnumValue", "deprecationReason", func(v *schema.EnumValue, _ map[string]any) any {
		return deprecationReason(v.IsDeprecated, v.DeprecationReason)
	})

	on(m, "__Directive", "description", func(d *schema.Directive, _ map[string]any) any { return optional(d.Description) })
	on(m, "__Directive", "args", func(d *schema.Directive, args map[string]any) any {
		return visible(d.Arguments, args, func(v *schema.InputValue) (string, bool) { return v.Name, v.IsDeprecated })
	})
	return m
}

// on registers a resolver for typ.field whose source must be an S. Fields
// not registered here, like __Field.name, are read by the default resolver.
func on[S any](m resolver.Map, typ, field string, fn func(source S, args map[string]any) any) {
	m.Set(typ, field, func(_ context.Context, source any, args map[string]any, _ resolver.Info) (any, error) {
		s, ok := source.(S)
		if !ok {
			return nil, fmt.Errorf("%s.%s: unexpected source %T", typ, field, source)
		}
		return fn(s, args), nil
	})
}

func (in inspector) list(names []string) []*typeRef {
	out := make([]*typeRef, 0, len(names))
	for _, name := range names {
		if t := in.named(name); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// visible drops "__"-prefixed entries, and deprecated ones unless the
// includeDeprecated argument is true.
func visible[T any](items []T, args map[string]any, describe func(T) (name string, deprecated bool)) []T {
	includeDeprecated, _ := args["includeDeprecated"].(bool)
	out := make([]T, 0, len(items))
	for _, item := range items {
		name, deprecated := describe(item)
		if strings.HasPrefix(name, "__") || (deprecated && !includeDeprecated) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}
