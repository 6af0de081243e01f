// Package fieldrt implements executor.Runtime on top of per-field resolver
// funcs registered in a resolver.Map.
//
// Resolvers may return plain values, errors, or resolver.Thenable values.
// Sync fields await their Thenable inline. Async fields of one batch are all
// invoked first and awaited afterwards, so deferred work started by one
// resolver overlaps with the others.
package fieldrt

import (
	"context"
	"reflect"
	"slices"

	"github.com/pkg/errors"

	"github.com/hanpama/resolverlog/internal/executor"
	"github.com/hanpama/resolverlog/internal/resolver"
	"github.com/hanpama/resolverlog/internal/schema"
)

// TypeNamer lets a value name its own GraphQL object type when it is
// returned for an interface or union field.
type TypeNamer interface {
	GraphQLTypeName() string
}

// Runtime resolves fields with the funcs of a resolver.Map. Fields without
// a registered func use resolver.DefaultFieldResolver.
type Runtime struct {
	schema    *schema.Schema
	resolvers resolver.Map
	fallback  resolver.FieldFunc
}

var _ executor.Runtime = (*Runtime)(nil)

// New returns a Runtime for sch. m is not copied; it must not be modified
// while the runtime is in use.
func New(sch *schema.Schema, m resolver.Map) *Runtime {
	return &Runtime{
		schema:    sch,
		resolvers: m,
		fallback:  resolver.DefaultFieldResolver[any, map[string]any](),
	}
}

// call invokes the resolver of info's field. A panic is returned as an
// error carrying the panic value.
func (r *Runtime) call(ctx context.Context, info resolver.Info, source any, args map[string]any) (value any, err error) {
	fn := r.resolvers[info.Key()]
	if fn == nil {
		fn = r.fallback
	}
	defer func() {
		if p := recover(); p != nil {
			value, err = nil, resolver.AsError(p)
		}
	}()
	return fn(ctx, source, args, info)
}

func (r *Runtime) ResolveSync(ctx context.Context, info resolver.Info, source any, args map[string]any) (any, error) {
	v, err := r.call(ctx, info, source, args)
	if err != nil {
		return nil, err
	}
	if t, ok := resolver.AsThenable(v); ok {
		return resolver.Await(ctx, t)
	}
	return v, nil
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	deferred := make([]resolver.Thenable, len(tasks))
	for i, task := range tasks {
		v, err := r.call(ctx, task.Info, task.Source, task.Args)
		if err != nil {
			results[i].Error = err
			continue
		}
		if t, ok := resolver.AsThenable(v); ok {
			deferred[i] = t
			continue
		}
		results[i].Value = v
	}
	for i, t := range deferred {
		if t != nil {
			results[i].Value, results[i].Error = resolver.Await(ctx, t)
		}
	}
	return results
}

// ResolveType names the concrete object type of value. It tries, in order,
// a "__typename" map entry, TypeNamer, the Go type name of value when it is
// a possible type, and the only possible type of abstractType.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	switch v := value.(type) {
	case map[string]any:
		if name, ok := v["__typename"].(string); ok {
			return name, nil
		}
	case TypeNamer:
		return v.GraphQLTypeName(), nil
	}

	possible := r.possibleTypes(abstractType)
	if rv := reflect.Indirect(reflect.ValueOf(value)); rv.IsValid() {
		if name := rv.Type().Name(); name != "" && slices.Contains(possible, name) {
			return name, nil
		}
	}
	if len(possible) == 1 {
		return possible[0], nil
	}
	return "", errors.Errorf("cannot resolve concrete type of %T for %s", value, abstractType)
}

func (r *Runtime) possibleTypes(abstractType string) []string {
	t := r.schema.Types[abstractType]
	if t == nil {
		return nil
	}
	if t.Kind == schema.TypeKindUnion || len(t.PossibleTypes) > 0 {
		return t.PossibleTypes
	}
	var out []string
	for _, obj := range r.schema.ObjectTypes() {
		if slices.Contains(obj.Interfaces, abstractType) {
			out = append(out, obj.Name)
		}
	}
	slices.Sort(out)
	return out
}
