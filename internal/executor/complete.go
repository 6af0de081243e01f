package executor

import (
	"fmt"
	"reflect"

	"github.com/hanpama/resolverlog/internal/language"
	"github.com/hanpama/resolverlog/internal/schema"
)

// completeValue completes a resolved value against its declared type.
// nullable is the nearest ancestor path that accepts null; it moves down to
// path whenever the type at path is itself nullable.
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path, nullable Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path)
			}
			return nil
		}
		return completeNonNullValue(state, schema.Unwrap(fieldType), fields, result, path, nullable)
	}
	if isNullish(result) {
		return nil
	}
	return completeNonNullValue(state, fieldType, fields, result, path, path)
}

func completeNonNullValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path, nullable Path) any {
	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path, nullable)
	}

	named := schema.GetNamedType(fieldType)
	typ := state.schema.Types[named]
	if typ == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", named), path)
		return nil
	}

	switch typ.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.ctx, named, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return executeSelectionSet(state, typ, mergeSelectionSets(fields), result, path, nullable)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, typ, fields, result, path, nullable)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typ.Kind), path)
		return nil
	}
}

func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path, nullable Path) any {
	items, ok := result.([]any)
	if !ok {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		v := completeValue(state, inner, fields, item, appendPath(path, i), nullable)
		if isNullish(v) {
			if schema.IsNonNull(inner) {
				state.markNullified(path)
				return nil
			}
			v = nil
		}
		completed[i] = v
	}
	return completed
}

func completeAbstractValue(state *executionState, abstractType *schema.Type, fields []*language.Field, result any, path, nullable Path) any {
	typeName, err := state.runtime.ResolveType(state.ctx, abstractType.Name, result)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), path)
		return nil
	}
	if !isPossibleType(abstractType, objectType) {
		state.addError(fmt.Sprintf("Runtime Object type %s is not a possible type for %s", typeName, abstractType.Name), path)
		return nil
	}
	return executeSelectionSet(state, objectType, mergeSelectionSets(fields), result, path, nullable)
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}
