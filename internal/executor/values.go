package executor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hanpama/resolverlog/internal/language"
	"github.com/hanpama/resolverlog/internal/schema"
)

// coerceVariableValues coerces the provided variables against the
// operation's variable definitions.
func coerceVariableValues(operation *language.OperationDefinition, values map[string]any) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, def := range operation.VariableDefinitions {
		name := def.Variable
		val, ok := values[name]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				val = astValueToGo(def.DefaultValue)
			case def.Type.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, def.Type.String())
			default:
				continue
			}
		}
		if val == nil && def.Type.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, def.Type.String())
		}
		cv, err := coerceValue(val, typeRefFromAST(def.Type))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, def.Type.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces the arguments of one field. Failures are
// recorded as located errors and the argument is left out.
func coerceArgumentValues(state *executionState, fieldDef *schema.Field, arguments language.ArgumentList, path Path) map[string]any {
	coerced := make(map[string]any)
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		arg := arguments.ForName(name)
		if arg != nil && arg.Value.Kind == language.Variable {
			// an unset variable behaves like an absent argument
			if _, ok := state.variables[arg.Value.Raw]; !ok {
				arg = nil
			}
		}
		if arg != nil {
			cv, err := coerceValue(valueFromAST(arg.Value, state.variables), argDef.Type)
			if err != nil {
				state.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", name, err), path)
				continue
			}
			coerced[name] = cv
			continue
		}
		if argDef.DefaultValue != nil {
			if cv, err := coerceValue(argDef.DefaultValue, argDef.Type); err == nil {
				coerced[name] = cv
			} else {
				coerced[name] = argDef.DefaultValue
			}
		} else if schema.IsNonNull(argDef.Type) {
			state.addError(fmt.Sprintf("argument '%s' of required type was not provided", name), path)
		}
	}
	return coerced
}

// valueFromAST converts an AST value, substituting variables.
func valueFromAST(value *language.Value, variables map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return variables[value.Raw]
	}
	switch value.Kind {
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, variables)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			out[c.Name] = valueFromAST(c.Value, variables)
		}
		return out
	}
	return astValueToGo(value)
}

// astValueToGo converts a constant AST value.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			out[c.Name] = astValueToGo(c.Value)
		}
		return out
	default:
		return nil
	}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		return schema.NonNullType(ref)
	}
	return ref
}

// coerceValue coerces an input value to the given type. Custom scalars,
// enums and input objects pass through.
func coerceValue(value any, target *schema.TypeRef) (any, error) {
	if schema.IsNonNull(target) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(value, schema.Unwrap(target))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(target) {
		inner := schema.Unwrap(target)
		items, ok := value.([]any)
		if !ok {
			// a single value is coerced to a list of one
			v, err := coerceValue(value, inner)
			if err != nil {
				return nil, err
			}
			return []any{v}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := coerceValue(item, inner)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch schema.GetNamedType(target) {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("cannot coerce %v (%T) to string", value, value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
	case "ID":
		return coerceToID(value)
	default:
		return value, nil
	}
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		// JSON numbers arrive as float64
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
