package fieldrt

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hanpama/resolverlog/internal/schema"
)

// SerializeLeafValue coerces built-in scalars, checks enum values against
// the schema and passes custom scalars through unchanged. Non-nil pointers
// are dereferenced first.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	for rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && !rv.IsNil(); rv = rv.Elem() {
		value = rv.Elem().Interface()
	}
	if t := r.schema.Types[typeName]; t != nil && t.Kind == schema.TypeKindEnum {
		return serializeEnum(t, value)
	}
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, errors.Errorf("Boolean cannot represent a non boolean value: %v", value)
	case "ID":
		return serializeID(value)
	}
	return value, nil
}

func serializeEnum(t *schema.Type, value any) (any, error) {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case fmt.Stringer:
		name = v.String()
	default:
		return nil, errors.Errorf("Enum %q cannot represent value: %v", t.Name, value)
	}
	if !t.HasEnumValue(name) {
		return nil, errors.Errorf("Enum %q cannot represent value: %q", t.Name, name)
	}
	return name, nil
}

func serializeInt(value any) (any, error) {
	rv := reflect.ValueOf(value)
	var n int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return nil, errors.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		n = int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return nil, errors.Errorf("Int cannot represent non-integer value: %v", value)
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return nil, errors.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		n = int64(f)
	default:
		return nil, errors.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, errors.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
	}
	return int(n), nil
}

func serializeFloat(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.Errorf("Float cannot represent non numeric value: %v", value)
		}
		return f, nil
	}
	return nil, errors.Errorf("Float cannot represent non numeric value: %v", value)
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(value), nil
	}
	return nil, errors.Errorf("String cannot represent value: %v", value)
}

func serializeID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return nil, errors.Errorf("ID cannot represent value: %v", value)
}
