package resolver

import (
	"fmt"
	"math"
	"strconv"
)

// serializeBuiltinLeaf coerces built-in scalar values into the JSON-safe Go
// types the response encoder expects. Enum values and custom scalars without
// a registered serializer pass through unchanged.
func serializeBuiltinLeaf(typeName string, value any) (any, error) {
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value)
	case "Boolean":
		return serializeBoolean(value)
	case "ID":
		return serializeID(value)
	default:
		return value, nil
	}
}

func serializeInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent %d", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent %v", v)
		}
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("Int cannot represent %T", value)
	}
}

func serializeFloat(value any) (any, error) {
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
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent %q", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("Float cannot represent %T", value)
	}
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int32, int64, float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		return nil, fmt.Errorf("String cannot represent %T", value)
	}
}

func serializeBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	default:
		return nil, fmt.Errorf("Boolean cannot represent %T", value)
	}
}

func serializeID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("ID cannot represent %v", v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return nil, fmt.Errorf("ID cannot represent %T", value)
	}
}
