package business

import (
	"bytes"
	"encoding/json"
	"math"
)

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

// normalizeMetadata copies m with every value in the shape it has after a
// JSON round trip, so stored and restored aggregates compare equal.
// Integral numbers become int, other numbers float64, nested objects
// map[string]any and arrays []any.
func normalizeMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool:
		return x
	case int:
		return normalizeFloat(float64(x), x, math.Abs(float64(x)) <= maxExactFloat)
	case int32:
		return int(x)
	case int64:
		return normalizeFloat(float64(x), int(x), math.Abs(float64(x)) <= maxExactFloat)
	case uint32:
		return int(x)
	case uint64:
		return normalizeFloat(float64(x), int(x), x <= maxExactFloat)
	case float32:
		return normalizeFloat(float64(x), int(x), isIntegral(float64(x)))
	case float64:
		return normalizeFloat(x, int(x), isIntegral(x))
	case json.Number:
		if i, err := x.Int64(); err == nil && math.Abs(float64(i)) <= maxExactFloat {
			return int(i)
		}
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return normalizeFloat(f, int(f), isIntegral(f))
	case map[string]any:
		return normalizeMetadata(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return x
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return x
		}
		return normalizeValue(decoded)
	}
}

func normalizeFloat(f float64, i int, integral bool) any {
	if integral {
		return i
	}
	return f
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) <= maxExactFloat
}
