package property

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
)

// fieldMetadata returns the field definition passed by the caller, if any.
func fieldMetadata(params dimension.Params) *metadata.FieldMetadata {
	switch f := params[dimension.ParamMetadata].(type) {
	case *metadata.FieldMetadata:
		return f
	case metadata.FieldMetadata:
		return &f
	default:
		return nil
	}
}

// toID normalises decoded identifiers. JSON numbers arrive as float64.
func toID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return "", false
		}
		return strconv.FormatInt(int64(t), 10), true
	case json.Number:
		s := t.String()
		return s, s != ""
	default:
		return "", false
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(t)
		return i, err == nil
	default:
		return 0, false
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// withParams returns base overlaid with the params, reserved keys removed.
func withParams(base map[string]any, params dimension.Params, drop ...string) map[string]any {
	out := copyMap(base)
	for k, v := range params.Without(drop...) {
		out[k] = v
	}
	return out
}
