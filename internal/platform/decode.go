package platform

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var stringSliceType = reflect.TypeOf([]string{})

// Decode maps loosely typed rows onto typed structs using their json tags. Skill-like []string fields
// accept null, arrays with non-string elements, and bare scalars.
func Decode(input, output any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:     output,
		TagName:    "json",
		DecodeHook: mapstructure.DecodeHookFuncType(coerceStringSlice),
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

// coerceStringSlice converts array elements to strings with fmt formatting
// and drops nil elements. A scalar becomes a one-element slice.
func coerceStringSlice(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != stringSliceType || data == nil {
		return data, nil
	}

	switch typed := data.(type) {
	case []string:
		return typed, nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, v := range typed {
			if v == nil {
				continue
			}
			out = append(out, valueAsString(v))
		}
		return out, nil
	case map[string]any:
		return nil, fmt.Errorf("expected a list, got an object")
	default:
		return []string{valueAsString(typed)}, nil
	}
}

func valueAsString(v any) string {
	if v == nil {
		return ""
	}

	switch typed := v.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// orEmpty turns a nil slice into an empty one.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
