package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args holds parameters already coerced to their declared types.
type Args map[string]any

// Has reports whether name was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Bool returns a bool parameter.
func (a Args) Bool(name string) (bool, bool) {
	v, ok := a[name].(bool)
	return v, ok
}

// Int returns an int parameter.
func (a Args) Int(name string) (int, bool) {
	v, ok := a[name].(int)
	return v, ok
}

// Float returns a float parameter.
func (a Args) Float(name string) (float64, bool) {
	v, ok := a[name].(float64)
	return v, ok
}

// String returns a string parameter.
func (a Args) String(name string) (string, bool) {
	v, ok := a[name].(string)
	return v, ok
}

// BoolOr returns the named bool, or def when it was not supplied.
func (a Args) BoolOr(name string, def bool) bool {
	if v, ok := a.Bool(name); ok {
		return v
	}
	return def
}

// coerce converts a decoded JSON value into t.
//
// Numbers arrive as json.Number. Integers accept whole or fractional
// numbers (rounded) and numeric strings. Bools accept true/false,
// strings parseable by strconv.ParseBool, "on"/"off", and numbers
// (non-zero is true). Strings accept strings only.
func coerce(name string, raw any, t ParamType) (any, error) {
	fail := func() (any, error) {
		return nil, fmt.Errorf("%w: %s must be %s, got %s", ErrInvalidParameterType, name, t, describe(raw))
	}

	switch t {
	case TypeInt:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return fail()
		}
		return int(math.Round(f)), nil

	case TypeFloat:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return fail()
		}
		return f, nil

	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return fail()
			}
			return f != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "on":
				return true, nil
			case "off":
				return false, nil
			}
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fail()
			}
			return b, nil
		}
		return fail()

	default:
		s, ok := raw.(string)
		if !ok {
			return fail()
		}
		return s, nil
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func describe(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case json.Number, float64, int:
		return "number"
	case string:
		return strconv.Quote(v)
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
