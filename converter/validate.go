package converter

import (
	"fmt"
	"math"
)

// Validation is the outcome of validating call arguments against a tool's
// declared input schema. Errors holds every problem found, not just the
// first.
type Validation struct {
	Valid  bool
	Errors []string
}

// Validate checks args against the named tool's input schema. It is
// purely local: no request is issued and no request id is consumed. All
// problems are reported together.
func (r *Registry) Validate(name string, args map[string]interface{}) Validation {
	converted, ok := r.Lookup(name)
	if !ok {
		return Validation{Errors: []string{fmt.Sprintf("tool not found: %s", name)}}
	}
	var errs []string
	inputSchema := converted.Source.InputSchema
	for _, required := range inputSchema.Required {
		if _, present := args[required]; !present {
			errs = append(errs, fmt.Sprintf("missing required parameter: %s", required))
		}
	}
	for key, value := range args {
		property, declared := inputSchema.Properties[key]
		if !declared {
			errs = append(errs, fmt.Sprintf("unknown parameter: %s", key))
			continue
		}
		declaredType, _ := property["type"].(string)
		if declaredType == "" {
			continue
		}
		if err := checkType(key, declaredType, value); err != "" {
			errs = append(errs, err)
		}
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// checkType compares a runtime value against a declared primitive type;
// it returns an empty string when the value conforms.
func checkType(key, declaredType string, value interface{}) string {
	if value == nil {
		return fmt.Sprintf("parameter %s: expected %s, got null", key, declaredType)
	}
	actual := runtimeType(value)
	switch declaredType {
	case "string", "boolean", "array", "object":
		if actual != declaredType {
			return mismatch(key, declaredType, actual)
		}
	case "number":
		if actual != "number" && actual != "integer" {
			return mismatch(key, declaredType, actual)
		}
	case "integer":
		if actual == "number" {
			if isWhole(value) {
				return ""
			}
			return mismatch(key, declaredType, "number")
		}
		if actual != "integer" {
			return mismatch(key, declaredType, actual)
		}
	}
	return ""
}

func mismatch(key, expected, actual string) string {
	return fmt.Sprintf("parameter %s: expected %s, got %s", key, expected, actual)
}

// runtimeType names a decoded JSON value's type in schema vocabulary.
func runtimeType(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32:
		return "number"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}

// isWhole reports whether a float carries no fractional part; encoding/json
// decodes every JSON number as float64, so 3 arrives as 3.0.
func isWhole(value interface{}) bool {
	switch actual := value.(type) {
	case float64:
		return actual == math.Trunc(actual)
	case float32:
		return float64(actual) == math.Trunc(float64(actual))
	}
	return false
}
