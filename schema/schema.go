package schema

import (
	"fmt"
	"reflect"

	"github.com/viant/tagly/format"
)

// Load populates a ToolInputSchema from a struct type. Field names honour
// json tags, pointer fields are optional, everything else is required.
// Used by tool providers to declare input schemas without hand-writing
// JSON Schema maps.
func Load(schema *ToolInputSchema, v any) error {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("expected a struct type, got %s", t.Kind())
	}
	properties, required := propertiesForStruct(t)
	schema.Type = "object"
	schema.Properties = properties
	schema.Required = required
	return nil
}

func propertiesForStruct(t reflect.Type) (ToolInputSchemaProperties, []string) {
	properties := make(ToolInputSchemaProperties)
	var required []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, _ := format.Parse(field.Tag, "json")
		if tag == nil {
			tag = &format.Tag{}
		}
		if tag.Ignore {
			continue
		}
		name := field.Name
		if tag.Name != "" {
			name = tag.Name
		}
		properties[name] = propertySchema(field.Type)
		if field.Type.Kind() != reflect.Pointer && !tag.Omitempty {
			required = append(required, name)
		}
	}
	return properties, required
}

func propertySchema(t reflect.Type) map[string]interface{} {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	property := map[string]interface{}{}
	switch t.Kind() {
	case reflect.Bool:
		property["type"] = "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		property["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		property["type"] = "number"
	case reflect.String:
		property["type"] = "string"
	case reflect.Slice, reflect.Array:
		property["type"] = "array"
		property["items"] = propertySchema(t.Elem())
	case reflect.Map, reflect.Struct:
		property["type"] = "object"
	default:
		property["type"] = "string"
	}
	return property
}
