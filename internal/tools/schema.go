package tools

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// DescriptorFromSchema builds a descriptor from a tool's JSON input schema.
// Parameters follow the document order of the schema's "properties" object,
// which is the order raw directive arguments are consumed in.
func DescriptorFromSchema(name, description string, inputSchema []byte) (schema.ToolDescriptor, error) {
	desc := schema.ToolDescriptor{Name: name, Description: description}
	if len(inputSchema) == 0 {
		return desc, nil
	}

	err := jsonparser.ObjectEach(inputSchema, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Object {
			return fmt.Errorf("property %s: expected object, got %s", key, dataType)
		}
		desc.Params = append(desc.Params, schema.Param{Name: string(key), Kind: kindOf(value)})
		return nil
	}, "properties")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return schema.ToolDescriptor{}, fmt.Errorf("tool %s: parse input schema: %w", name, err)
	}

	return desc, nil
}

// kindOf maps a JSON-schema property onto a parameter kind. Arrays whose items
// are strings are string arrays; every other array is an integer array. Types
// the coercer has no rule for are passed through as strings.
func kindOf(prop []byte) schema.ParamKind {
	typ, _ := jsonparser.GetString(prop, "type")
	switch typ {
	case "integer":
		return schema.KindInteger
	case "number":
		return schema.KindNumber
	case "array":
		if items, _ := jsonparser.GetString(prop, "items", "type"); items == "string" {
			return schema.KindStringArray
		}
		return schema.KindIntArray
	default:
		return schema.KindString
	}
}
