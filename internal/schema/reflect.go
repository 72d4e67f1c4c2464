// Package schema turns the Go contracts in package models into JSON Schema
// documents and compiled validators.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"github.com/ranger-finance/ranger-agent-kit/internal/models"
)

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	venueType   = reflect.TypeOf(models.Venue(""))
)

// reflector is shared by every contract. Upstream payloads and tool arguments
// may carry keys the contracts do not know about; they are ignored, not rejected.
var reflector = &jsonschema.Reflector{
	Anonymous:                 true,
	DoNotReference:            true,
	AllowAdditionalProperties: true,
	Mapper: func(t reflect.Type) *jsonschema.Schema {
		switch t {
		case decimalType:
			return &jsonschema.Schema{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?([eE][-+]?[0-9]+)?$`}
		case venueType:
			enum := make([]any, 0, len(models.Venues))
			for _, v := range models.Venues {
				enum = append(enum, string(v))
			}
			return &jsonschema.Schema{Type: "string", Enum: enum}
		}
		return nil
	},
}

// For returns the JSON Schema of T as a generic map, ready to be published in
// tools/list and compiled by NewValidator.
func For[T any]() (map[string]any, error) {
	s := reflector.ReflectFromType(reflect.TypeOf((*T)(nil)).Elem())
	return toMap(s)
}

// ListOf returns a schema for a JSON array whose items follow the schema of T.
func ListOf[T any]() (map[string]any, error) {
	item, err := For[T]()
	if err != nil {
		return nil, err
	}
	version := item["$schema"]
	delete(item, "$schema")
	return map[string]any{
		"$schema": version,
		"type":    "array",
		"items":   item,
	}, nil
}

func toMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return out, nil
}
