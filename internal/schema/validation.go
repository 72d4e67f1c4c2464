package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator wraps JSON Schema compilation and validation.
type Validator struct {
	schema *jsonschema.Schema
	raw    map[string]any
}

// NewValidator creates a validator from a JSON schema definition.
func NewValidator(schemaMap map[string]any) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	schemaJSON, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: compiled, raw: schemaMap}, nil
}

// Compile reflects T and compiles a validator for it.
func Compile[T any]() (*Validator, error) {
	m, err := For[T]()
	if err != nil {
		return nil, err
	}
	return NewValidator(m)
}

// CompileList compiles a validator for a JSON array of T.
func CompileList[T any]() (*Validator, error) {
	m, err := ListOf[T]()
	if err != nil {
		return nil, err
	}
	return NewValidator(m)
}

// MustCompile is Compile for package-level contracts; it panics on a broken contract.
func MustCompile[T any]() *Validator {
	v, err := Compile[T]()
	if err != nil {
		panic(fmt.Sprintf("schema: compile %T: %v", *new(T), err))
	}
	return v
}

// MustCompileList is CompileList for package-level contracts.
func MustCompileList[T any]() *Validator {
	v, err := CompileList[T]()
	if err != nil {
		panic(fmt.Sprintf("schema: compile []%T: %v", *new(T), err))
	}
	return v
}

// Schema returns the schema the validator was compiled from. Callers must not mutate it.
func (v *Validator) Schema() map[string]any {
	return v.raw
}

// Validate validates an already decoded JSON value (maps, slices, float64,
// string, bool, nil) against the compiled schema.
func (v *Validator) Validate(value any) error {
	err := v.schema.Validate(value)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Violations: collectViolations(ve)}
	}
	return fmt.Errorf("validation failed: %w", err)
}

// ValidateJSON decodes data, drops null members and validates the result. It
// returns the decoded value so callers do not parse twice. Empty input and a
// bare null stand for an empty object.
func (v *Validator) ValidateJSON(data []byte) (any, error) {
	var value any
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		value = map[string]any{}
	} else if err := json.Unmarshal(data, &value); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Field: RootField, Message: "invalid JSON: " + err.Error()}}}
	}
	value = DropNulls(value)
	if err := v.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// DropNulls removes object members whose value is null, at any depth, so an
// explicit null and an absent optional field validate alike.
func DropNulls(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, item := range v {
			if item == nil {
				delete(v, k)
				continue
			}
			v[k] = DropNulls(item)
		}
	case []any:
		for i, item := range v {
			v[i] = DropNulls(item)
		}
	}
	return value
}

// RootField names the document root in violations.
const RootField = "(root)"

// Violation is one failed constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field that violated a constraint.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("field '%s': %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the distinct offending field names.
func (e *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(e.Violations))
	var out []string
	for _, v := range e.Violations {
		if !seen[v.Field] {
			seen[v.Field] = true
			out = append(out, v.Field)
		}
	}
	return out
}

// collectViolations flattens the cause tree into its leaves.
func collectViolations(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if names, ok := missingProperties(e.Message); ok {
				for _, name := range names {
					out = append(out, Violation{
						Field:   fieldName(e.InstanceLocation + "/" + name),
						Message: "is required",
					})
				}
				return
			}
			out = append(out, Violation{Field: fieldName(e.InstanceLocation), Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

const missingPrefix = "missing properties: "

func missingProperties(msg string) ([]string, bool) {
	if !strings.HasPrefix(msg, missingPrefix) {
		return nil, false
	}
	var names []string
	for _, part := range strings.Split(strings.TrimPrefix(msg, missingPrefix), ",") {
		name := strings.Trim(strings.TrimSpace(part), `'"`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names, len(names) > 0
}

// fieldName turns a JSON pointer ("/target_venues/1") into a dotted path.
func fieldName(pointer string) string {
	p := strings.TrimPrefix(pointer, "/")
	if p == "" {
		return RootField
	}
	tokens := strings.Split(p, "/")
	for i, tok := range tokens {
		tok = strings.ReplaceAll(tok, "~1", "/")
		tokens[i] = strings.ReplaceAll(tok, "~0", "~")
	}
	return strings.Join(tokens, ".")
}
