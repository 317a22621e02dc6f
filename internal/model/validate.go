package model

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// RootPath is the path reported for violations on the whole value.
const RootPath = "(root)"

// Shape is a compiled JSON Schema. The raw document is kept so that
// `default` keywords can be applied before validation.
type Shape struct {
	name   string
	doc    map[string]interface{}
	schema *gojsonschema.Schema
}

// NewShape compiles a JSON Schema document.
func NewShape(name string, doc []byte) (*Shape, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("shape %s: parse: %w", name, err)
	}
	return ShapeFromValue(name, raw)
}

// ShapeFromValue compiles a schema held as a Go value, typically one
// composed with Object and Doc.
func ShapeFromValue(name string, doc map[string]interface{}) (*Shape, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("shape %s: compile: %w", name, err)
	}
	normal, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("shape %s: %w", name, err)
	}
	return &Shape{name: name, doc: normal.(map[string]interface{}), schema: schema}, nil
}

// MustShape is like ShapeFromValue but panics on error. Use it for
// package-level shapes whose documents are fixed at build time.
func MustShape(name string, doc map[string]interface{}) *Shape {
	s, err := ShapeFromValue(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Load compiles one of the embedded schemas by name ("resume" reads
// schemas/resume.schema.json).
func Load(name string) (*Shape, error) {
	raw, err := Doc(name)
	if err != nil {
		return nil, err
	}
	return ShapeFromValue(name, raw)
}

// MustLoad is like Load but panics on error.
func MustLoad(name string) *Shape {
	s, err := Load(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Doc returns a private copy of an embedded schema document so callers can
// compose it into larger shapes.
func Doc(name string) (map[string]interface{}, error) {
	b, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("shape %s: %w", name, err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("shape %s: parse: %w", name, err)
	}
	return raw, nil
}

// MustDoc is like Doc but panics on error.
func MustDoc(name string) map[string]interface{} {
	d, err := Doc(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Object builds an object schema with the given properties. Every name in
// required must be present in a conforming value.
func Object(props map[string]interface{}, required ...string) map[string]interface{} {
	out := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]interface{}, 0, len(required))
		for _, r := range required {
			req = append(req, r)
		}
		out["required"] = req
	}
	return out
}

// Name returns the shape's name as used in error messages.
func (s *Shape) Name() string { return s.name }

// Violation is one failed constraint.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string { return v.Path + ": " + v.Message }

// ValidationError lists every violation found in a value.
type ValidationError struct {
	Shape      string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("schema validation failed (%s): %s", e.Shape, strings.Join(msgs, "; "))
}

// Validate checks value against shape. Defaults are applied to a copy of
// value; the copy is returned only if it conforms as a whole, so a failed
// call never leaves partially defaulted data behind. The returned value is
// in JSON form: map[string]interface{}, []interface{}, float64, string,
// bool or nil.
func Validate(shape *Shape, value interface{}) (interface{}, error) {
	if shape == nil {
		return nil, fmt.Errorf("model: nil shape")
	}
	normal, err := normalize(value)
	if err != nil {
		return nil, &ValidationError{Shape: shape.name, Violations: []Violation{{Path: RootPath, Message: err.Error()}}}
	}
	normal = shape.applyDefaults(shape.doc, normal)

	res, err := shape.schema.Validate(gojsonschema.NewGoLoader(normal))
	if err != nil {
		return nil, fmt.Errorf("shape %s: %w", shape.name, err)
	}
	if res.Valid() {
		return normal, nil
	}
	return nil, &ValidationError{Shape: shape.name, Violations: violations(res.Errors())}
}

// ValidateMap validates an object value and returns it as a map.
func ValidateMap(shape *Shape, value interface{}) (map[string]interface{}, error) {
	out, err := Validate(shape, value)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Shape: shape.name, Violations: []Violation{{Path: RootPath, Message: fmt.Sprintf("expected object, got %T", out)}}}
	}
	return m, nil
}

// Decode converts a JSON-form value into a typed Go value.
func Decode(value interface{}, out interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("model: decode: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("model: decode: %w", err)
	}
	return nil
}

func violations(errs []gojsonschema.ResultError) []Violation {
	out := make([]Violation, 0, len(errs))
	for _, e := range errs {
		path := e.Field()
		// required errors are reported on the parent object; point at the
		// missing property instead.
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				if path == RootPath || path == "" {
					path = prop
				} else {
					path = path + "." + prop
				}
			}
		}
		out = append(out, Violation{Path: path, Message: e.Description()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func (s *Shape) applyDefaults(schema map[string]interface{}, v interface{}) interface{} {
	schema = s.resolve(schema)
	switch t := v.(type) {
	case map[string]interface{}:
		props, _ := schema["properties"].(map[string]interface{})
		for name, raw := range props {
			ps, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			ps = s.resolve(ps)
			cur, present := t[name]
			if !present {
				def, has := ps["default"]
				if !has {
					continue
				}
				cur = clone(def)
			}
			t[name] = s.applyDefaults(ps, cur)
		}
		return t
	case []interface{}:
		items, ok := schema["items"].(map[string]interface{})
		if !ok {
			return t
		}
		for i := range t {
			t[i] = s.applyDefaults(items, t[i])
		}
		return t
	default:
		return v
	}
}

// resolve follows local references into definitions / $defs.
func (s *Shape) resolve(schema map[string]interface{}) map[string]interface{} {
	for i := 0; i < 8; i++ {
		ref, ok := schema["$ref"].(string)
		if !ok {
			return schema
		}
		var key, name string
		switch {
		case strings.HasPrefix(ref, "#/definitions/"):
			key, name = "definitions", strings.TrimPrefix(ref, "#/definitions/")
		case strings.HasPrefix(ref, "#/$defs/"):
			key, name = "$defs", strings.TrimPrefix(ref, "#/$defs/")
		default:
			return schema
		}
		defs, _ := s.doc[key].(map[string]interface{})
		next, ok := defs[name].(map[string]interface{})
		if !ok {
			return schema
		}
		schema = next
	}
	return schema
}

func normalize(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-encodable: %v", err)
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func clone(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = clone(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = clone(val)
		}
		return out
	default:
		return v
	}
}
