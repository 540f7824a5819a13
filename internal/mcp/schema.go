// Package mcp implements the MCP adapter: a line-delimited JSON-RPC 2.0
// server exposing Daybook capabilities as schema-declared tools for an
// LLM client. It speaks over stdio by default or a loopback TCP listener.
package mcp

import (
	"fmt"
	"math"
)

// ToolDefinition describes one tool in the catalogue.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema is the JSON-Schema fragment advertised for a tool's
// arguments and enforced before any handler runs.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one argument.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
}

func bound(v float64) *float64 { return &v }

// Validate checks args against the schema: required fields, primitive
// types, enum membership, and numeric bounds. It runs before any store
// access so a bad call never touches the database.
func (s InputSchema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument: %s", name)
		}
	}
	for name, value := range args {
		prop, ok := s.Properties[name]
		if !ok {
			return fmt.Errorf("unknown argument: %s", name)
		}
		if err := prop.validate(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (p Property) validate(name string, value any) error {
	switch p.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %s must be a string", name)
		}
		if len(p.Enum) > 0 {
			for _, e := range p.Enum {
				if s == e {
					return nil
				}
			}
			return fmt.Errorf("argument %s must be one of %v", name, p.Enum)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("argument %s must be an integer", name)
		}
		if p.Minimum != nil && f < *p.Minimum {
			return fmt.Errorf("argument %s must be at least %v", name, *p.Minimum)
		}
		if p.Maximum != nil && f > *p.Maximum {
			return fmt.Errorf("argument %s must be at most %v", name, *p.Maximum)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %s must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %s must be a boolean", name)
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("argument %s must be an array", name)
		}
		if p.Items != nil {
			for i, item := range items {
				if err := p.Items.validate(fmt.Sprintf("%s[%d]", name, i), item); err != nil {
					return err
				}
			}
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("argument %s must be an object", name)
		}
		for _, req := range p.Required {
			if _, present := obj[req]; !present {
				return fmt.Errorf("argument %s missing required field %s", name, req)
			}
		}
		for field, fieldValue := range obj {
			fieldProp, known := p.Properties[field]
			if !known {
				continue
			}
			if err := fieldProp.validate(name+"."+field, fieldValue); err != nil {
				return err
			}
		}
	}
	return nil
}

// Argument accessors for handler code. JSON numbers arrive as float64;
// these narrow them without panicking on absent or mistyped values.

func argString(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func argInt(args map[string]any, name string) (int, bool) {
	f, ok := args[name].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func argBool(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

func argStrings(args map[string]any, name string) []string {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
