package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// ValidateJSON parses raw as JSON and validates it against schema. It
// returns the decoded value so callers do not parse twice.
func ValidateJSON(schema *Schema, raw []byte) (any, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if schema == nil {
		return parsed, nil
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	return parsed, nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded JSON value, not a Go map with typed
	// slices, so round-trip through JSON.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	defParsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}

// portableSchema returns a copy of def suitable for strict structured-output
// modes: validation-only keywords are dropped and objects are closed.
func portableSchema(def map[string]any) map[string]any {
	out := make(map[string]any, len(def)+1)
	if def["type"] == "object" {
		if _, ok := def["additionalProperties"]; !ok {
			out["additionalProperties"] = false
		}
	}
	for k, v := range def {
		switch k {
		case "minLength", "maxLength", "pattern":
			continue
		}
		switch vv := v.(type) {
		case map[string]any:
			if k == "properties" {
				props := make(map[string]any, len(vv))
				for name, p := range vv {
					if pm, ok := p.(map[string]any); ok {
						props[name] = portableSchema(pm)
					} else {
						props[name] = p
					}
				}
				out[k] = props
			} else {
				out[k] = portableSchema(vv)
			}
		default:
			out[k] = v
		}
	}
	return out
}
