package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ValidateArguments checks args against the subset of JSON schema used by
// tool definitions: an object with required keys, typed properties and
// minLength on strings. Blank strings count as empty.
func ValidateArguments(schema map[string]any, args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !gjson.ValidBytes(args) {
		return NewInvalidArgumentsError("", "arguments are not valid JSON")
	}

	parsed := gjson.ParseBytes(args)
	if !parsed.IsObject() {
		return NewInvalidArgumentsError("", "arguments must be a JSON object")
	}

	values := make(map[string]gjson.Result)
	parsed.ForEach(func(key, value gjson.Result) bool {
		values[key.String()] = value
		return true
	})

	for _, name := range requiredKeys(schema) {
		if _, ok := values[name]; !ok {
			return NewInvalidArgumentsError(name, "is required")
		}
	}

	props, _ := schema["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := values[name]
		if !ok {
			continue
		}
		prop, _ := props[name].(map[string]any)
		if err := validateProperty(name, prop, value); err != nil {
			return err
		}
	}

	return nil
}

func requiredKeys(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		keys := make([]string, 0, len(req))
		for _, k := range req {
			if s, ok := k.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	}
	return nil
}

func validateProperty(name string, prop map[string]any, value gjson.Result) error {
	want, _ := prop["type"].(string)
	if want != "" && !hasType(value, want) {
		return NewInvalidArgumentsError(name, fmt.Sprintf("must be of type %s", want))
	}

	if value.Type == gjson.String {
		if minLen, ok := intValue(prop["minLength"]); ok {
			if utf8.RuneCountInString(strings.TrimSpace(value.String())) < minLen {
				if minLen == 1 {
					return NewInvalidArgumentsError(name, "must not be empty")
				}
				return NewInvalidArgumentsError(name, fmt.Sprintf("must be at least %d characters", minLen))
			}
		}
	}

	return nil
}

func hasType(value gjson.Result, want string) bool {
	switch want {
	case "string":
		return value.Type == gjson.String
	case "number":
		return value.Type == gjson.Number
	case "integer":
		return value.Type == gjson.Number && value.Num == float64(int64(value.Num))
	case "boolean":
		return value.Type == gjson.True || value.Type == gjson.False
	case "object":
		return value.IsObject()
	case "array":
		return value.IsArray()
	case "null":
		return value.Type == gjson.Null
	}
	return true
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
