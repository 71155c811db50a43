// Package jsonpath evaluates a practical subset of JSONPath over JSON
// documents by translating expressions to gjson paths.
//
// Supported forms:
//
//	$                         the whole document
//	$.a.b / a.b               member access
//	$['a'] / $["a"]           bracketed member access
//	$.a[0]                    array index
//	$.a[*].b / $.a.length     every element / array length
//	$.a[?(@.k=='v')].b        first element whose k equals v
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract extracts a value from a JSON string using a JSONPath expression
func Extract(json string, path string) (string, error) {
	if json == "" {
		return "", fmt.Errorf("empty JSON string")
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.Valid(json) {
		return "", fmt.Errorf("invalid JSON document")
	}

	gpath, err := convertToGjsonPath(path)
	if err != nil {
		return "", err
	}

	result := gjson.Get(json, gpath)
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractAll evaluates every expression against json and returns the values
// in the order of paths. Expressions that fail are reported together; the
// values of the others are still returned.
func ExtractAll(json string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	values := make([]string, len(paths))
	var errs []string
	for i, path := range paths {
		value, err := Extract(json, path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		values[i] = value
	}

	if len(errs) > 0 {
		return values, fmt.Errorf("extraction errors: %s", strings.Join(errs, "; "))
	}
	return values, nil
}

// convertToGjsonPath converts a JSONPath expression to a gjson path.
func convertToGjsonPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this", nil
	}

	var parts []string
	for len(path) > 0 {
		switch {
		case path[0] == '.':
			path = path[1:]

		case path[0] == '[':
			end := closingBracket(path)
			if end < 0 {
				return "", fmt.Errorf("unbalanced bracket in %q", path)
			}
			part, err := bracketPart(path[1:end])
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
			path = path[end+1:]

		default:
			end := strings.IndexAny(path, ".[")
			if end < 0 {
				end = len(path)
			}
			if name := path[:end]; name == "length" {
				parts = append(parts, "#")
			} else {
				parts = append(parts, escape(name))
			}
			path = path[end:]
		}
	}
	return strings.Join(parts, "."), nil
}

// closingBracket returns the index of the bracket closing path[0], skipping
// brackets inside quotes.
func closingBracket(path string) int {
	var quote byte
	for i := 1; i < len(path); i++ {
		c := path[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ']':
			return i
		}
	}
	return -1
}

func bracketPart(inner string) (string, error) {
	inner = strings.TrimSpace(inner)
	switch {
	case inner == "*":
		return "#", nil
	case len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0]:
		return escape(inner[1 : len(inner)-1]), nil
	case strings.HasPrefix(inner, "?(") && strings.HasSuffix(inner, ")"):
		return filterPart(inner[2 : len(inner)-1])
	case inner == "":
		return "", fmt.Errorf("empty brackets")
	default:
		for _, c := range inner {
			if c < '0' || c > '9' {
				return "", fmt.Errorf("unsupported subscript [%s]", inner)
			}
		}
		return inner, nil
	}
}

// filterPart translates @.field==value into a gjson query.
func filterPart(expr string) (string, error) {
	field, value, ok := strings.Cut(expr, "==")
	if !ok {
		return "", fmt.Errorf("unsupported filter %q", expr)
	}
	field = strings.TrimPrefix(strings.TrimSpace(field), "@.")
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		value = `"` + value[1:len(value)-1] + `"`
	}
	return fmt.Sprintf("#(%s==%s)", field, value), nil
}

// escape protects gjson path metacharacters inside a member name.
func escape(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
