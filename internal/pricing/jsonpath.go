package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// DecodeDocument parses a JSON body into the generic shape jsonpath expects.
func DecodeDocument(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return doc, nil
}

// Lookup evaluates path against doc and always returns a list: jsonpath
// yields a bare value for definite paths and a list for wildcards. A path
// that matches nothing returns nil.
func Lookup(doc any, path string) []any {
	v, err := jsonpath.Get(path, doc)
	if err != nil || v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// LookupString returns the first match of path rendered as a string.
func LookupString(doc any, path string) string {
	for _, v := range Lookup(doc, path) {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return fmt.Sprintf("%.0f", t)
		}
	}
	return ""
}
