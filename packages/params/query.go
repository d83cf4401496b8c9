package params

import (
	"net/url"
	"strings"
)

// BuildNestedQuery flattens v into a form-urlencoded string using bracket
// nesting: maps add [key], lists add []. prefix is the key v lives under;
// pass "" for a top-level tree.
func BuildNestedQuery(v Value, prefix string) string {
	switch val := v.(type) {
	case nil, Null:
		return prefix
	case String:
		return prefix + "=" + url.QueryEscape(string(val))
	case File:
		if val.File == nil {
			return prefix
		}
		return prefix + "=" + url.QueryEscape(val.OriginalFilename())
	case List:
		if len(val) == 0 {
			return prefix + "[]="
		}
		if !hasListSuffix(prefix) {
			prefix += "[]"
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = appendNonEmpty(parts, BuildNestedQuery(item, prefix))
		}
		return strings.Join(parts, "&")
	case *Map:
		parts := make([]string, 0, val.Len())
		val.Each(func(key string, item Value) {
			nested := url.QueryEscape(key)
			if prefix != "" {
				nested = prefix + "[" + nested + "]"
			}
			parts = appendNonEmpty(parts, BuildNestedQuery(item, nested))
		})
		return strings.Join(parts, "&")
	}
	return prefix
}

// hasListSuffix reports whether prefix already names a list. Escaped
// brackets from a literal key count too, so a key "a[]" is not doubled.
func hasListSuffix(prefix string) bool {
	unescaped, err := url.QueryUnescape(prefix)
	if err != nil {
		unescaped = prefix
	}
	return strings.HasSuffix(unescaped, "[]")
}

func appendNonEmpty(parts []string, s string) []string {
	if s == "" {
		return parts
	}
	return append(parts, s)
}

// ParseNestedQuery decodes a form-urlencoded string into a tree, rebuilding
// nesting from bracket keys. A key without "=" decodes to Null.
func ParseNestedQuery(query string) (*Map, error) {
	result := NewMap()
	for _, pair := range strings.FieldsFunc(query, func(r rune) bool { return r == '&' || r == ';' }) {
		rawKey, rawValue, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}
		if key == "" {
			continue
		}

		var value Value = Null{}
		if hasValue {
			decoded, err := url.QueryUnescape(rawValue)
			if err != nil {
				return nil, err
			}
			value = String(decoded)
		}

		if err := normalize(result, key, value, 0); err != nil {
			return nil, err
		}
	}
	return result, nil
}
