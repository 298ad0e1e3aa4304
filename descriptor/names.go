package descriptor

import (
	"regexp"
	"strings"
)

var dashed = regexp.MustCompile(`-[^-]`)

// MakeName converts a dash-case name into camelCase: every dash followed by a
// non-dash character is removed and that character is upper-cased.
func MakeName(name string) string {
	return dashed.ReplaceAllStringFunc(name, func(match string) string {
		return strings.ToUpper(match[1:])
	})
}

// TranslateResponse renames the top-level keys of an object, or of every
// object in an array, with MakeName. Nested values are left untouched, as are
// array entries that are not objects.
func TranslateResponse(response any) any {
	switch v := response.(type) {
	case map[string]any:
		return translateObject(v)
	case []any:
		out := make([]any, len(v))
		for i, entry := range v {
			if object, ok := entry.(map[string]any); ok {
				out[i] = translateObject(object)
				continue
			}
			out[i] = entry
		}
		return out
	default:
		return response
	}
}

func translateObject(object map[string]any) map[string]any {
	out := make(map[string]any, len(object))
	for key, value := range object {
		out[MakeName(key)] = value
	}
	return out
}
