package http

import (
	"fmt"
	"net/url"
	"sort"
)

// encodeParameters flattens parameters using the bracket convention:
// slices become key[]=v and nested maps become key[sub]=v. Booleans encode as 1/0.
func encodeParameters(params map[string]any) url.Values {
	values := url.Values{}
	for _, key := range sortedKeys(params) {
		appendComponent(values, key, params[key])
	}
	return values
}

func appendComponent(values url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		values.Add(key, "")
	case bool:
		if v {
			values.Add(key, "1")
		} else {
			values.Add(key, "0")
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			appendComponent(values, key+"["+k+"]", v[k])
		}
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			values.Add(key+"["+k+"]", v[k])
		}
	case []any:
		for _, item := range v {
			appendComponent(values, key+"[]", item)
		}
	case []string:
		for _, item := range v {
			values.Add(key+"[]", item)
		}
	default:
		values.Add(key, fmt.Sprint(v))
	}
}

// formFields converts parameters to single-valued multipart fields
func formFields(params map[string]any) map[string]string {
	fields := make(map[string]string, len(params))
	for key, value := range params {
		switch v := value.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = v
		case []byte:
			fields[key] = string(v)
		default:
			fields[key] = fmt.Sprint(v)
		}
	}
	return fields
}

// encodesInQuery reports whether URL-encoded parameters belong in the query string
func encodesInQuery(m Method) bool {
	return m == MethodGet || m == MethodDelete || m == "HEAD"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
