package cargo

import (
	"encoding/json"
	"sort"
)

// Object is a decoded JSON object. Every value held by an Object (and by
// nested arrays) is one of: string, json.Number, bool, nil, []any or a
// nested object (map[string]any or Object).
type Object map[string]any

// AsObject returns v as an Object when it is a JSON object.
func AsObject(v any) (Object, bool) {
	switch m := v.(type) {
	case Object:
		return m, true
	case map[string]any:
		return Object(m), true
	}
	return nil, false
}

// Object returns the nested object at key, or nil.
func (o Object) Object(key string) Object {
	m, _ := AsObject(o[key])
	return m
}

// String returns the string at key, or "".
func (o Object) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Bool returns the boolean at key and whether one was present.
func (o Object) Bool(key string) (value, ok bool) {
	value, ok = o[key].(bool)
	return value, ok
}

// Array returns the array at key, or nil.
func (o Object) Array(key string) []any {
	a, _ := o[key].([]any)
	return a
}

// IsFalse reports whether key holds an explicit boolean false.
func (o Object) IsFalse(key string) bool {
	v, ok := o.Bool(key)
	return ok && !v
}

// Keys returns the object's keys in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a shallow copy.
func (o Object) Copy() Object {
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// IsMissing reports whether v counts as absent for fill-missing merges:
// null, the empty string, or an empty array.
func IsMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

// IntValue converts a JSON number to an int.
func IntValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// StringList returns the string elements of an array value, skipping others.
func StringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ToAnyList converts ids back to a JSON array value.
func ToAnyList(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// MergeUnique appends to base every id of incoming not already present,
// keeping base order first.
func MergeUnique(base, incoming []string) []string {
	seen := make(map[string]bool, len(base)+len(incoming))
	merged := make([]string, 0, len(base)+len(incoming))
	for _, id := range base {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range incoming {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}
