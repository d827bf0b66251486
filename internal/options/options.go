// Package options holds the docker run option map and its deep-merge rules.
//
// An Options value maps a flag name to a string, bool, number, a sequence of
// values, or a nested map. YAML and viper decoding produce []any and
// map[string]any, so both the typed and untyped forms are accepted everywhere.
package options

import (
	"maps"
	"sort"
)

// Options maps docker run flag names to values.
type Options map[string]any

// Merge combines base with each override in order and returns a new map.
//
//   - sequence + sequence: concatenated, base elements first, duplicates kept
//   - map + map: merged recursively with the same rules
//   - anything else: the override value replaces the base value
//
// Neither base nor the overrides are modified. A nil base is treated as empty.
func Merge(base Options, overrides ...Options) Options {
	result := Clone(base)
	if result == nil {
		result = Options{}
	}
	for _, override := range overrides {
		mergeInto(result, override)
	}
	return result
}

// mergeInto applies src onto dst in place. dst must not be shared with callers.
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = cloneValue(value)
			continue
		}

		if a, aok := asSequence(existing); aok {
			if b, bok := asSequence(value); bok {
				dst[key] = concat(a, b)
				continue
			}
		}

		if a, aok := asMap(existing); aok {
			if b, bok := asMap(value); bok {
				nested := cloneMap(a)
				mergeInto(nested, b)
				dst[key] = nested
				continue
			}
		}

		dst[key] = cloneValue(value)
	}
}

// Clone returns a deep copy of o. Clone(nil) is nil.
func Clone(o Options) Options {
	if o == nil {
		return nil
	}
	return Options(cloneMap(o))
}

// Keys returns the option names in sorted order.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Strings returns the value at key as a string slice. Scalars become a
// one-element slice; missing keys return nil.
func (o Options) Strings(key string) []string {
	v, ok := o[key]
	if !ok || v == nil {
		return nil
	}
	if seq, ok := asSequence(v); ok {
		out := make([]string, 0, len(seq))
		for _, item := range seq {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if s, ok := v.(string); ok {
		return []string{s}
	}
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case Options:
		return cloneMap(t)
	case map[string]any:
		return cloneMap(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}

// asSequence reports whether v is a sequence and returns its elements.
func asSequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// asMap reports whether v is a mapping and returns it.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Options:
		return t, true
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// concat joins two sequences. When every element is a string the result is a
// []string so callers keep the typed form they started with.
func concat(a, b []any) any {
	joined := make([]any, 0, len(a)+len(b))
	for _, item := range a {
		joined = append(joined, cloneValue(item))
	}
	for _, item := range b {
		joined = append(joined, cloneValue(item))
	}

	strs := make([]string, 0, len(joined))
	for _, item := range joined {
		s, ok := item.(string)
		if !ok {
			return joined
		}
		strs = append(strs, s)
	}
	return strs
}
