package graph

import (
	"fmt"
	"regexp"
)

// Ref is a reference to an output attribute of another node, written as
// ${name.attr} inside a config string.
type Ref struct {
	Node string
	Attr string
}

var refPattern = regexp.MustCompile(`\$\{([a-z0-9]([a-z0-9-]*[a-z0-9])?)\.([A-Za-z0-9_.-]+)\}`)

// ParseRefs extracts all output references from a string value.
func ParseRefs(s string) []Ref {
	matches := refPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Ref{Node: m[1], Attr: m[3]})
	}
	return refs
}

// ConfigRefs walks a config mapping and collects every output reference in
// its string values, including nested maps and lists.
func ConfigRefs(cfg map[string]any) []Ref {
	var refs []Ref
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			refs = append(refs, ParseRefs(t)...)
		case map[string]any:
			for _, vv := range t {
				walk(vv)
			}
		case []any:
			for _, vv := range t {
				walk(vv)
			}
		}
	}
	walk(cfg)
	return refs
}

// Substitute replaces every ${name.attr} reference in a string with the
// value returned by lookup. When the whole string is a single reference the
// raw attribute value is returned, preserving non-string types; otherwise
// values are interpolated into the string.
func Substitute(s string, lookup func(node, attr string) (any, bool)) (any, error) {
	if m := refPattern.FindStringSubmatch(s); m != nil && m[0] == s {
		v, ok := lookup(m[1], m[3])
		if !ok {
			return nil, fmt.Errorf("unresolved reference %s", s)
		}
		return v, nil
	}

	var failed error
	out := refPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := refPattern.FindStringSubmatch(match)
		v, ok := lookup(m[1], m[3])
		if !ok {
			if failed == nil {
				failed = fmt.Errorf("unresolved reference %s", match)
			}
			return match
		}
		return fmt.Sprintf("%v", v)
	})
	if failed != nil {
		return nil, failed
	}
	return out, nil
}
