package analysis

import "strings"

// Separator joins scope segments in mangled identifiers.  Generated code
// and every lookup keyed by mangled name depend on this single convention.
const Separator = "_"

// Mangle joins a scope name and a member name into the flattened
// identifier used in generated code.  An empty scope name yields the bare
// member name.
func Mangle(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + Separator + name
}

// MangleParts joins arbitrary qualification segments, skipping empties.
func MangleParts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

// ConvertNamespace returns the identifier to emit for a member of the
// named scope: a ::-joined C++ form when the scope was registered as a
// native C++ namespace, otherwise the mangled name unchanged.  Dotted
// scope paths map each segment to a namespace level.
func (r *Registry) ConvertNamespace(scope, member string) string {
	if scope == "" {
		return member
	}
	if r.IsCppNamespace(scope) {
		return strings.ReplaceAll(scope, ".", "::") + "::" + member
	}
	return Mangle(strings.ReplaceAll(scope, ".", Separator), member)
}
