package ipxe

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches ${namespace.key} and ${namespace.key|default}.
var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_]+)\.([a-zA-Z0-9_]+)(\|([^}]*))?\}`)

// Render resolves every ${namespace.key} and ${namespace.key|default}
// placeholder in tmpl against ctx. A reference whose key is absent, or whose
// namespace is unknown, resolves to its default, or is left as the literal
// placeholder if it carries none. Validate reports unknown namespaces
// separately.
func Render(tmpl string, ctx Context) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		ns, key, hasDefault, def := Namespace(groups[1]), groups[2], groups[3] != "", groups[4]

		if v, ok := ctx.lookup(ns, key); ok {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// Validate reports every placeholder in tmpl whose namespace is neither a
// known closed nor known open namespace, and every placeholder naming a
// closed namespace's field that isn't in its fixed key set. Open
// namespaces accept any key, so no key-level error is possible there.
func Validate(tmpl string) []error {
	var errs []error
	for _, groups := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		ns, key := Namespace(groups[1]), groups[2]
		switch {
		case openNamespaces[ns]:
			continue
		case closedNamespaces[ns]:
			if !knownKeys[ns][key] {
				errs = append(errs, fmt.Errorf("unknown variable %s.%s in %q", ns, key, groups[0]))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown placeholder namespace %q in %q", ns, groups[0]))
		}
	}
	return errs
}
