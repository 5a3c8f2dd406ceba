package toolloop

import (
	"strings"

	"github.com/todea/meshhub/llm"
)

// Resolve maps a (possibly hallucinated) tool name to a real catalog entry.
// Exact match wins; otherwise tools whose name contains the requested name
// (or vice versa) are candidates, and among several candidates the one with
// the most underscore-token overlap is chosen. Ties go to the candidate that
// appears earliest in the catalog. The second return value is false when no
// reasonable match exists.
func Resolve(name string, specs []llm.ToolSpec) (llm.ToolSpec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}

	var matches []llm.ToolSpec
	for _, spec := range specs {
		if strings.Contains(spec.Name, name) || strings.Contains(name, spec.Name) {
			matches = append(matches, spec)
		}
	}

	switch len(matches) {
	case 0:
		return llm.ToolSpec{}, false
	case 1:
		return matches[0], true
	}

	reqTokens := tokenSet(name)
	best, bestOverlap := matches[0], -1
	for _, m := range matches {
		if n := overlap(reqTokens, tokenSet(m.Name)); n > bestOverlap {
			best, bestOverlap = m, n
		}
	}
	return best, true
}

// SanitizeArguments strips argument keys the tool's schema does not declare,
// so tools with all-optional parameters still succeed with their defaults.
// A schema with no properties passes arguments through unchanged.
func SanitizeArguments(spec llm.ToolSpec, args map[string]any) map[string]any {
	if args == nil {
		args = map[string]any{}
	}
	if len(spec.Schema.Properties) == 0 {
		return args
	}
	stripped := make(map[string]any, len(args))
	for k, v := range args {
		if spec.Schema.HasProperty(k) {
			stripped[k] = v
		}
	}
	return stripped
}

func tokenSet(name string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Split(name, "_") {
		tokens[t] = struct{}{}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
