package irgen

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how different a "did you mean?" candidate may
// be from the requested name.
const maxSuggestDistance = 3

// nearestName returns the candidate closest to name by edit distance, or
// "" when nothing is within maxSuggestDistance edits. Candidates at equal
// distance resolve alphabetically so diagnostics stay deterministic.
func nearestName(name string, candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best := ""
	bestDistance := maxSuggestDistance + 1

	for _, candidate := range sorted {
		if candidate == name {
			continue
		}
		distance := levenshtein.ComputeDistance(name, candidate)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	return best
}

// funcNameCorpus lists every distinct procedure name in the module.
func (g *Generator) funcNameCorpus() []string {
	names := make([]string, 0, len(g.module.FuncMap))
	for name := range g.module.FuncMap {
		names = append(names, name)
	}
	return names
}

// methodNameCorpus lists every method name declared on the given subject.
func (g *Generator) methodNameCorpus(structName string) []string {
	var names []string
	for key := range g.module.MethodMap {
		if key.StructName == structName {
			names = append(names, key.MethodName)
		}
	}
	return names
}
