package resolve

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"modelscan/pkg/types"
)

// Search returns inventory records matching a free-text term: fuzzy match
// or substring containment over filename, display name, and trigger words.
// This serves interactive lookup only; dependency resolution stays on the
// deterministic tier walk.
func (idx *Index) Search(term string) []types.ModelFile {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []types.ModelFile
	for _, c := range idx.candidates {
		if fuzzy.Match(term, c.name) ||
			fuzzy.Match(term, c.display) ||
			strings.Contains(c.name, term) ||
			strings.Contains(c.display, term) ||
			containsTrigger(c.model.TriggerWords, term) {
			out = append(out, c.model)
		}
	}
	return out
}

func containsTrigger(words []string, term string) bool {
	for _, w := range words {
		if strings.Contains(strings.ToLower(w), term) {
			return true
		}
	}
	return false
}
