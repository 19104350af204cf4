// Package resolve matches a workflow's declared model dependencies against
// the indexed inventory and derives the workflow's aggregate readiness.
package resolve

import (
	"path/filepath"
	"sort"
	"strings"

	"modelscan/pkg/types"
)

// candidate is one inventory record with its matching keys precomputed.
type candidate struct {
	model   types.ModelFile
	name    string // lowercase filename
	stem    string // lowercase filename without extension
	display string // lowercase display name
}

// Index is an immutable snapshot of the inventory, ordered deterministically
// so repeated resolution against the same snapshot reproduces itself.
// Records soft-marked missing are excluded: a file that is not on disk
// cannot satisfy a dependency.
type Index struct {
	candidates []candidate
}

// NewIndex builds a snapshot index over the given inventory records.
func NewIndex(files []types.ModelFile) *Index {
	idx := &Index{candidates: make([]candidate, 0, len(files))}
	for _, f := range files {
		if f.Integrity == types.IntegrityMissing {
			continue
		}
		name := strings.ToLower(f.Filename())
		idx.candidates = append(idx.candidates, candidate{
			model:   f,
			name:    name,
			stem:    strings.TrimSuffix(name, filepath.Ext(name)),
			display: strings.ToLower(f.DisplayName),
		})
	}
	sort.Slice(idx.candidates, func(i, j int) bool {
		return idx.candidates[i].model.Path < idx.candidates[j].model.Path
	})
	return idx
}

// Len returns the number of matchable records.
func (idx *Index) Len() int { return len(idx.candidates) }
