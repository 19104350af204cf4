package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"modelscan/pkg/types"
)

// canonicalExt is assumed when a declared name carries no extension at all.
const canonicalExt = ".safetensors"

// matchTier is one rung of the tiered matcher. Tiers run in order; the
// first tier that matches anything wins and later tiers never run.
type matchTier func(declared declaredName, c candidate) bool

var tiers = []matchTier{
	// 1. Exact case-insensitive filename match.
	func(d declaredName, c candidate) bool { return c.name == d.full },
	// 2. Match with the declared name's extension stripped.
	func(d declaredName, c candidate) bool { return c.stem == d.stem || c.name == d.stem },
	// 3. Extensionless declared name with the canonical extension appended.
	func(d declaredName, c candidate) bool { return !d.hasExt && c.name == d.stem+canonicalExt },
	// 4. Substring containment in filename or enriched display name. The
	// declared extension is stripped first so "x.safetensors" can still
	// find "x-v2.safetensors".
	func(d declaredName, c candidate) bool {
		return strings.Contains(c.name, d.stem) || (c.display != "" && strings.Contains(c.display, d.stem))
	},
}

type declaredName struct {
	full   string
	stem   string
	hasExt bool
}

func newDeclaredName(raw string) declaredName {
	// Graphs may declare names with subdirectory prefixes; only the base
	// name identifies the file.
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(raw, "\\", "/")))
	ext := filepath.Ext(base)
	return declaredName{full: base, stem: strings.TrimSuffix(base, ext), hasExt: ext != ""}
}

// Resolve matches one dependency draft against the index. The walk is
// deterministic: tier order, then local-over-warehouse preference, then
// path order inside the index.
func (idx *Index) Resolve(d types.DependencyReference) Outcome {
	declared := newDeclaredName(d.ModelName)
	if declared.full == "" || declared.full == "." {
		return Missing{EstimatedSizeBytes: EstimatedSize(d.ModelType)}
	}

	for _, tier := range tiers {
		var hits []candidate
		for _, c := range idx.candidates {
			if tier(declared, c) {
				hits = append(hits, c)
			}
		}
		if len(hits) == 0 {
			continue
		}
		return idx.pick(d, hits)
	}
	return Missing{EstimatedSizeBytes: EstimatedSize(d.ModelType)}
}

// pick applies tier preference and the ambiguity rule to one tier's hits.
func (idx *Index) pick(d types.DependencyReference, hits []candidate) Outcome {
	preferred := tierSubset(hits, types.TierLocal)
	winnerTier := types.TierLocal
	if len(preferred) == 0 {
		preferred = tierSubset(hits, types.TierWarehouse)
		winnerTier = types.TierWarehouse
	}

	// Several distinct files in the same storage tier: nothing left to
	// break the tie, surface it. Copies of the same bytes are the same
	// logical model and the first (path order) wins silently.
	if distinct := distinctModels(preferred); len(distinct) > 1 {
		return Ambiguous{Candidates: distinct}
	}

	winner := preferred[0].model
	if d.ExpectedArchitecture != "" && d.ExpectedArchitecture != types.ArchUnknown &&
		winner.Architecture != types.ArchUnknown && winner.Architecture != d.ExpectedArchitecture {
		return Incompatible{
			Model:  winner,
			Reason: fmt.Sprintf("workflow expects %s, file is %s", d.ExpectedArchitecture, winner.Architecture),
		}
	}
	return Resolved{Tier: winnerTier, Model: winner}
}

func tierSubset(hits []candidate, tier types.StorageTier) []candidate {
	var out []candidate
	for _, h := range hits {
		if h.model.Tier == tier {
			out = append(out, h)
		}
	}
	return out
}

// distinctModels collapses candidates sharing an identity digest.
func distinctModels(hits []candidate) []types.ModelFile {
	seen := map[string]bool{}
	var out []types.ModelFile
	for _, h := range hits {
		key := identityDigest(h.model)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h.model)
	}
	return out
}

// Summary aggregates one workflow's resolution pass.
type Summary struct {
	Status         types.WorkflowStatus
	Total          int
	Local          int
	Warehouse      int
	Missing        int
	TotalSizeBytes int64
}

// ResolveAll resolves every draft in place and derives the aggregate
// workflow status. Re-running over an unchanged index and unchanged drafts
// reproduces identical statuses.
func (idx *Index) ResolveAll(deps []types.DependencyReference) ([]types.DependencyReference, Summary) {
	s := Summary{Total: len(deps)}
	var troubled bool
	for i := range deps {
		Apply(&deps[i], idx.Resolve(deps[i]))
		switch deps[i].Status {
		case types.ResolutionLocal:
			s.Local++
		case types.ResolutionWarehouse:
			s.Warehouse++
		case types.ResolutionMissing:
			s.Missing++
		default:
			troubled = true
		}
		s.TotalSizeBytes += deps[i].EstimatedSizeBytes
	}

	switch {
	case s.Total == 0:
		// No recognizable loader nodes: nothing to run against, so the
		// graph needs a human look rather than a vacuous ready.
		s.Status = types.WorkflowError
	case s.Missing > 0:
		s.Status = types.WorkflowMissingItems
	case troubled:
		// Ambiguous or incompatible references need a human decision.
		s.Status = types.WorkflowError
	case s.Local+s.Warehouse == s.Total && s.Local > 0:
		s.Status = types.WorkflowReadyLocal
	case s.Local+s.Warehouse == s.Total:
		s.Status = types.WorkflowReadyWarehouse
	default:
		s.Status = types.WorkflowError
	}
	return deps, s
}

// typeSizeEstimates are the working assumptions for files the inventory
// does not have, in bytes. They only feed budgeting, never identity.
var typeSizeEstimates = map[types.ModelType]int64{
	types.TypeCheckpoint: 6_500 << 20,
	types.TypeUNet:       5 << 30,
	types.TypeLora:       150 << 20,
	types.TypeVAE:        335 << 20,
	types.TypeControlNet: 1_400 << 20,
	types.TypeCLIP:       1_700 << 20,
	types.TypeUpscaler:   70 << 20,
	types.TypeEmbedding:  1 << 20,
}

// EstimatedSize returns the size assumption for a missing file of the
// given type.
func EstimatedSize(mt types.ModelType) int64 {
	if v, ok := typeSizeEstimates[mt]; ok {
		return v
	}
	return 1 << 30
}
