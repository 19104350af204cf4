package resolve

import "modelscan/pkg/types"

// Outcome is the result of matching one dependency reference. It is a
// closed set: Resolved, Missing, Ambiguous, or Incompatible. Folding the
// outcome into the persisted reference happens in exactly one place
// (Apply), so the stored status string and the stored model link can never
// disagree.
type Outcome interface {
	apply(d *types.DependencyReference)
}

// Resolved: a single inventory record won the tier walk.
type Resolved struct {
	Tier  types.StorageTier
	Model types.ModelFile
}

func (r Resolved) apply(d *types.DependencyReference) {
	if r.Tier == types.TierLocal {
		d.Status = types.ResolutionLocal
	} else {
		d.Status = types.ResolutionWarehouse
	}
	d.ResolvedDigest = identityDigest(r.Model)
	d.CandidateDigests = nil
	d.EstimatedSizeBytes = r.Model.SizeBytes
}

// Missing: no tier produced a match; the size estimate feeds budgeting.
type Missing struct {
	EstimatedSizeBytes int64
}

func (m Missing) apply(d *types.DependencyReference) {
	d.Status = types.ResolutionMissing
	d.ResolvedDigest = ""
	d.CandidateDigests = nil
	d.EstimatedSizeBytes = m.EstimatedSizeBytes
}

// Ambiguous: one tier matched several distinct files in the same storage
// tier and nothing breaks the tie deterministically.
type Ambiguous struct {
	Candidates []types.ModelFile
}

func (a Ambiguous) apply(d *types.DependencyReference) {
	d.Status = types.ResolutionAmbiguous
	d.ResolvedDigest = ""
	d.CandidateDigests = d.CandidateDigests[:0]
	for _, c := range a.Candidates {
		d.CandidateDigests = append(d.CandidateDigests, identityDigest(c))
	}
	d.EstimatedSizeBytes = 0
}

// Incompatible: the match's known architecture conflicts with the
// architecture the workflow expects.
type Incompatible struct {
	Model  types.ModelFile
	Reason string
}

func (i Incompatible) apply(d *types.DependencyReference) {
	d.Status = types.ResolutionIncompatible
	d.ResolvedDigest = ""
	d.CandidateDigests = nil
	d.EstimatedSizeBytes = 0
}

// Apply folds an outcome into the persisted reference.
func Apply(d *types.DependencyReference, o Outcome) {
	o.apply(d)
}

// identityDigest prefers the canonical full digest and falls back to the
// partial one for records whose full digest has not been computed yet.
func identityDigest(m types.ModelFile) string {
	if m.FullDigest != "" {
		return m.FullDigest
	}
	return m.PartialDigest
}
