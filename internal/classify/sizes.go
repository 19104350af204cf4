package classify

import "modelscan/pkg/types"

const gib = int64(1) << 30

// sizeRange is the plausible on-disk byte span of a checkpoint-class file
// for one architecture, across the precisions seen in the wild.
type sizeRange struct {
	arch     types.Architecture
	min, max int64
}

// checkpointSizeRanges corroborate a sub-high signature match and serve as a
// last-resort guess when no tensor names are available. Ordered smallest
// first so the tightest plausible architecture wins a size-only lookup.
var checkpointSizeRanges = []sizeRange{
	{types.ArchSD15, gib + gib/2, 5 * gib},
	{types.ArchSD20, 2 * gib, 6 * gib},
	{types.ArchSDXL, 5 * gib, 8 * gib},
	{types.ArchSD3, 4 * gib, 16 * gib},
	{types.ArchLTXV, 5 * gib, 10 * gib},
	{types.ArchWan, 6 * gib, 17 * gib},
	{types.ArchHunyuan, 12 * gib, 26 * gib},
	{types.ArchFlux, 10 * gib, 24 * gib},
}

// sizeMatches reports whether size is plausible for arch.
func sizeMatches(arch types.Architecture, size int64) bool {
	for _, r := range checkpointSizeRanges {
		if r.arch == arch {
			return size >= r.min && size <= r.max
		}
	}
	return false
}

// archFromSize guesses an architecture from byte size alone. Ranges overlap
// heavily, hence the guess never carries more than low confidence.
func archFromSize(size int64) (types.Architecture, bool) {
	for _, r := range checkpointSizeRanges {
		if size >= r.min && size <= r.max {
			return r.arch, true
		}
	}
	return types.ArchUnknown, false
}
