// Package vram turns a resolved dependency set into a peak GPU-memory
// estimate. The arithmetic is heuristic by design: sizes times empirical
// type/precision multipliers, a runtime floor per architecture, and fixed
// overhead margins.
package vram

import (
	"fmt"
	"sort"

	"modelscan/pkg/types"
)

const gib = float64(1 << 30)

const (
	// baseOverheadGB covers the runtime itself before any weights load.
	baseOverheadGB = 0.8
	// generationOverhead covers activation memory while sampling.
	generationOverhead = 1.15
	// peakMargin absorbs transient spikes above the steady state.
	peakMargin = 1.10
	// floorFraction: an implausibly small dependency set is still raised
	// toward this share of the architecture's known floor.
	floorFraction = 0.8
	// vaeFlatGB: decode cost barely scales with the VAE file itself.
	vaeFlatGB = 0.2
)

// Item is one dependency's contribution: real size when resolved, the
// type-derived estimate otherwise.
type Item struct {
	Type         types.ModelType
	Precision    types.Precision
	Architecture types.Architecture
	SizeBytes    int64
}

// checkpointMultipliers scale a checkpoint-class file's on-disk size to its
// resident footprint per precision.
var checkpointMultipliers = map[types.Precision]float64{
	types.PrecisionFP32: 0.8, // runtimes load fp32 weights down-cast
	types.PrecisionFP16: 1.1,
	types.PrecisionBF16: 1.1,
	types.PrecisionFP8:  0.6,
	types.PrecisionQ8:   0.7,
	types.PrecisionQ4:   0.55,
}

// typeMultipliers scale non-checkpoint types; precision moves these files'
// on-disk size already, so one factor per type suffices.
var typeMultipliers = map[types.ModelType]float64{
	types.TypeLora:       0.15,
	types.TypeControlNet: 0.9,
	types.TypeCLIP:       0.8,
	types.TypeUpscaler:   0.5,
	types.TypeEmbedding:  0.05,
}

// architectureFloorsGB is the minimum realistic footprint to run each
// architecture at all, regardless of what the file sizes suggest.
var architectureFloorsGB = map[types.Architecture]float64{
	types.ArchSD15:    3.5,
	types.ArchSD20:    4,
	types.ArchSDXL:    7,
	types.ArchSD3:     9,
	types.ArchFlux:    15,
	types.ArchHunyuan: 14,
	types.ArchWan:     13,
	types.ArchLTXV:    11,
}

// gpuClassesGB are the common card sizes estimates are judged against; the
// buffer accounts for memory the display and OS already hold.
var gpuClassesGB = []float64{16, 24, 48, 80}

const gpuClassBufferGB = 1.0

// targetClassGB narrows fit warnings to the operator's actual card when set.
var targetClassGB float64

// SetTargetClassGB restricts fit warnings to one GPU class (0 restores the
// full class table).
func SetTargetClassGB(gb float64) {
	if gb < 0 {
		gb = 0
	}
	targetClassGB = gb
}

const (
	maxComfortableLoras       = 3
	maxComfortableControlNets = 2
)

// Estimate derives the peak VRAM projection for one dependency set.
func Estimate(items []Item) types.VRAMEstimate {
	var sumGB float64
	var loras, controlnets int
	arch := types.ArchUnknown

	for _, it := range items {
		sumGB += itemGB(it)
		switch it.Type {
		case types.TypeLora:
			loras++
		case types.TypeControlNet:
			controlnets++
		case types.TypeCheckpoint, types.TypeUNet:
			// The checkpoint (or standalone diffusion model) decides
			// which architecture floor applies.
			if arch == types.ArchUnknown && it.Architecture != types.ArchUnknown {
				arch = it.Architecture
			}
		}
	}
	sumGB += baseOverheadGB

	if floor, ok := architectureFloorsGB[arch]; ok {
		if raised := floor * floorFraction; sumGB < raised {
			sumGB = raised
		}
	}

	peakGB := sumGB * generationOverhead * peakMargin

	var warnings []string
	if loras > maxComfortableLoras {
		warnings = append(warnings, fmt.Sprintf("%d loras stacked; expect slower loads and higher peak memory", loras))
	}
	if controlnets > maxComfortableControlNets {
		warnings = append(warnings, fmt.Sprintf("%d controlnets stacked; expect higher peak memory", controlnets))
	}
	warnings = append(warnings, classWarnings(peakGB)...)

	peakBytes := int64(peakGB * gib)
	return types.VRAMEstimate{
		PeakBytes:    peakBytes,
		PeakDisplay:  FormatBytes(peakBytes),
		Architecture: arch,
		Warnings:     warnings,
	}
}

func itemGB(it Item) float64 {
	sizeGB := float64(it.SizeBytes) / gib
	switch it.Type {
	case types.TypeVAE:
		return vaeFlatGB
	case types.TypeCheckpoint, types.TypeUNet:
		if m, ok := checkpointMultipliers[it.Precision]; ok {
			return sizeGB * m
		}
		return sizeGB * checkpointMultipliers[types.PrecisionFP16]
	default:
		if m, ok := typeMultipliers[it.Type]; ok {
			return sizeGB * m
		}
		return sizeGB
	}
}

// classWarnings flags every GPU class the estimate does not fit.
func classWarnings(peakGB float64) []string {
	var out []string
	classes := append([]float64(nil), gpuClassesGB...)
	if targetClassGB > 0 {
		classes = []float64{targetClassGB}
	}
	sort.Float64s(classes)
	for _, c := range classes {
		if peakGB > c-gpuClassBufferGB {
			out = append(out, fmt.Sprintf("estimated %.1f GB exceeds a %.0f GB card (%.0f GB usable)", peakGB, c, c-gpuClassBufferGB))
		}
	}
	return out
}

// FormatBytes renders a byte count for humans.
func FormatBytes(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for u := n / unit; u >= unit; u /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
