// Package classify derives {type, architecture, precision, confidence} for a
// weight file from its parsed header, byte size, and containing directory.
// The classifier is pure: identical inputs always produce identical output.
package classify

import (
	"path/filepath"
	"strings"

	"modelscan/internal/safetensors"
	"modelscan/pkg/types"
)

// Input bundles the signals available for one file. Header may be nil when
// the container could not be parsed; classification then degrades to size
// and path heuristics.
type Input struct {
	Header    *safetensors.Header
	SizeBytes int64
	// Path of the file; the containing directory and filename contribute
	// type and precision hints only, never identity.
	Path string
}

// Classify runs the multi-signal heuristic. Priority order, first match
// wins: explicit model-spec architecture, explicit training-tool base model,
// tensor-name signature (size-corroborated for checkpoints), size range
// alone, unknown.
func Classify(in Input) types.ClassifierResult {
	res := types.ClassifierResult{
		Type:         types.TypeUnknown,
		Architecture: types.ArchUnknown,
		Precision:    precisionOf(in),
		Confidence:   types.ConfidenceLow,
	}

	if in.Header != nil {
		classifyFromHeader(in, &res)
	}
	if res.Architecture == types.ArchUnknown && res.Type == types.TypeUnknown {
		if arch, ok := archFromSize(in.SizeBytes); ok {
			res.Architecture = arch
			res.Type = types.TypeCheckpoint
			res.Confidence = types.ConfidenceLow
		}
	}
	// Directory hints only fill a type the stronger signals left unknown.
	if res.Type == types.TypeUnknown {
		if mt, ok := typeFromDir(in.Path); ok {
			res.Type = mt
		}
	}
	return res
}

func classifyFromHeader(in Input, res *types.ClassifierResult) {
	meta := in.Header.Meta

	// 1. Explicit model-spec architecture.
	if declared, ok := meta.Get(safetensors.ModelSpecPrefix + "architecture"); ok {
		if arch, found := archFromDeclared(declared); found {
			res.Architecture = arch
			res.Confidence = types.ConfidenceHigh
			if mt, ok := typeFromDeclared(declared); ok {
				res.Type = mt
			} else {
				res.Type = types.TypeCheckpoint
			}
			return
		}
	}

	// 2. Explicit training-tool base model: the file is an adapter trained
	// against that base.
	if declared, ok := meta.Get(safetensors.TrainingToolPrefix + "base_model_version"); ok {
		if arch, found := archFromDeclared(declared); found {
			res.Architecture = arch
			res.Type = types.TypeLora
			res.Confidence = types.ConfidenceHigh
			return
		}
	}

	// 3. Tensor-name signature table.
	if s, ok := matchSignature(in.Header.TensorNames()); ok {
		res.Architecture = s.Architecture
		res.Type = s.Type
		res.Confidence = s.Confidence
		if s.Type == types.TypeCheckpoint && s.Confidence != types.ConfidenceHigh && sizeMatches(s.Architecture, in.SizeBytes) {
			res.Confidence = types.ConfidenceHigh
		}
		return
	}
}

// dirTypeKeywords maps directory-name substrings to a model type. Checked
// against every ancestor directory name, nearest first.
var dirTypeKeywords = []struct {
	needle string
	mt     types.ModelType
}{
	{"lora", types.TypeLora},
	{"lycoris", types.TypeLora},
	{"vae", types.TypeVAE},
	{"controlnet", types.TypeControlNet},
	{"control", types.TypeControlNet},
	{"adapter", types.TypeControlNet},
	{"checkpoint", types.TypeCheckpoint},
	{"diffusion_model", types.TypeUNet},
	{"unet", types.TypeUNet},
	{"clip", types.TypeCLIP},
	{"text_encoder", types.TypeCLIP},
	{"upscale", types.TypeUpscaler},
	{"esrgan", types.TypeUpscaler},
	{"embedding", types.TypeEmbedding},
}

func typeFromDir(path string) (types.ModelType, bool) {
	dir := filepath.Dir(path)
	for dir != "" {
		name := strings.ToLower(filepath.Base(dir))
		for _, k := range dirTypeKeywords {
			if strings.Contains(name, k.needle) {
				return k.mt, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return types.TypeUnknown, false
}

// filenamePrecisionHints map filename substrings to a precision, most
// specific first.
var filenamePrecisionHints = []struct {
	needle string
	p      types.Precision
}{
	{"fp8", types.PrecisionFP8},
	{"e4m3fn", types.PrecisionFP8},
	{"e5m2", types.PrecisionFP8},
	{"bf16", types.PrecisionBF16},
	{"fp16", types.PrecisionFP16},
	{"f16", types.PrecisionFP16},
	{"fp32", types.PrecisionFP32},
	{"f32", types.PrecisionFP32},
	{"q8", types.PrecisionQ8},
	{"q4", types.PrecisionQ4},
	{"int8", types.PrecisionQ8},
	{"int4", types.PrecisionQ4},
}

// precisionOf derives precision independently of type/architecture:
// filename hints, then model-spec metadata, then the container default.
func precisionOf(in Input) types.Precision {
	name := strings.ToLower(filepath.Base(in.Path))
	for _, h := range filenamePrecisionHints {
		if strings.Contains(name, h.needle) {
			return h.p
		}
	}
	if in.Header != nil {
		if v, ok := in.Header.Meta.Get(safetensors.ModelSpecPrefix + "precision"); ok {
			switch strings.ToLower(v) {
			case "fp32", "float32":
				return types.PrecisionFP32
			case "fp16", "float16":
				return types.PrecisionFP16
			case "bf16", "bfloat16":
				return types.PrecisionBF16
			case "fp8", "float8":
				return types.PrecisionFP8
			}
		}
	}
	if strings.HasSuffix(name, ".safetensors") {
		// The format ships fp16 overwhelmingly often; absent any marker
		// that is the working assumption.
		return types.PrecisionFP16
	}
	return types.PrecisionUnknown
}
