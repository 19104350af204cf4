package classify

import (
	"strings"

	"modelscan/pkg/types"
)

// archAlias maps a lowercase needle found in declared metadata (model-spec
// architecture strings, training-tool base-model versions) to an
// architecture. Checked in order; more specific needles first so
// "stable-diffusion-xl" is not swallowed by "stable-diffusion-v1" logic.
var archAliases = []struct {
	needle string
	arch   types.Architecture
}{
	{"flux", types.ArchFlux},
	{"stable-diffusion-3", types.ArchSD3},
	{"sd3", types.ArchSD3},
	{"stable-diffusion-xl", types.ArchSDXL},
	{"sdxl", types.ArchSDXL},
	{"xl_base", types.ArchSDXL},
	{"xl_v1", types.ArchSDXL},
	{"hunyuan", types.ArchHunyuan},
	{"wan", types.ArchWan},
	{"ltx", types.ArchLTXV},
	{"stable-diffusion-v2", types.ArchSD20},
	{"sd_v2", types.ArchSD20},
	{"v2-768", types.ArchSD20},
	{"stable-diffusion-v1", types.ArchSD15},
	{"sd_v1", types.ArchSD15},
	{"sd-v1", types.ArchSD15},
	{"v1-5", types.ArchSD15},
}

// archFromDeclared resolves a declared architecture/base-model string.
func archFromDeclared(declared string) (types.Architecture, bool) {
	s := strings.ToLower(strings.TrimSpace(declared))
	if s == "" {
		return types.ArchUnknown, false
	}
	for _, a := range archAliases {
		if strings.Contains(s, a.needle) {
			return a.arch, true
		}
	}
	return types.ArchUnknown, false
}

// typeFromDeclared extracts a model type from a model-spec architecture
// string suffix (e.g. ".../lora", ".../vae").
func typeFromDeclared(declared string) (types.ModelType, bool) {
	s := strings.ToLower(declared)
	switch {
	case strings.HasSuffix(s, "/lora") || strings.Contains(s, "lora"):
		return types.TypeLora, true
	case strings.HasSuffix(s, "/vae"):
		return types.TypeVAE, true
	case strings.HasSuffix(s, "/controlnet") || strings.Contains(s, "controlnet"):
		return types.TypeControlNet, true
	}
	return types.TypeUnknown, false
}
