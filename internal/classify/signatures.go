package classify

import (
	"fmt"
	"regexp"

	"modelscan/pkg/types"
)

// Signature matches a family of tensor names to an architecture/type verdict.
// Any one pattern matching any tensor name fires the signature.
type Signature struct {
	Name string
	// Priority orders the table most-specific-first; lower runs earlier.
	// Duplicate priorities are a programming error caught at init.
	Priority int

	Patterns []*regexp.Regexp

	Architecture types.Architecture
	Type         types.ModelType
	Confidence   types.Confidence
}

func sig(name string, prio int, arch types.Architecture, mt types.ModelType, conf types.Confidence, patterns ...string) Signature {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return Signature{Name: name, Priority: prio, Patterns: compiled, Architecture: arch, Type: mt, Confidence: conf}
}

// signatureTable is the fixed, ordered rule set. Architecture-specific
// markers come first: the dual-stream transformer blocks of flux are a
// structural superset shared with other video transformers, and the generic
// diffusion backbone is a superset shared by every UNet lineage, so order is
// what keeps a flux file from classifying as sd15.
var signatureTable = mustOrder([]Signature{
	sig("hunyuan-video", 10, types.ArchHunyuan, types.TypeCheckpoint, types.ConfidenceHigh,
		`txt_in\.individual_token_refiner`),
	sig("flux-dual-stream", 20, types.ArchFlux, types.TypeCheckpoint, types.ConfidenceHigh,
		`(^|\.)double_blocks\.\d+\.img_attn`,
		`(^|\.)single_blocks\.\d+\.modulation`),
	sig("sd3-joint-blocks", 30, types.ArchSD3, types.TypeCheckpoint, types.ConfidenceHigh,
		`(^|\.)joint_blocks\.\d+\.`),
	sig("wan-video", 40, types.ArchWan, types.TypeCheckpoint, types.ConfidenceMedium,
		`(^|\.)blocks\.\d+\.cross_attn\.`,
		`(^|\.)patch_embedding\.weight$`),
	sig("ltx-video", 50, types.ArchLTXV, types.TypeCheckpoint, types.ConfidenceMedium,
		`(^|\.)transformer_blocks\.\d+\.scale_shift_table`),
	sig("sdxl-checkpoint", 60, types.ArchSDXL, types.TypeCheckpoint, types.ConfidenceMedium,
		`^conditioner\.embedders\.1\.model\.`,
		`^model\.diffusion_model\.label_emb\.`),
	sig("sd2-checkpoint", 70, types.ArchSD20, types.TypeCheckpoint, types.ConfidenceMedium,
		`^cond_stage_model\.model\.transformer\.`),
	sig("sd1-checkpoint", 80, types.ArchSD15, types.TypeCheckpoint, types.ConfidenceMedium,
		`^model\.diffusion_model\.input_blocks\.`,
		`^cond_stage_model\.transformer\.text_model\.`),
	sig("controlnet", 90, types.ArchUnknown, types.TypeControlNet, types.ConfidenceHigh,
		`^control_model\.`,
		`controlnet_cond_embedding\.`),
	sig("lora-adapter", 100, types.ArchUnknown, types.TypeLora, types.ConfidenceHigh,
		`^lora_unet_`,
		`^lora_te\d?_`,
		`\.lora_(down|up)\.weight$`,
		`\.lora_[AB]\.weight$`),
	sig("standalone-vae", 110, types.ArchUnknown, types.TypeVAE, types.ConfidenceHigh,
		`^(first_stage_model\.)?decoder\.up(_blocks)?\.`,
		`^(first_stage_model\.)?encoder\.down(_blocks)?\.`),
	sig("clip-text-encoder", 120, types.ArchUnknown, types.TypeCLIP, types.ConfidenceHigh,
		`^(text_model|clip_l\.transformer)\.encoder\.layers\.`),
	sig("t5-text-encoder", 130, types.ArchUnknown, types.TypeCLIP, types.ConfidenceHigh,
		`^encoder\.block\.\d+\.layer\.`),
})

// mustOrder sorts by priority and panics on duplicates; the table is
// reference data and a conflict is a bug, not a runtime condition.
func mustOrder(sigs []Signature) []Signature {
	seen := map[int]string{}
	for _, s := range sigs {
		if prev, dup := seen[s.Priority]; dup {
			panic(fmt.Sprintf("classify: signatures %q and %q share priority %d", prev, s.Name, s.Priority))
		}
		seen[s.Priority] = s.Name
	}
	for i := 1; i < len(sigs); i++ {
		for j := i; j > 0 && sigs[j].Priority < sigs[j-1].Priority; j-- {
			sigs[j], sigs[j-1] = sigs[j-1], sigs[j]
		}
	}
	return sigs
}

// matchSignature returns the first signature any tensor name satisfies.
func matchSignature(tensorNames []string) (Signature, bool) {
	for _, s := range signatureTable {
		for _, re := range s.Patterns {
			for _, name := range tensorNames {
				if re.MatchString(name) {
					return s, true
				}
			}
		}
	}
	return Signature{}, false
}
