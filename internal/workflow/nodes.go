package workflow

import "modelscan/pkg/types"

// slot names one model parameter of a loader node: where the declared name
// sits positionally (UI exports) and what the input is called (API format).
type slot struct {
	ModelType   types.ModelType
	WidgetIndex int
	InputName   string
}

// loaderNodes is the fixed node-type table, restricted to loader-class
// nodes. Every other node type is skipped during extraction. Multi-slot
// entries (the dual/triple text-encoder loaders) yield one dependency draft
// per slot.
var loaderNodes = map[string][]slot{
	"CheckpointLoaderSimple": {{types.TypeCheckpoint, 0, "ckpt_name"}},
	"CheckpointLoader":       {{types.TypeCheckpoint, 0, "ckpt_name"}},
	"unCLIPCheckpointLoader": {{types.TypeCheckpoint, 0, "ckpt_name"}},
	"VAELoader":              {{types.TypeVAE, 0, "vae_name"}},
	"LoraLoader":             {{types.TypeLora, 0, "lora_name"}},
	"LoraLoaderModelOnly":    {{types.TypeLora, 0, "lora_name"}},
	"CLIPLoader":             {{types.TypeCLIP, 0, "clip_name"}},
	"DualCLIPLoader": {
		{types.TypeCLIP, 0, "clip_name1"},
		{types.TypeCLIP, 1, "clip_name2"},
	},
	"TripleCLIPLoader": {
		{types.TypeCLIP, 0, "clip_name1"},
		{types.TypeCLIP, 1, "clip_name2"},
		{types.TypeCLIP, 2, "clip_name3"},
	},
	"ControlNetLoader":          {{types.TypeControlNet, 0, "control_net_name"}},
	"DiffControlNetLoader":      {{types.TypeControlNet, 0, "control_net_name"}},
	"UNETLoader":                {{types.TypeUNet, 0, "unet_name"}},
	"UnetLoaderGGUF":            {{types.TypeUNet, 0, "unet_name"}},
	"UpscaleModelLoader":        {{types.TypeUpscaler, 0, "model_name"}},
	"GLIGENLoader":              {{types.TypeCheckpoint, 0, "gligen_name"}},
	"StyleModelLoader":          {{types.TypeControlNet, 0, "style_model_name"}},
	"CLIPVisionLoader":          {{types.TypeCLIP, 0, "clip_name"}},
	"ImageOnlyCheckpointLoader": {{types.TypeCheckpoint, 0, "ckpt_name"}},
}
