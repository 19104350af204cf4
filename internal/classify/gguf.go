package classify

import (
	gguf "github.com/gpustack/gguf-parser-go"

	"modelscan/pkg/types"
)

// ClassifyGGUF classifies a .gguf weight file via its own embedded metadata.
// Quantized diffusion transformers ship in this container next to the
// safetensors files in the same directories; they load as standalone
// diffusion models, hence the unet type. The declared architecture string
// goes through the same alias table as safetensors metadata.
func ClassifyGGUF(path string) (types.ClassifierResult, string, error) {
	f, err := gguf.ParseGGUFFile(path)
	if err != nil {
		return types.ClassifierResult{
			Type:         types.TypeUnknown,
			Architecture: types.ArchUnknown,
			Precision:    types.PrecisionUnknown,
			Confidence:   types.ConfidenceLow,
		}, "", err
	}

	meta := f.Metadata()
	arch := f.Architecture()

	res := types.ClassifierResult{
		Type:         types.TypeUNet,
		Architecture: types.ArchUnknown,
		Precision:    precisionOf(Input{Path: path}),
		Confidence:   types.ConfidenceMedium,
	}
	if a, ok := archFromDeclared(arch.Architecture); ok {
		res.Architecture = a
		res.Confidence = types.ConfidenceHigh
	} else if a, ok := archFromDeclared(meta.Name); ok {
		res.Architecture = a
	}
	return res, meta.Name, nil
}
