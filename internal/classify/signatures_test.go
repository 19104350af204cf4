package classify

import (
	"testing"

	"modelscan/pkg/types"
)

func TestSignatureTableOrdered(t *testing.T) {
	for i := 1; i < len(signatureTable); i++ {
		if signatureTable[i].Priority <= signatureTable[i-1].Priority {
			t.Fatalf("table out of order at %d: %q (%d) after %q (%d)",
				i, signatureTable[i].Name, signatureTable[i].Priority,
				signatureTable[i-1].Name, signatureTable[i-1].Priority)
		}
	}
}

func TestDuplicatePriorityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate priority")
		}
	}()
	mustOrder([]Signature{
		sig("a", 1, types.ArchFlux, types.TypeCheckpoint, types.ConfidenceHigh, `x`),
		sig("b", 1, types.ArchSD15, types.TypeCheckpoint, types.ConfidenceHigh, `y`),
	})
}

// A flux file carries both the dual-stream markers and tensor names a looser
// backbone pattern could claim. The specific signature must win on priority,
// not on table construction order luck.
func TestSpecificSignatureWinsConflict(t *testing.T) {
	tensors := []string{
		"model.diffusion_model.double_blocks.0.img_attn.qkv.weight",
		"model.diffusion_model.input_blocks.0.0.weight",
	}
	s, ok := matchSignature(tensors)
	if !ok {
		t.Fatalf("no signature matched")
	}
	if s.Name != "flux-dual-stream" {
		t.Fatalf("matched %q, want flux-dual-stream", s.Name)
	}
	if s.Architecture != types.ArchFlux {
		t.Fatalf("architecture = %s, want flux", s.Architecture)
	}
}

// A full sd1 checkpoint also contains its VAE and text encoder under
// first_stage_model / cond_stage_model prefixes; the checkpoint signature
// must claim the file before the component signatures see it.
func TestCheckpointBeatsComponentSignatures(t *testing.T) {
	tensors := []string{
		"model.diffusion_model.input_blocks.0.0.weight",
		"first_stage_model.decoder.up.0.block.0.conv1.weight",
		"cond_stage_model.transformer.text_model.encoder.layers.0.mlp.fc1.weight",
	}
	s, ok := matchSignature(tensors)
	if !ok {
		t.Fatalf("no signature matched")
	}
	if s.Type != types.TypeCheckpoint || s.Architecture != types.ArchSD15 {
		t.Fatalf("matched %q (%s/%s), want sd1 checkpoint", s.Name, s.Architecture, s.Type)
	}
}
