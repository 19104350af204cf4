package scan

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"modelscan/internal/store"
	"modelscan/pkg/types"
)

// writeModelFile writes a plausible container: length prefix, header JSON,
// and enough payload to clear the minimum size gate.
func writeModelFile(t *testing.T, dir, name, header string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	buf := make([]byte, 8, 8+len(header)+4096)
	binary.LittleEndian.PutUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, make([]byte, 4096)...)
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const loraHeader = `{"__metadata__":{"ss_base_model_version":"sdxl_base_v1-0"},"lora_unet_a.lora_down.weight":{"dtype":"F16","shape":[4,4],"data_offsets":[0,32]}}`
const vaeHeader = `{"decoder.up.0.block.0.conv1.weight":{"dtype":"F16","shape":[4,4],"data_offsets":[0,32]}}`

func TestScanIndexesFiles(t *testing.T) {
	local := t.TempDir()
	warehouse := t.TempDir()
	writeModelFile(t, filepath.Join(local, "loras"), "style.safetensors", loraHeader)
	writeModelFile(t, filepath.Join(warehouse, "vae"), "fix.safetensors", vaeHeader)

	st := store.NewMemory()
	sc := New(st, WithWorkers(2))
	resp, err := sc.Run(context.Background(),
		Roots{Tier: types.TierLocal, Paths: []string{local}},
		Roots{Tier: types.TierWarehouse, Paths: []string{warehouse}},
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Scanned != 2 || resp.Indexed != 2 || resp.Invalid != 0 {
		t.Fatalf("summary: %+v", resp)
	}

	models := st.Models()
	if len(models) != 2 {
		t.Fatalf("inventory: %+v", models)
	}
	for _, m := range models {
		if m.PartialDigest == "" {
			t.Fatalf("partial digest missing: %+v", m)
		}
	}
	lora, ok := findByName(models, "style.safetensors")
	if !ok || lora.Type != types.TypeLora || lora.Architecture != types.ArchSDXL || lora.Tier != types.TierLocal {
		t.Fatalf("lora record: %+v", lora)
	}
	if lora.TrainingMeta["base_model_version"] != "sdxl_base_v1-0" {
		t.Fatalf("training metadata not extracted: %+v", lora.TrainingMeta)
	}
	vae, ok := findByName(models, "fix.safetensors")
	if !ok || vae.Type != types.TypeVAE || vae.Tier != types.TierWarehouse {
		t.Fatalf("vae record: %+v", vae)
	}
}

func TestScanMarksCorruptFile(t *testing.T) {
	root := t.TempDir()
	// Implausible declared header length.
	buf := make([]byte, 4096)
	binary.LittleEndian.PutUint64(buf, 500_000_000)
	if err := os.WriteFile(filepath.Join(root, "broken.safetensors"), buf, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st := store.NewMemory()
	resp, err := New(st).Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Invalid != 1 {
		t.Fatalf("summary: %+v", resp)
	}
	m, ok := findByName(st.Models(), "broken.safetensors")
	if !ok || m.Integrity != types.IntegrityInvalid {
		t.Fatalf("record: %+v", m)
	}
	// Still classified from whatever signals were left.
	if m.Confidence != types.ConfidenceLow {
		t.Fatalf("corrupt file should classify low: %+v", m)
	}
}

func TestScanSoftMarksDisappeared(t *testing.T) {
	root := t.TempDir()
	p := writeModelFile(t, root, "gone.safetensors", vaeHeader)

	st := store.NewMemory()
	sc := New(st)
	if _, err := sc.Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	resp, err := sc.Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if resp.Missing != 1 {
		t.Fatalf("summary: %+v", resp)
	}
	models := st.Models()
	if len(models) != 1 || models[0].Integrity != types.IntegrityMissing {
		t.Fatalf("record should be soft-marked, not deleted: %+v", models)
	}
}

func TestScanClearsStaleMissingMark(t *testing.T) {
	root := t.TempDir()
	p := writeModelFile(t, root, "back.safetensors", vaeHeader)

	st := store.NewMemory()
	sc := New(st)
	if _, err := sc.Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	st.MarkMissing(p)
	if _, err := sc.Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}}); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	m, _ := st.ModelByPath(p)
	if m.Integrity != types.IntegrityOK {
		t.Fatalf("missing mark not cleared: %+v", m)
	}
}

func TestScanSkipsTinyAndForeignFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "stub.safetensors"), []byte("tiny"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "readme.txt"), make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st := store.NewMemory()
	resp, err := New(st).Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Indexed != 0 || len(st.Models()) != 0 {
		t.Fatalf("nothing should index: %+v %+v", resp, st.Models())
	}
}

func TestRescanIsStable(t *testing.T) {
	root := t.TempDir()
	writeModelFile(t, root, "a.safetensors", vaeHeader)

	st := store.NewMemory()
	sc := New(st)
	if _, err := sc.Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	before := st.Models()
	resp, err := sc.Run(context.Background(), Roots{Tier: types.TierLocal, Paths: []string{root}})
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if resp.Indexed != 0 {
		t.Fatalf("unchanged file re-indexed: %+v", resp)
	}
	after := st.Models()
	if len(before) != 1 || len(after) != 1 || before[0].PartialDigest != after[0].PartialDigest {
		t.Fatalf("inventory drifted: %+v vs %+v", before, after)
	}
}

func findByName(models []types.ModelFile, name string) (types.ModelFile, bool) {
	for _, m := range models {
		if m.Filename() == name {
			return m, true
		}
	}
	return types.ModelFile{}, false
}
