package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

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

const vaeHeader = `{"decoder.up.0.block.0.conv1.weight":{"dtype":"F16","shape":[4,4],"data_offsets":[0,32]}}`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := buildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScanCommand(t *testing.T) {
	local := t.TempDir()
	writeModelFile(t, filepath.Join(local, "vae"), "fix.safetensors", vaeHeader)

	out, err := runCLI(t, "scan", "--local", local)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "indexed 1") || !strings.Contains(out, "fix.safetensors") {
		t.Fatalf("output: %s", out)
	}
}

func TestScanCommand_NoRoots(t *testing.T) {
	if _, err := runCLI(t, "scan"); err == nil {
		t.Fatalf("expected error without roots")
	}
}

func TestInspectCommand(t *testing.T) {
	local := t.TempDir()
	p := writeModelFile(t, filepath.Join(local, "vae"), "fix.safetensors", vaeHeader)

	out, err := runCLI(t, "inspect", p)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, `"type": "vae"`) {
		t.Fatalf("output: %s", out)
	}
}

func TestResolveCommand(t *testing.T) {
	local := t.TempDir()
	writeModelFile(t, filepath.Join(local, "vae"), "fix.safetensors", vaeHeader)
	graph := filepath.Join(t.TempDir(), "wf.json")
	doc := `{"nodes":[{"id":1,"type":"VAELoader","widgets_values":["fix.safetensors"]}]}`
	if err := os.WriteFile(graph, []byte(doc), 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	out, err := runCLI(t, "resolve", "--local", local, graph)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, `"status": "ready-local"`) {
		t.Fatalf("output: %s", out)
	}
}
