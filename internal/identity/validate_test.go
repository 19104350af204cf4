package identity

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateQuick(t *testing.T) {
	d := t.TempDir()
	content := bytes.Repeat([]byte{7}, 4096)
	p := writeBytes(t, d, "m.safetensors", content)

	if err := Validate(p, Expectation{SizeBytes: 4096}, LevelQuick); err != nil {
		t.Fatalf("valid file rejected: %v", err)
	}

	err := Validate(p, Expectation{SizeBytes: 4097}, LevelQuick)
	m, ok := AsMismatch(err)
	if !ok {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if m.Reason != "size mismatch" || m.Expected != "4097" || m.Actual != "4096" {
		t.Fatalf("mismatch detail: %+v", m)
	}
}

func TestValidateTooSmall(t *testing.T) {
	d := t.TempDir()
	p := writeBytes(t, d, "stub.safetensors", []byte("placeholder"))
	err := Validate(p, Expectation{SizeBytes: 11}, LevelQuick)
	if m, ok := AsMismatch(err); !ok || m.Reason != "file too small to be a real model" {
		t.Fatalf("expected too-small mismatch, got %v", err)
	}
}

func TestValidateMissingFile(t *testing.T) {
	err := Validate(filepath.Join(t.TempDir(), "gone.safetensors"), Expectation{SizeBytes: 1}, LevelQuick)
	if m, ok := AsMismatch(err); !ok || m.Reason != "file missing" {
		t.Fatalf("expected file-missing mismatch, got %v", err)
	}
}

func TestValidateStandardAndFull(t *testing.T) {
	d := t.TempDir()
	content := bytes.Repeat([]byte("abc"), 2048)
	p := writeBytes(t, d, "m.safetensors", content)

	partial, err := PartialDigest(p)
	if err != nil {
		t.Fatalf("partial: %v", err)
	}
	full, err := FullDigest(p)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	want := Expectation{SizeBytes: int64(len(content)), PartialDigest: partial, FullDigest: full}

	if err := Validate(p, want, LevelStandard); err != nil {
		t.Fatalf("standard: %v", err)
	}
	if err := Validate(p, want, LevelFull); err != nil {
		t.Fatalf("full: %v", err)
	}

	// Same-size corruption slips past quick but not the digest levels.
	corrupted := append([]byte(nil), content...)
	corrupted[100] ^= 0xFF
	if err := os.WriteFile(p, corrupted, 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if err := Validate(p, want, LevelQuick); err != nil {
		t.Fatalf("quick should pass on same-size corruption: %v", err)
	}
	if m, ok := AsMismatch(Validate(p, want, LevelStandard)); !ok || m.Reason != "partial digest mismatch" {
		t.Fatalf("standard should catch corruption, got %v", m)
	}
	if m, ok := AsMismatch(Validate(p, want, LevelFull)); !ok || m.Reason != "full digest mismatch" {
		t.Fatalf("full should catch corruption, got %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("quick") != LevelQuick || ParseLevel("full") != LevelFull {
		t.Fatalf("explicit levels misparsed")
	}
	if ParseLevel("") != LevelStandard || ParseLevel("bogus") != LevelStandard {
		t.Fatalf("default level should be standard")
	}
}
