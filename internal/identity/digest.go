// Package identity derives content-based identity for weight files: a full
// streaming SHA-256 used as canonical identity, and a bounded partial digest
// for cheap revalidation.
package identity

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
)

// windowBytes is the size of the head and tail windows hashed by the
// partial digest.
const windowBytes = 10 << 20 // 10 MiB

// copyChunkBytes bounds per-read buffering so multi-gigabyte files are never
// held in memory.
const copyChunkBytes = 1 << 20

// FullDigest computes the canonical identity of the file: lowercase hex
// SHA-256 over all bytes, streamed in fixed-size chunks.
func FullDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, copyChunkBytes)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// PartialDigest computes a fast digest bounded to ~20 MiB of I/O regardless
// of file size: SHA-256 over the first 10 MiB, then the last 10 MiB (for
// files over 20 MiB) or whatever lies beyond the head window (10-20 MiB
// files), then the decimal string of the total byte length. Mixing the
// length in guarantees truncation changes the digest even when the head and
// tail windows still coincide.
func PartialDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := fi.Size()

	h := sha256.New()
	buf := make([]byte, copyChunkBytes)

	head := size
	if head > windowBytes {
		head = windowBytes
	}
	if _, err := io.CopyBuffer(h, io.LimitReader(f, head), buf); err != nil {
		return "", fmt.Errorf("partial digest %s: %w", path, err)
	}

	if size > windowBytes {
		tailStart := size - windowBytes
		if tailStart < windowBytes {
			// 10-20 MiB file: hash the remainder beyond the head window.
			tailStart = windowBytes
		}
		if _, err := f.Seek(tailStart, io.SeekStart); err != nil {
			return "", fmt.Errorf("partial digest %s: %w", path, err)
		}
		if _, err := io.CopyBuffer(h, io.LimitReader(f, size-tailStart), buf); err != nil {
			return "", fmt.Errorf("partial digest %s: %w", path, err)
		}
	}

	h.Write([]byte(strconv.FormatInt(size, 10)))
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
