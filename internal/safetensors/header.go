// Package safetensors reads the JSON header of a tensor-container file
// without touching the tensor payload. Layout: bytes [0,8) hold an unsigned
// 64-bit little-endian header length N, bytes [8,8+N) hold a UTF-8 JSON
// object mapping tensor names to {dtype, shape, data_offsets}, plus one
// reserved "__metadata__" key holding a free-form string map.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// MaxHeaderBytes is the sanity ceiling on the declared header length. A
// declared length above it is rejected as corrupt before any allocation.
const MaxHeaderBytes = 100 << 20 // 100 MiB

const metadataKey = "__metadata__"

// TensorInfo describes one named tensor in the container header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Header is the parsed container header.
type Header struct {
	// Tensors maps tensor name to its descriptor.
	Tensors map[string]TensorInfo
	// Meta is the typed view over the reserved metadata map.
	Meta Metadata
	// HeaderBytes is the declared JSON header length.
	HeaderBytes int64
	// FileBytes is the total container size on disk.
	FileBytes int64
}

// TensorNames returns the tensor names in unspecified order.
func (h *Header) TensorNames() []string {
	names := make([]string, 0, len(h.Tensors))
	for name := range h.Tensors {
		names = append(names, name)
	}
	return names
}

// ReadHeader parses the container header at path. It reads at most
// 8+MaxHeaderBytes bytes and never the tensor payload. Failures are typed:
// IsNotFound for missing/unreadable files, IsCorruptHeader for implausible
// lengths or undecodable JSON.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, notFoundError{path: path, err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, notFoundError{path: path, err: err}
	}

	var lenBuf [8]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("short read on length prefix: %v", err)}
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	if n == 0 {
		return nil, corruptHeaderError{path: path, reason: "zero-length header"}
	}
	if n > MaxHeaderBytes {
		return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("declared header length %d exceeds %d byte ceiling", n, MaxHeaderBytes)}
	}
	if int64(n) > fi.Size()-8 {
		return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("declared header length %d exceeds file size %d", n, fi.Size())}
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("short read on header body: %v", err)}
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("undecodable header JSON: %v", err)}
	}

	h := &Header{
		Tensors:     make(map[string]TensorInfo, len(entries)),
		HeaderBytes: int64(n),
		FileBytes:   fi.Size(),
	}
	for name, msg := range entries {
		if name == metadataKey {
			var meta map[string]string
			if err := json.Unmarshal(msg, &meta); err != nil {
				return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("undecodable %s map: %v", metadataKey, err)}
			}
			h.Meta = newMetadata(meta)
			continue
		}
		var ti TensorInfo
		if err := json.Unmarshal(msg, &ti); err != nil {
			return nil, corruptHeaderError{path: path, reason: fmt.Sprintf("undecodable tensor entry %q: %v", name, err)}
		}
		h.Tensors[name] = ti
	}
	if h.Meta.raw == nil {
		h.Meta = newMetadata(nil)
	}
	return h, nil
}
