// Package scan walks the configured storage roots and keeps the inventory
// current: header read, classification, and partial digest per file. Files
// are independent, so the pass fans out over a bounded worker pool; one
// file failing degrades that file's record and nothing else.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelscan/internal/classify"
	"modelscan/internal/identity"
	"modelscan/internal/safetensors"
	"modelscan/internal/store"
	"modelscan/pkg/types"
)

// weightExts are the container extensions the walk picks up.
var weightExts = map[string]bool{
	".safetensors": true,
	".gguf":        true,
	".ckpt":        true,
	".pt":          true,
	".pth":         true,
	".bin":         true,
}

// minFileBytes skips stubs and placeholder files outright.
const minFileBytes = 1024

const defaultWorkers = 4

// Scanner runs scan passes against a store.
type Scanner struct {
	store   store.Store
	log     zerolog.Logger
	workers int
	// fullDigest switches the expensive whole-file hash on during the
	// pass; otherwise records carry the partial digest only until a full
	// digest is requested explicitly.
	fullDigest bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of files in flight at once.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithFullDigest computes full digests during the pass.
func WithFullDigest(on bool) Option {
	return func(s *Scanner) { s.fullDigest = on }
}

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// New builds a Scanner over the given store.
func New(st store.Store, opts ...Option) *Scanner {
	s := &Scanner{store: st, workers: defaultWorkers, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Roots names the directories of one storage tier.
type Roots struct {
	Tier  types.StorageTier
	Paths []string
}

type task struct {
	path string
	tier types.StorageTier
}

// outcome labels for the files_total metric.
const (
	outcomeIndexed = "indexed"
	outcomeInvalid = "invalid"
	outcomeSkipped = "skipped"
	outcomeErrored = "errored"
)

// Run walks every root and refreshes the inventory. Per-file failures are
// counted, logged, and degrade only that file's record.
func (s *Scanner) Run(ctx context.Context, roots ...Roots) (types.ScanResponse, error) {
	start := time.Now()
	var resp types.ScanResponse

	tasks := make(chan task)
	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				out := s.processFile(t.path, t.tier)
				filesTotal.WithLabelValues(out).Inc()
				mu.Lock()
				resp.Scanned++
				switch out {
				case outcomeIndexed:
					resp.Indexed++
				case outcomeInvalid, outcomeErrored:
					resp.Invalid++
				}
				seen[t.path] = true
				mu.Unlock()
			}
		}()
	}

	walkErr := s.walk(ctx, roots, tasks)
	close(tasks)
	wg.Wait()

	// Soft-mark records whose paths disappeared from the scanned roots.
	for _, m := range s.store.Models() {
		if seen[m.Path] || m.Integrity == types.IntegrityMissing {
			continue
		}
		if !underAnyRoot(m.Path, roots) {
			continue
		}
		if _, err := os.Stat(m.Path); os.IsNotExist(err) {
			if s.store.MarkMissing(m.Path) {
				resp.Missing++
				s.log.Info().Str("path", m.Path).Msg("model file disappeared; record soft-marked missing")
			}
		}
	}

	counts := map[types.StorageTier]int{}
	for _, m := range s.store.Models() {
		counts[m.Tier]++
	}
	for tier, n := range counts {
		inventorySize.WithLabelValues(string(tier)).Set(float64(n))
	}

	resp.DurationMS = time.Since(start).Milliseconds()
	scanDuration.Observe(time.Since(start).Seconds())
	s.log.Info().
		Int("scanned", resp.Scanned).
		Int("indexed", resp.Indexed).
		Int("invalid", resp.Invalid).
		Int("missing", resp.Missing).
		Dur("took", time.Since(start)).
		Msg("scan pass complete")
	return resp, walkErr
}

func (s *Scanner) walk(ctx context.Context, roots []Roots, tasks chan<- task) error {
	for _, r := range roots {
		for _, root := range r.Paths {
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					s.log.Warn().Str("path", path).Err(err).Msg("walk error; subtree skipped")
					return fs.SkipDir
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if d.IsDir() || !weightExts[strings.ToLower(filepath.Ext(path))] {
					return nil
				}
				select {
				case tasks <- task{path: path, tier: r.Tier}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func underAnyRoot(path string, roots []Roots) bool {
	for _, r := range roots {
		for _, root := range r.Paths {
			if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
				return true
			}
		}
	}
	return false
}

// processFile builds or refreshes one inventory record.
func (s *Scanner) processFile(path string, tier types.StorageTier) string {
	fi, err := os.Stat(path)
	if err != nil {
		s.log.Warn().Str("path", path).Err(err).Msg("stat failed")
		return outcomeErrored
	}
	if fi.Size() < minFileBytes {
		s.log.Debug().Str("path", path).Int64("size", fi.Size()).Msg("too small to be a real model; skipped")
		return outcomeSkipped
	}

	// Unchanged file: keep the record, just clear a stale missing mark.
	if prev, ok := s.store.ModelByPath(path); ok && prev.SizeBytes == fi.Size() && prev.Integrity != types.IntegrityInvalid {
		if prev.Integrity == types.IntegrityMissing {
			prev.Integrity = types.IntegrityOK
			if err := s.store.UpsertModel(prev); err != nil {
				return outcomeErrored
			}
			return outcomeIndexed
		}
		return outcomeSkipped
	}

	m := types.ModelFile{
		Path:      path,
		Tier:      tier,
		SizeBytes: fi.Size(),
		Integrity: types.IntegrityOK,
	}

	if strings.EqualFold(filepath.Ext(path), ".gguf") {
		res, name, err := classify.ClassifyGGUF(path)
		if err != nil {
			s.log.Debug().Str("path", path).Err(err).Msg("gguf metadata unreadable")
			m.Integrity = types.IntegrityInvalid
		}
		m.Type, m.Architecture, m.Precision, m.Confidence = res.Type, res.Architecture, res.Precision, res.Confidence
		if name != "" {
			m.DisplayName = name
		}
	} else {
		var header *safetensors.Header
		if strings.EqualFold(filepath.Ext(path), ".safetensors") {
			h, err := safetensors.ReadHeader(path)
			if err != nil {
				// Unreadable header: classification degrades to size and
				// path signals, the record degrades to invalid.
				s.log.Warn().Str("path", path).Err(err).Msg("header unreadable; record marked invalid")
				m.Integrity = types.IntegrityInvalid
			} else {
				header = h
			}
		}
		res := classify.Classify(classify.Input{Header: header, SizeBytes: fi.Size(), Path: path})
		m.Type, m.Architecture, m.Precision, m.Confidence = res.Type, res.Architecture, res.Precision, res.Confidence
		if header != nil {
			m.TrainingMeta = header.Meta.TrainingTool()
			m.SpecMeta = header.Meta.ModelSpec()
			m.TriggerWords = header.Meta.TriggerWords()
		}
	}

	if m.DisplayName == "" {
		m.DisplayName = m.Filename()
	}

	partial, err := identity.PartialDigest(path)
	if err != nil {
		s.log.Warn().Str("path", path).Err(err).Msg("partial digest failed")
		return outcomeErrored
	}
	m.PartialDigest = partial

	if s.fullDigest {
		full, err := identity.FullDigest(path)
		if err != nil {
			s.log.Warn().Str("path", path).Err(err).Msg("full digest failed")
			return outcomeErrored
		}
		m.FullDigest = full
	}

	if err := s.store.UpsertModel(m); err != nil {
		s.log.Error().Str("path", path).Err(err).Msg("store write failed")
		return outcomeErrored
	}
	s.log.Debug().
		Str("path", path).
		Str("type", string(m.Type)).
		Str("arch", string(m.Architecture)).
		Str("precision", string(m.Precision)).
		Msg("indexed")
	if m.Integrity == types.IntegrityInvalid {
		return outcomeInvalid
	}
	return outcomeIndexed
}
