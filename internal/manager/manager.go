// Package manager ties the core pieces together behind one service surface:
// inventory access, verification, scan passes, and workflow resolution.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelscan/internal/identity"
	"modelscan/internal/resolve"
	"modelscan/internal/scan"
	"modelscan/internal/store"
	"modelscan/pkg/types"
)

type Manager struct {
	store   store.Store
	scanner *scan.Scanner
	roots   []scan.Roots
	log     zerolog.Logger
	start   time.Time

	mu       sync.Mutex
	scanning bool
	lastScan *types.ScanResponse
}

// New builds a Manager. The scanner may be nil when only pre-indexed
// inventory access is needed (tests, read-only tooling).
func New(st store.Store, scanner *scan.Scanner, roots []scan.Roots, log zerolog.Logger) *Manager {
	return &Manager{
		store:   st,
		scanner: scanner,
		roots:   roots,
		log:     log,
		start:   time.Now(),
	}
}

// ListModels returns the full inventory.
func (m *Manager) ListModels() []types.ModelFile {
	return m.store.Models()
}

// Model returns one record by full or partial digest.
func (m *Manager) Model(digest string) (types.ModelFile, error) {
	rec, ok := m.store.ModelByDigest(digest)
	if !ok {
		return types.ModelFile{}, ErrModelNotFound(digest)
	}
	return rec, nil
}

// Search runs a free-text lookup over the inventory.
func (m *Manager) Search(term string) []types.ModelFile {
	return resolve.NewIndex(m.store.Models()).Search(term)
}

// Verify revalidates one record's on-disk bytes at the given level and
// degrades the record when the bytes disagree. A full-level pass that
// succeeds on a record without a full digest computes and stores it.
func (m *Manager) Verify(digest, level string) (types.VerifyResponse, error) {
	rec, ok := m.store.ModelByDigest(digest)
	if !ok {
		return types.VerifyResponse{}, ErrModelNotFound(digest)
	}
	lvl := identity.ParseLevel(level)

	err := identity.Validate(rec.Path, identity.Expectation{
		SizeBytes:     rec.SizeBytes,
		PartialDigest: rec.PartialDigest,
		FullDigest:    rec.FullDigest,
	}, lvl)
	if err != nil {
		mismatch, ok := identity.AsMismatch(err)
		if !ok {
			return types.VerifyResponse{}, err
		}
		if mismatch.Reason == "file missing" {
			m.store.MarkMissing(rec.Path)
		} else {
			rec.Integrity = types.IntegrityInvalid
			if err := m.store.UpsertModel(rec); err != nil {
				return types.VerifyResponse{}, err
			}
		}
		m.log.Warn().Str("path", rec.Path).Str("reason", mismatch.Reason).Msg("verification failed")
		return types.VerifyResponse{
			Valid:    false,
			Reason:   mismatch.Reason,
			Expected: mismatch.Expected,
			Actual:   mismatch.Actual,
		}, nil
	}

	if lvl == identity.LevelFull && rec.FullDigest == "" {
		full, err := identity.FullDigest(rec.Path)
		if err != nil {
			return types.VerifyResponse{}, err
		}
		rec.FullDigest = full
		if err := m.store.UpsertModel(rec); err != nil {
			return types.VerifyResponse{}, err
		}
	}
	if rec.Integrity != types.IntegrityOK {
		rec.Integrity = types.IntegrityOK
		if err := m.store.UpsertModel(rec); err != nil {
			return types.VerifyResponse{}, err
		}
	}
	return types.VerifyResponse{Valid: true}, nil
}

// Identify returns the record's canonical full digest, computing and
// persisting it on first request. This digest is the key for remote
// catalog lookups.
func (m *Manager) Identify(digest string) (string, error) {
	rec, ok := m.store.ModelByDigest(digest)
	if !ok {
		return "", ErrModelNotFound(digest)
	}
	if rec.FullDigest != "" {
		return rec.FullDigest, nil
	}
	full, err := identity.FullDigest(rec.Path)
	if err != nil {
		return "", err
	}
	rec.FullDigest = full
	if err := m.store.UpsertModel(rec); err != nil {
		return "", err
	}
	return full, nil
}

// Ready reports whether the first inventory pass has completed.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastScan != nil
}

// Scan runs one pass over the configured roots. Only one pass runs at a
// time; a second request while one is in flight fails fast.
func (m *Manager) Scan(ctx context.Context) (types.ScanResponse, error) {
	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		return types.ScanResponse{}, scanBusyError{}
	}
	m.scanning = true
	m.mu.Unlock()

	resp, err := m.scanner.Run(ctx, m.roots...)

	m.mu.Lock()
	m.scanning = false
	if err == nil {
		r := resp
		m.lastScan = &r
	}
	m.mu.Unlock()
	return resp, err
}

// Status reports service-level counters.
func (m *Manager) Status() types.StatusResponse {
	models := m.store.Models()
	var local, warehouse int
	for _, rec := range models {
		if rec.Tier == types.TierLocal {
			local++
		} else {
			warehouse++
		}
	}
	m.mu.Lock()
	scanning := m.scanning
	last := m.lastScan
	m.mu.Unlock()
	return types.StatusResponse{
		Models:          len(models),
		LocalModels:     local,
		WarehouseModels: warehouse,
		Workflows:       len(m.store.Workflows()),
		Scanning:        scanning,
		LastScan:        last,
		UptimeSeconds:   int64(time.Since(m.start).Seconds()),
		ServerTimeUnix:  time.Now().Unix(),
	}
}
