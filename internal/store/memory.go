package store

import (
	"sort"
	"sync"

	"modelscan/pkg/types"
)

// MemoryStore is the in-process Store. All methods copy on read and write
// under one lock, so callers never observe a half-written record.
type MemoryStore struct {
	mu sync.RWMutex

	// models keyed by identity digest.
	models map[string]types.ModelFile
	// byPath maps last known path to identity digest.
	byPath map[string]string

	workflows map[string]types.WorkflowDescriptor
	deps      map[string][]types.DependencyReference
	nextDepID int64
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		models:    map[string]types.ModelFile{},
		byPath:    map[string]string{},
		workflows: map[string]types.WorkflowDescriptor{},
		deps:      map[string][]types.DependencyReference{},
		nextDepID: 1,
	}
}

func identityKey(m types.ModelFile) string {
	if m.FullDigest != "" {
		return m.FullDigest
	}
	return m.PartialDigest
}

// UpsertModel implements Store.
func (s *MemoryStore) UpsertModel(m types.ModelFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey(m)
	// A record first indexed by partial digest gets re-keyed once its full
	// digest is known; the partial alias stays resolvable via the record.
	if m.FullDigest != "" {
		if old, ok := s.models[m.PartialDigest]; ok && old.Path == m.Path {
			delete(s.models, m.PartialDigest)
		}
	}
	if prevKey, ok := s.byPath[m.Path]; ok && prevKey != key {
		delete(s.models, prevKey)
	}
	// Byte-identical copies on both tiers are one logical model. The local
	// copy stays the record's face regardless of which path was scanned
	// first, so tier preference survives a warehouse twin.
	if prev, ok := s.models[key]; ok && prev.Path != m.Path {
		if prev.Tier == types.TierLocal && m.Tier == types.TierWarehouse && prev.Integrity != types.IntegrityMissing {
			s.byPath[m.Path] = key
			return nil
		}
	}
	s.models[key] = m
	s.byPath[m.Path] = key
	return nil
}

// ModelByDigest implements Store.
func (s *MemoryStore) ModelByDigest(digest string) (types.ModelFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.models[digest]; ok {
		return m, true
	}
	for _, m := range s.models {
		if m.PartialDigest == digest || m.FullDigest == digest {
			return m, true
		}
	}
	return types.ModelFile{}, false
}

// ModelByPath implements Store.
func (s *MemoryStore) ModelByPath(path string) (types.ModelFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byPath[path]
	if !ok {
		return types.ModelFile{}, false
	}
	m, ok := s.models[key]
	return m, ok
}

// Models implements Store.
func (s *MemoryStore) Models() []types.ModelFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ModelFile, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// MarkMissing implements Store.
func (s *MemoryStore) MarkMissing(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byPath[path]
	if !ok {
		return false
	}
	m, ok := s.models[key]
	if !ok {
		return false
	}
	m.Integrity = types.IntegrityMissing
	s.models[key] = m
	return true
}

// SaveWorkflow implements Store.
func (s *MemoryStore) SaveWorkflow(w types.WorkflowDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[w.ID] = w
	return nil
}

// Workflow implements Store.
func (s *MemoryStore) Workflow(id string) (types.WorkflowDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	return w, ok
}

// Workflows implements Store.
func (s *MemoryStore) Workflows() []types.WorkflowDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.WorkflowDescriptor, 0, len(s.workflows))
	for _, w := range s.workflows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReplaceDependencies implements Store.
func (s *MemoryStore) ReplaceDependencies(workflowID string, deps []types.DependencyReference) ([]types.DependencyReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]types.DependencyReference, len(deps))
	for i, d := range deps {
		d.ID = s.nextDepID
		d.WorkflowID = workflowID
		s.nextDepID++
		rows[i] = d
	}
	s.deps[workflowID] = rows
	out := make([]types.DependencyReference, len(rows))
	copy(out, rows)
	return out, nil
}

// Dependencies implements Store.
func (s *MemoryStore) Dependencies(workflowID string) []types.DependencyReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.deps[workflowID]
	out := make([]types.DependencyReference, len(rows))
	copy(out, rows)
	return out
}
