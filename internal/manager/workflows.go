package manager

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"modelscan/internal/resolve"
	"modelscan/internal/vram"
	"modelscan/internal/workflow"
	"modelscan/pkg/types"
)

// RegisterWorkflow records a graph document by path. The document is read
// once up front so an unreadable file fails registration immediately;
// dependency extraction waits for the first resolve.
func (m *Manager) RegisterWorkflow(path, name string) (types.WorkflowDescriptor, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return types.WorkflowDescriptor{}, err
	}
	if name == "" {
		name = filepath.Base(path)
	}
	w := types.WorkflowDescriptor{
		ID:     uuid.NewString(),
		Path:   path,
		Name:   name,
		Status: types.WorkflowNew,
		Graph:  doc,
	}
	if err := m.store.SaveWorkflow(w); err != nil {
		return types.WorkflowDescriptor{}, err
	}
	m.log.Info().Str("id", w.ID).Str("path", path).Msg("workflow registered")
	return w, nil
}

// Workflows lists the registered workflows.
func (m *Manager) Workflows() []types.WorkflowDescriptor {
	return m.store.Workflows()
}

// Workflow returns one workflow with its dependency rows.
func (m *Manager) Workflow(id string) (types.WorkflowDescriptor, []types.DependencyReference, error) {
	w, ok := m.store.Workflow(id)
	if !ok {
		return types.WorkflowDescriptor{}, nil, ErrWorkflowNotFound(id)
	}
	return w, m.store.Dependencies(id), nil
}

// ResolveWorkflow re-reads the graph, extracts its declared dependencies,
// resolves them against the current inventory, estimates peak VRAM, and
// persists everything. Dependency rows are regenerated wholesale. Only a
// wholly unreadable graph fails the workflow; the failure is persisted as
// status=error rather than silently dropped.
func (m *Manager) ResolveWorkflow(id string) (types.ResolveResponse, error) {
	w, ok := m.store.Workflow(id)
	if !ok {
		return types.ResolveResponse{}, ErrWorkflowNotFound(id)
	}

	doc, err := os.ReadFile(w.Path)
	if err != nil {
		// Keep the last good payload but surface the state.
		w.Status = types.WorkflowError
		_ = m.store.SaveWorkflow(w)
		return types.ResolveResponse{}, err
	}
	w.Graph = doc

	ex, err := workflow.Extract(doc)
	if err != nil {
		w.Status = types.WorkflowError
		_ = m.store.SaveWorkflow(w)
		m.log.Warn().Str("id", id).Err(err).Msg("workflow graph unreadable")
		return types.ResolveResponse{}, err
	}

	idx := resolve.NewIndex(m.store.Models())
	deps, sum := idx.ResolveAll(ex.Dependencies)

	// The resolved checkpoint pins the workflow's architecture; auxiliary
	// references are then re-checked for compatibility against it.
	if arch := resolvedArchitecture(m, deps); arch != types.ArchUnknown {
		changed := false
		for i := range deps {
			switch deps[i].ModelType {
			case types.TypeLora, types.TypeControlNet:
				if deps[i].ExpectedArchitecture == "" {
					deps[i].ExpectedArchitecture = arch
					changed = true
				}
			}
		}
		if changed {
			deps, sum = idx.ResolveAll(deps)
		}
	}

	est := vram.Estimate(estimateItems(m, deps))

	w.Status = sum.Status
	w.TotalCount = sum.Total
	w.LocalCount = sum.Local
	w.WarehouseCount = sum.Warehouse
	w.MissingCount = sum.Missing
	w.TotalSizeBytes = sum.TotalSizeBytes
	w.EstimatedVRAMBytes = est.PeakBytes
	w.Warnings = est.Warnings

	rows, err := m.store.ReplaceDependencies(id, deps)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	if err := m.store.SaveWorkflow(w); err != nil {
		return types.ResolveResponse{}, err
	}

	m.log.Info().
		Str("id", id).
		Str("status", string(w.Status)).
		Int("total", sum.Total).
		Int("missing", sum.Missing).
		Str("vram", est.PeakDisplay).
		Msg("workflow resolved")

	return types.ResolveResponse{
		Workflow:     w,
		Dependencies: rows,
		Estimate:     est,
		Warnings:     ex.Warnings,
	}, nil
}

// resolvedArchitecture picks the architecture of the first confidently
// classified checkpoint-class resolution.
func resolvedArchitecture(m *Manager, deps []types.DependencyReference) types.Architecture {
	for _, d := range deps {
		if d.ModelType != types.TypeCheckpoint && d.ModelType != types.TypeUNet {
			continue
		}
		if d.ResolvedDigest == "" {
			continue
		}
		rec, ok := m.store.ModelByDigest(d.ResolvedDigest)
		if !ok || rec.Architecture == types.ArchUnknown || rec.Confidence == types.ConfidenceLow {
			continue
		}
		return rec.Architecture
	}
	return types.ArchUnknown
}

// estimateItems converts dependency rows into estimator input: real record
// attributes when resolved, declared type plus the size estimate otherwise.
func estimateItems(m *Manager, deps []types.DependencyReference) []vram.Item {
	items := make([]vram.Item, 0, len(deps))
	for _, d := range deps {
		it := vram.Item{
			Type:         d.ModelType,
			Precision:    types.PrecisionUnknown,
			Architecture: d.ExpectedArchitecture,
			SizeBytes:    d.EstimatedSizeBytes,
		}
		if d.ResolvedDigest != "" {
			if rec, ok := m.store.ModelByDigest(d.ResolvedDigest); ok {
				it.Precision = rec.Precision
				it.SizeBytes = rec.SizeBytes
				if rec.Architecture != types.ArchUnknown {
					it.Architecture = rec.Architecture
				}
			}
		}
		items = append(items, it)
	}
	return items
}
