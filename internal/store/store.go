// Package store is the boundary to the external record store. The core
// never sees the storage engine; it programs against this interface and the
// contract that a read never observes a partially written record.
package store

import "modelscan/pkg/types"

// Store persists inventory and workflow records.
type Store interface {
	// UpsertModel writes a model record. Records are keyed by content
	// identity (full digest when known, partial digest otherwise); an
	// upsert for a known identity replaces the record.
	UpsertModel(m types.ModelFile) error
	// ModelByDigest looks a record up by full or partial digest.
	ModelByDigest(digest string) (types.ModelFile, bool)
	// ModelByPath looks a record up by its last known path.
	ModelByPath(path string) (types.ModelFile, bool)
	// Models returns a stable-ordered copy of all records.
	Models() []types.ModelFile
	// MarkMissing soft-marks the record at path; it stays addressable so
	// dependency references keep a valid target.
	MarkMissing(path string) bool

	// SaveWorkflow writes a workflow descriptor.
	SaveWorkflow(w types.WorkflowDescriptor) error
	// Workflow returns one workflow by id.
	Workflow(id string) (types.WorkflowDescriptor, bool)
	// Workflows returns a stable-ordered copy of all workflows.
	Workflows() []types.WorkflowDescriptor
	// ReplaceDependencies drops every dependency row owned by the workflow
	// and writes the given set in its place, assigning fresh row ids.
	// Rescans regenerate wholesale; there is no incremental diffing.
	ReplaceDependencies(workflowID string, deps []types.DependencyReference) ([]types.DependencyReference, error)
	// Dependencies returns the rows owned by the workflow.
	Dependencies(workflowID string) []types.DependencyReference
}
