package types

// ModelType is the functional role of a weight file inside a workflow.
type ModelType string

const (
	TypeCheckpoint ModelType = "checkpoint"
	TypeLora       ModelType = "lora"
	TypeVAE        ModelType = "vae"
	TypeControlNet ModelType = "controlnet"
	TypeCLIP       ModelType = "clip"
	TypeUNet       ModelType = "unet"
	TypeUpscaler   ModelType = "upscaler"
	TypeEmbedding  ModelType = "embedding"
	TypeUnknown    ModelType = "unknown"
)

// Architecture is the structural lineage of a model. It determines which
// auxiliary components (loras, controlnets, encoders) are compatible with it.
type Architecture string

const (
	ArchSD15    Architecture = "sd15"
	ArchSD20    Architecture = "sd20"
	ArchSDXL    Architecture = "sdxl"
	ArchSD3     Architecture = "sd3"
	ArchFlux    Architecture = "flux"
	ArchLTXV    Architecture = "ltxv"
	ArchHunyuan Architecture = "hunyuan-video"
	ArchWan     Architecture = "wan"
	ArchUnknown Architecture = "unknown"
)

// Precision is the numeric storage format of the tensor payload.
type Precision string

const (
	PrecisionFP32    Precision = "fp32"
	PrecisionFP16    Precision = "fp16"
	PrecisionBF16    Precision = "bf16"
	PrecisionFP8     Precision = "fp8"
	PrecisionQ8      Precision = "q8"
	PrecisionQ4      Precision = "q4"
	PrecisionUnknown Precision = "unknown"
)

// Confidence grades how strong the classification signal was.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// StorageTier is the location class of a file: fast local disk vs. bulk
// warehouse storage.
type StorageTier string

const (
	TierLocal     StorageTier = "local"
	TierWarehouse StorageTier = "warehouse"
)

// IntegrityStatus tracks whether the on-disk bytes still match the record.
type IntegrityStatus string

const (
	IntegrityOK      IntegrityStatus = "ok"
	IntegrityInvalid IntegrityStatus = "invalid"
	// IntegrityMissing marks a record whose path disappeared from disk.
	// Records are soft-marked rather than deleted so dependency references
	// keep a valid target; a rescan of identical bytes clears the mark.
	IntegrityMissing IntegrityStatus = "missing"
)

// ModelFile is one indexed weight file. Identity is the full content digest:
// two files sharing FullDigest are the same logical model regardless of name
// or location. Filenames never contribute to identity.
type ModelFile struct {
	// Canonical identity: lowercase hex SHA-256 of the whole file. May be
	// empty until a full digest has been computed; PartialDigest is always set.
	FullDigest string `json:"full_digest,omitempty"`
	// Fast digest over bounded head/tail windows plus the byte length.
	PartialDigest string `json:"partial_digest"`
	// Absolute path to the file on disk.
	// example: /srv/models/checkpoints/flux1-dev-fp8.safetensors
	Path string `json:"path" example:"/srv/models/checkpoints/flux1-dev-fp8.safetensors"`
	// Human-friendly name, enriched from a remote catalog when available;
	// defaults to the filename.
	DisplayName string `json:"display_name,omitempty"`
	// Storage tier the path lives on.
	// example: local
	Tier StorageTier `json:"tier" example:"local"`
	// File size in bytes.
	// example: 17246000000
	SizeBytes int64 `json:"size_bytes" example:"17246000000"`

	Type         ModelType       `json:"type"`
	Architecture Architecture    `json:"architecture"`
	Precision    Precision       `json:"precision"`
	Confidence   Confidence      `json:"confidence"`
	Integrity    IntegrityStatus `json:"integrity"`

	// Embedded header metadata, split by namespace at the parse boundary.
	TrainingMeta map[string]string `json:"training_meta,omitempty"`
	SpecMeta     map[string]string `json:"spec_meta,omitempty"`
	// Trigger words recovered from the training tag-frequency table.
	TriggerWords []string `json:"trigger_words,omitempty"`
}

// Filename returns the base name of the file's path.
func (m ModelFile) Filename() string {
	p := m.Path
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[i+1:]
		}
	}
	return p
}

// WorkflowStatus is the aggregate readiness of a workflow's dependency set.
type WorkflowStatus string

const (
	WorkflowNew WorkflowStatus = "new"
	// WorkflowMissingItems: at least one dependency has no inventory match.
	WorkflowMissingItems WorkflowStatus = "missing-items"
	// WorkflowError: the graph document was unreadable, or resolution hit a
	// state the status rules do not cover.
	WorkflowError WorkflowStatus = "error"
	// WorkflowReadyLocal: everything resolved, at least one hit on local tier.
	WorkflowReadyLocal WorkflowStatus = "ready-local"
	// WorkflowReadyWarehouse: everything resolved, all hits on warehouse tier.
	WorkflowReadyWarehouse WorkflowStatus = "ready-warehouse"
)

// WorkflowDescriptor is one registered workflow document and the aggregate
// outcome of its last dependency resolution.
type WorkflowDescriptor struct {
	// Generated identity, stable across rescans.
	ID string `json:"id"`
	// Source path of the graph document.
	Path string `json:"path"`
	// Display name; defaults to the filename.
	Name string `json:"name"`

	Status WorkflowStatus `json:"status"`

	// Aggregate dependency counts from the last resolution.
	TotalCount     int `json:"total_count"`
	LocalCount     int `json:"local_count"`
	WarehouseCount int `json:"warehouse_count"`
	MissingCount   int `json:"missing_count"`

	// Sum of resolved (or estimated, for missing items) sizes in bytes.
	TotalSizeBytes int64 `json:"total_size_bytes"`
	// Estimated peak GPU memory to run this workflow, in bytes.
	EstimatedVRAMBytes int64 `json:"estimated_vram_bytes"`
	// Estimator warnings (stacking, GPU-class overflow).
	Warnings []string `json:"warnings,omitempty"`

	// Raw graph payload as last read from disk.
	Graph []byte `json:"-"`
}

// ResolutionState labels the outcome of matching one dependency reference.
type ResolutionState string

const (
	ResolutionUnresolved   ResolutionState = "unresolved"
	ResolutionLocal        ResolutionState = "resolved-local"
	ResolutionWarehouse    ResolutionState = "resolved-warehouse"
	ResolutionMissing      ResolutionState = "missing"
	ResolutionAmbiguous    ResolutionState = "ambiguous"
	ResolutionIncompatible ResolutionState = "incompatible"
)

// DependencyReference is one declared model need inside a workflow graph,
// exclusively owned by its workflow. Rows are regenerated wholesale on each
// rescan, never diffed.
type DependencyReference struct {
	ID         int64  `json:"id"`
	WorkflowID string `json:"workflow_id"`

	// Originating graph node.
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`

	// Declared need, verbatim from the graph.
	ModelType ModelType `json:"model_type"`
	ModelName string    `json:"model_name"`

	Status ResolutionState `json:"status"`
	// Full or partial digest of the matched ModelFile. Set iff Status is
	// resolved-local or resolved-warehouse.
	ResolvedDigest string `json:"resolved_digest,omitempty"`
	// Digests of same-tier candidates when Status is ambiguous.
	CandidateDigests []string `json:"candidate_digests,omitempty"`
	// Architecture the surrounding workflow implies, when known.
	ExpectedArchitecture Architecture `json:"expected_architecture,omitempty"`
	// Size estimate used for budgeting when the file is missing.
	EstimatedSizeBytes int64 `json:"estimated_size_bytes,omitempty"`
}
