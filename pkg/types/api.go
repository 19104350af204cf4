package types

// ModelsResponse wraps the list of indexed model files returned by GET /models.
type ModelsResponse struct {
	// Indexed model files.
	Models []ModelFile `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// VerifyRequest selects the validation level for POST /models/{digest}/verify.
type VerifyRequest struct {
	// Validation level: quick (existence + size), standard (partial digest),
	// full (complete digest).
	// example: standard
	Level string `json:"level" example:"standard"`
}

// VerifyResponse reports a validation outcome.
type VerifyResponse struct {
	// Whether the on-disk bytes matched the record at the requested level.
	// example: true
	Valid bool `json:"valid" example:"true"`
	// Mismatch reason when Valid is false (size-mismatch, digest-mismatch, ...).
	Reason string `json:"reason,omitempty"`
	// Expected value (size or digest) when Valid is false.
	Expected string `json:"expected,omitempty"`
	// Actual value observed on disk when Valid is false.
	Actual string `json:"actual,omitempty"`
}

// IdentifyResponse carries the canonical full digest computed by
// POST /models/{digest}/identify.
type IdentifyResponse struct {
	// Full-content SHA-256, the key for remote catalog lookups.
	FullDigest string `json:"full_digest"`
}

// RegisterWorkflowRequest registers a workflow graph document by path.
type RegisterWorkflowRequest struct {
	// Path to the workflow graph JSON document.
	// example: /srv/workflows/flux-portrait.json
	Path string `json:"path" example:"/srv/workflows/flux-portrait.json"`
	// Optional display name; defaults to the filename.
	Name string `json:"name,omitempty"`
}

// WorkflowsResponse wraps the registered workflows for GET /workflows.
type WorkflowsResponse struct {
	Workflows []WorkflowDescriptor `json:"workflows"`
}

// WorkflowDetailResponse is one workflow with its dependency rows from the
// last resolution, returned by GET /workflows/{id}.
type WorkflowDetailResponse struct {
	Workflow     WorkflowDescriptor    `json:"workflow"`
	Dependencies []DependencyReference `json:"dependencies"`
}

// ResolveResponse is the outcome of POST /workflows/{id}/resolve.
type ResolveResponse struct {
	Workflow     WorkflowDescriptor    `json:"workflow"`
	Dependencies []DependencyReference `json:"dependencies"`
	Estimate     VRAMEstimate          `json:"estimate"`
	// Non-fatal extraction warnings (skipped nodes).
	Warnings []string `json:"warnings,omitempty"`
}

// ScanResponse summarizes one scan pass over the configured roots.
type ScanResponse struct {
	// Files examined during the pass.
	// example: 142
	Scanned int `json:"scanned" example:"142"`
	// New or updated inventory records.
	// example: 7
	Indexed int `json:"indexed" example:"7"`
	// Files whose records degraded to invalid.
	Invalid int `json:"invalid"`
	// Records soft-marked missing because their path disappeared.
	Missing int `json:"missing"`
	// Wall-clock duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Total inventory records.
	// example: 142
	Models int `json:"models" example:"142"`
	// Records on local tier.
	LocalModels int `json:"local_models"`
	// Records on warehouse tier.
	WarehouseModels int `json:"warehouse_models"`
	// Registered workflows.
	Workflows int `json:"workflows"`
	// Whether a scan pass is currently running.
	Scanning bool `json:"scanning"`
	// Last completed scan summary, if any.
	LastScan *ScanResponse `json:"last_scan,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}
