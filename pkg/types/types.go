package types

// ClassifierResult is the outcome of classifying one weight file.
type ClassifierResult struct {
	Type         ModelType    `json:"type"`
	Architecture Architecture `json:"architecture"`
	Precision    Precision    `json:"precision"`
	Confidence   Confidence   `json:"confidence"`
}

// VRAMEstimate is the memory-budget projection for one dependency set.
type VRAMEstimate struct {
	// Final peak estimate in bytes, after overhead and margin.
	PeakBytes int64 `json:"peak_bytes"`
	// Human-readable rendering of PeakBytes.
	PeakDisplay string `json:"peak_display"`
	// Architecture whose floor was applied, if any.
	Architecture Architecture `json:"architecture,omitempty"`
	// Advisory warnings: adapter stacking, GPU-class overflow.
	Warnings []string `json:"warnings,omitempty"`
}
