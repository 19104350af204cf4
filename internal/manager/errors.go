package manager

// modelNotFoundError: no inventory record matches the requested digest.
type modelNotFoundError struct{ digest string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.digest }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(digest string) error { return modelNotFoundError{digest: digest} }

// IsModelNotFound reports whether err indicates an unknown model digest.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// workflowNotFoundError: no registered workflow matches the requested id.
type workflowNotFoundError struct{ id string }

func (e workflowNotFoundError) Error() string { return "workflow not found: " + e.id }

// ErrWorkflowNotFound constructs a workflowNotFoundError.
func ErrWorkflowNotFound(id string) error { return workflowNotFoundError{id: id} }

// IsWorkflowNotFound reports whether err indicates an unknown workflow id.
func IsWorkflowNotFound(err error) bool {
	_, ok := err.(workflowNotFoundError)
	return ok
}

// scanBusyError signals an already-running scan pass for 409 mapping.
type scanBusyError struct{}

func (scanBusyError) Error() string { return "scan already in progress" }

// ErrScanBusy reports that a scan pass is already running.
func ErrScanBusy() error { return scanBusyError{} }

// IsScanBusy reports whether err indicates a concurrent scan attempt.
func IsScanBusy(err error) bool {
	_, ok := err.(scanBusyError)
	return ok
}
