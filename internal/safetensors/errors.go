package safetensors

import "fmt"

// notFoundError indicates the container file does not exist or is unreadable.
type notFoundError struct {
	path string
	err  error
}

func (e notFoundError) Error() string { return fmt.Sprintf("model file not found: %s: %v", e.path, e.err) }
func (e notFoundError) Unwrap() error { return e.err }

// IsNotFound reports whether err indicates a missing container file.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// corruptHeaderError indicates an implausible header length or undecodable
// header JSON. Downstream treats it as "cannot classify, mark file invalid".
type corruptHeaderError struct {
	path   string
	reason string
}

func (e corruptHeaderError) Error() string {
	return fmt.Sprintf("corrupt header in %s: %s", e.path, e.reason)
}

// IsCorruptHeader reports whether err indicates a corrupt container header.
func IsCorruptHeader(err error) bool {
	_, ok := err.(corruptHeaderError)
	return ok
}
