package identity

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Level selects how much I/O a validation pass is allowed to spend.
type Level string

const (
	// LevelQuick checks existence and exact byte size only.
	LevelQuick Level = "quick"
	// LevelStandard additionally recomputes the partial digest.
	LevelStandard Level = "standard"
	// LevelFull recomputes the full digest.
	LevelFull Level = "full"
)

// ParseLevel maps a user-supplied string to a Level, defaulting to standard.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelQuick, LevelStandard, LevelFull:
		return Level(s)
	default:
		return LevelStandard
	}
}

// minRealFileBytes rejects files too small to be a real weight file.
const minRealFileBytes = 1024

// Expectation carries the recorded values a file is validated against.
type Expectation struct {
	SizeBytes     int64
	PartialDigest string
	FullDigest    string
}

// Mismatch is a structured validation failure: which check failed and the
// expected vs. actual values, never a bare boolean.
type Mismatch struct {
	Path     string
	Reason   string
	Expected string
	Actual   string
}

func (e *Mismatch) Error() string {
	return fmt.Sprintf("validation of %s failed: %s (expected %s, got %s)", e.Path, e.Reason, e.Expected, e.Actual)
}

// AsMismatch unwraps err into a *Mismatch when the failure was a
// size/digest disagreement rather than an I/O error.
func AsMismatch(err error) (*Mismatch, bool) {
	var m *Mismatch
	ok := errors.As(err, &m)
	return m, ok
}

// Validate checks the file at path against want at the given level. It
// returns nil when everything checked out, a *Mismatch when the bytes
// disagree with the record, and an ordinary error for I/O failures.
func Validate(path string, want Expectation, level Level) error {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Mismatch{Path: path, Reason: "file missing", Expected: "present", Actual: "absent"}
		}
		return err
	}
	if fi.Size() < minRealFileBytes {
		return &Mismatch{
			Path:     path,
			Reason:   "file too small to be a real model",
			Expected: ">= " + strconv.Itoa(minRealFileBytes) + " bytes",
			Actual:   strconv.FormatInt(fi.Size(), 10) + " bytes",
		}
	}
	if want.SizeBytes > 0 && fi.Size() != want.SizeBytes {
		return &Mismatch{
			Path:     path,
			Reason:   "size mismatch",
			Expected: strconv.FormatInt(want.SizeBytes, 10),
			Actual:   strconv.FormatInt(fi.Size(), 10),
		}
	}
	if level == LevelQuick {
		return nil
	}

	if level == LevelStandard {
		if want.PartialDigest == "" {
			return nil
		}
		got, err := PartialDigest(path)
		if err != nil {
			return err
		}
		if got != want.PartialDigest {
			return &Mismatch{Path: path, Reason: "partial digest mismatch", Expected: want.PartialDigest, Actual: got}
		}
		return nil
	}

	if want.FullDigest == "" {
		return nil
	}
	got, err := FullDigest(path)
	if err != nil {
		return err
	}
	if got != want.FullDigest {
		return &Mismatch{Path: path, Reason: "full digest mismatch", Expected: want.FullDigest, Actual: got}
	}
	return nil
}
