package batch

import (
	"errors"
	"fmt"
)

// ErrAlreadyRan rejects reuse of a Pipeline. One Pipeline owns the state of
// exactly one run.
var ErrAlreadyRan = errors.New("pipeline has already run")

// Kind classifies a per-item failure. Every failure the batch swallows is one
// of these; an unclassified error cannot leave the item boundary.
type Kind int

const (
	// KindMissingFile marks a source that vanished or became unreadable
	// between enumeration and processing.
	KindMissingFile Kind = iota + 1
	// KindDecode marks a file that exists but is not a valid or supported image.
	KindDecode
	// KindInference marks a detector failure or timeout.
	KindInference
	// KindEncode marks a destination that could not be written.
	KindEncode
	// KindInvalidDetection marks a detector response that violated the
	// detection contract.
	KindInvalidDetection
)

func (k Kind) String() string {
	switch k {
	case KindMissingFile:
		return "missing_file"
	case KindDecode:
		return "decode"
	case KindInference:
		return "inference"
	case KindEncode:
		return "encode"
	case KindInvalidDetection:
		return "invalid_detection"
	default:
		return "unknown"
	}
}

// ItemError is the failure record for a single batch item.
type ItemError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
