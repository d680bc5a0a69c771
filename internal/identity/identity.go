// Package identity is the client side of the face-match service that gates
// check-ins. The matcher itself is an external collaborator; this package
// only defines the contract and the HTTP transport for it.
package identity

import (
	"context"
	"fmt"
)

// LabelUnknown is returned when the service found a face but no reference
// identity matched within its distance threshold.
const LabelUnknown = "unknown"

// Match is a successful verification result. Label may be LabelUnknown.
type Match struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
}

// Recognized reports whether the match names a known identity.
func (m Match) Recognized() bool {
	return m.Label != "" && m.Label != LabelUnknown
}

// Code classifies verification failures.
type Code string

const (
	CodeNoFaceDetected  Code = "NO_FACE_DETECTED"
	CodeModelNotReady   Code = "MODEL_NOT_READY"
	CodeNoReferenceData Code = "NO_REFERENCE_DATA"
)

// Error is a classified verification failure. It never mutates session
// state; callers stay in their pending state and may retry.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Verifier matches a captured image against the reference set.
type Verifier interface {
	Verify(ctx context.Context, image []byte) (Match, error)
}
