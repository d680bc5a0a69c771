package session

import (
	"errors"
	"fmt"
	"net/http"

	"geoattend-backend/internal/identity"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	ErrCodeInvalidArgument       = "INVALID_ARGUMENT"
	ErrCodeNotCheckedIn          = "NOT_CHECKED_IN"
	ErrCodeAlreadyCheckedIn      = "ALREADY_CHECKED_IN"
	ErrCodeNoActiveZone          = "NO_ACTIVE_ZONE"
	ErrCodeNoPendingVerification = "NO_PENDING_VERIFICATION"
	ErrCodeVerificationAborted   = "VERIFICATION_ABORTED"
	ErrCodeUnrecognized          = "UNRECOGNIZED"
	ErrCodeInternal              = "INTERNAL"
)

func NewInvalidArgumentError(msg string) error {
	return &DomainError{Code: ErrCodeInvalidArgument, Message: msg}
}

func NewNotCheckedInError() error {
	return &DomainError{Code: ErrCodeNotCheckedIn, Message: "no check-in to check out from"}
}

func NewAlreadyCheckedInError() error {
	return &DomainError{Code: ErrCodeAlreadyCheckedIn, Message: "already checked in"}
}

func NewNoActiveZoneError() error {
	return &DomainError{Code: ErrCodeNoActiveZone, Message: "no geofence zone contains the current location"}
}

func NewNoPendingVerificationError() error {
	return &DomainError{Code: ErrCodeNoPendingVerification, Message: "no verification is pending"}
}

func NewVerificationAbortedError() error {
	return &DomainError{Code: ErrCodeVerificationAborted, Message: "active zone was lost while verification was pending"}
}

func NewUnrecognizedError() error {
	return &DomainError{Code: ErrCodeUnrecognized, Message: "face not recognized"}
}

// ToHTTPStatus maps session and verification errors onto HTTP codes.
func ToHTTPStatus(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case ErrCodeInvalidArgument:
			return http.StatusBadRequest
		case ErrCodeUnrecognized:
			return http.StatusUnauthorized
		case ErrCodeNotCheckedIn, ErrCodeAlreadyCheckedIn, ErrCodeNoActiveZone,
			ErrCodeNoPendingVerification, ErrCodeVerificationAborted:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}

	var ve *identity.Error
	if errors.As(err, &ve) {
		switch ve.Code {
		case identity.CodeModelNotReady:
			return http.StatusServiceUnavailable
		default:
			return http.StatusUnprocessableEntity
		}
	}

	return http.StatusInternalServerError
}

// ErrorCode extracts the machine-readable code for a response body.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var ve *identity.Error
	if errors.As(err, &ve) {
		return string(ve.Code)
	}
	return ErrCodeInternal
}
