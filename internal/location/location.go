// Package location defines the position-source contract consumed by the
// session controller: a single latest fix, a closed error taxonomy, and a
// staleness policy deciding when a cached fix must be re-requested.
package location

import (
	"context"
	"fmt"
	"time"

	"geoattend-backend/internal/geo"
)

// Code classifies why a position request failed.
type Code string

const (
	CodePermissionDenied    Code = "PERMISSION_DENIED"
	CodePositionUnavailable Code = "POSITION_UNAVAILABLE"
	CodeTimeout             Code = "TIMEOUT"
	CodeUnsupported         Code = "UNSUPPORTED"
)

// Error is a classified position failure.
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

// Errf builds a classified error with a formatted message.
func Errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidCode reports whether s names one of the defined failure codes.
func ValidCode(s string) bool {
	switch Code(s) {
	case CodePermissionDenied, CodePositionUnavailable, CodeTimeout, CodeUnsupported:
		return true
	}
	return false
}

// Fix is one observed position.
type Fix struct {
	Coord      geo.Coordinate
	ObservedAt time.Time
}

// Source produces position fixes. Implementations do not retry; the
// caller decides whether and when to re-request.
type Source interface {
	Current(ctx context.Context) (Fix, error)
}

// Clock is the time source used for staleness checks.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Watcher caches the latest fix from a Source and applies a staleness
// tolerance: a cached fix older than MaxAge is discarded and a fresh one
// requested. MaxAge zero means every call goes to the source.
type Watcher struct {
	source Source
	maxAge time.Duration
	clock  Clock

	last    *Fix
	lastErr *Error
}

// NewWatcher wraps src with the given staleness tolerance.
func NewWatcher(src Source, maxAge time.Duration) *Watcher {
	return &Watcher{source: src, maxAge: maxAge, clock: realClock{}}
}

// Current returns a fix no older than the watcher's tolerance, requesting
// a fresh one from the source when the cache is empty or stale. A source
// failure is recorded and returned; the previous fix stays cached but is
// never silently served in its place.
func (w *Watcher) Current(ctx context.Context) (Fix, error) {
	if w.last != nil && w.maxAge > 0 && w.clock.Now().Sub(w.last.ObservedAt) <= w.maxAge {
		return *w.last, nil
	}

	fix, err := w.source.Current(ctx)
	if err != nil {
		w.lastErr = classify(err)
		return Fix{}, w.lastErr
	}
	w.last = &fix
	w.lastErr = nil
	return fix, nil
}

// LastError returns the most recent classified failure, or nil after a
// successful request.
func (w *Watcher) LastError() *Error { return w.lastErr }

// FreshEnough reports whether an observation taken at observedAt is within
// tolerance of now. Zero tolerance means the source itself was required to
// request a fresh fix, so the observation is taken at face value.
func FreshEnough(observedAt, now time.Time, tolerance time.Duration) bool {
	if tolerance <= 0 {
		return true
	}
	return now.Sub(observedAt) <= tolerance
}

func classify(err error) *Error {
	if le, ok := err.(*Error); ok {
		return le
	}
	if err == context.DeadlineExceeded {
		return &Error{Code: CodeTimeout, Message: err.Error()}
	}
	return &Error{Code: CodePositionUnavailable, Message: err.Error()}
}
