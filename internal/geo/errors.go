package geo

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrUnsupported is returned when the device has no position source
var ErrUnsupported = errors.New("geolocation is not supported on this device")

// ErrorKind classifies position acquisition failures
type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "permission-denied"
	KindPositionUnavailable ErrorKind = "position-unavailable"
	KindTimeout             ErrorKind = "timeout"
	KindUnknown             ErrorKind = "unknown"
)

var kindMessages = map[ErrorKind]string{
	KindPermissionDenied:    "Location access was denied. Allow location access for this app in your device settings, then start tracking again.",
	KindPositionUnavailable: "Your location is currently unavailable. Check that location services are turned on.",
	KindTimeout:             "Getting your location took too long. Tracking has stopped; start it again to retry.",
	KindUnknown:             "An unknown error occurred while getting your location.",
}

// PositionError is the single error type a Watcher hands to its caller
type PositionError struct {
	Kind ErrorKind
	Err  error
}

// NewPositionError wraps err with an explicit kind
func NewPositionError(kind ErrorKind, err error) *PositionError {
	return &PositionError{Kind: kind, Err: err}
}

func (e *PositionError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

// Message is the user-facing explanation for the error kind
func (e *PositionError) Message() string {
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

// Classify maps any source error onto one of the four kinds
func Classify(err error) *PositionError {
	var pe *PositionError
	if errors.As(err, &pe) {
		if _, known := kindMessages[pe.Kind]; !known {
			return &PositionError{Kind: KindUnknown, Err: pe.Err}
		}
		return pe
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return NewPositionError(KindPermissionDenied, err)
	case errors.Is(err, os.ErrNotExist):
		return NewPositionError(KindPositionUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return NewPositionError(KindTimeout, err)
	}
	return NewPositionError(KindUnknown, err)
}
