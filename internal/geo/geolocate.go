// Package geo turns a cancellable position-watch primitive into a one-shot
// coordinate acquisition. The underlying watcher keeps emitting fixes until
// cancelled; Acquire takes the first fix, tears the watch down and returns.
package geo

import (
	"context"
	"errors"
	"time"
)

// Fix is one resolved position.
type Fix struct {
	Lat      float64
	Lon      float64
	Accuracy float64 // meters; 0 when the source does not report it
}

// ErrorCode classifies acquisition failures.
type ErrorCode int

const (
	CodeUnknown ErrorCode = iota
	CodeUnsupported
	CodePermissionDenied
	CodePositionUnavailable
	CodeTimeout
)

// Error is a position-acquisition failure with a user-facing message.
type Error struct {
	Code ErrorCode
}

func (e *Error) Error() string { return e.Message() }

// Message returns the text shown to the user for this failure.
func (e *Error) Message() string {
	switch e.Code {
	case CodeUnsupported:
		return "Geolocation is not supported by your browser."
	case CodePermissionDenied:
		return "Location access was denied. Please enable location services in your browser settings."
	case CodePositionUnavailable:
		return "Location information is unavailable. Please check your network connection."
	case CodeTimeout:
		return "The request to get your location timed out. Please try again."
	default:
		return "An unknown error occurred while fetching your location."
	}
}

// Options mirrors the position-source knobs.
type Options struct {
	// HighAccuracy requests the best fix the source can produce.
	HighAccuracy bool
	// Timeout bounds how long to wait for the first fix.
	Timeout time.Duration
	// MaxAge is the oldest cached fix the source may return. Zero means a
	// cached fix is never acceptable.
	MaxAge time.Duration
}

// DefaultOptions matches the dashboard's acquisition policy: high accuracy,
// ten seconds, no cached fixes.
func DefaultOptions() Options {
	return Options{HighAccuracy: true, Timeout: 10 * time.Second}
}

// Watcher is a cancellable subscription to position updates. Watch streams
// fixes to onFix and failures to onErr until the returned cancel func runs.
// Supported reports whether the host can produce positions at all.
type Watcher interface {
	Supported() bool
	Watch(opts Options, onFix func(Fix), onErr func(*Error)) (cancel func())
}

// Acquire resolves the current position exactly once. An unsupported
// watcher fails immediately without starting a watch; otherwise the first
// fix wins and the watch is cancelled. Context cancellation tears the watch
// down and returns ctx.Err().
func Acquire(ctx context.Context, w Watcher, opts Options) (Fix, error) {
	if !w.Supported() {
		return Fix{}, &Error{Code: CodeUnsupported}
	}

	fixes := make(chan Fix, 1)
	errs := make(chan *Error, 1)
	cancel := w.Watch(opts,
		func(f Fix) {
			select {
			case fixes <- f:
			default:
			}
		},
		func(e *Error) {
			select {
			case errs <- e:
			default:
			}
		},
	)
	defer cancel()

	select {
	case f := <-fixes:
		return f, nil
	case e := <-errs:
		return Fix{}, e
	case <-ctx.Done():
		return Fix{}, ctx.Err()
	}
}

// IsGeoError extracts the typed acquisition error, if any.
func IsGeoError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
