package errorsx

import (
	"errors"
	"fmt"
)

// KindedError pairs an error with a failure kind.
type KindedError struct {
	Err  error
	Kind Kind
}

func (e KindedError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e KindedError) Unwrap() error {
	return e.Err
}

// E builds a new kinded error from a format string.
func E(kind Kind, format string, args ...any) error {
	return KindedError{Err: fmt.Errorf(format, args...), Kind: kind}
}

// Wrap attaches a kind to an error (no-op if err is nil or already kinded).
func Wrap(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return err
	}
	return KindedError{Err: err, Kind: kind}
}

// KindOf extracts the kind from an error, if present.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
