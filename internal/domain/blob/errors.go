// Package blob holds the failure taxonomy shared by the object store drivers.
package blob

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNotFound means the key is absent in the bucket.
	KindNotFound
	// KindInvalid means the store rejected the request itself (bad key, too large, ...).
	KindInvalid
	// KindUnavailable covers throttling, timeouts and transport failures.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

const (
	OpUpload    = "upload"
	OpSignedURL = "signed_url"
	OpRemove    = "remove"
)

type Error struct {
	Op      string
	Key     string
	Kind    Kind
	Message string
	Err     error
}

func NewError(op, key string, kind Kind, err error) *Error {
	e := &Error{Op: op, Key: key, Kind: kind, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("blob %s %q (%s): %s", e.Op, e.Key, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
