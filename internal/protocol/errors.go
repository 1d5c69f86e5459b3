package protocol

import "errors"

var (
	ErrUnsupportedVersion   = errors.New("protocol: unsupported api version")
	ErrUnsupportedOperation = errors.New("protocol: unsupported operation")
	ErrBodyTypeMismatch     = errors.New("protocol: body type mismatch")
	ErrUnknownErrorDomain   = errors.New("protocol: unknown error domain")
	ErrMalformedRoot        = errors.New("protocol: malformed root response")
)
