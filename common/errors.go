package common

import "github.com/juju/errors"

const (
	// ErrMalformed is returned when a buffer ends before a field completes.
	ErrMalformed = errors.ConstError("malformed message")

	// ErrUnknownMessageType is returned for a type byte that names no request.
	ErrUnknownMessageType = errors.ConstError("unknown message type")
)
