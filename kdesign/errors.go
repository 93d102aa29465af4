package kdesign

import "errors"

// Sentinel errors for common failure cases.
var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateKey           = errors.New("duplicate key")
	ErrTypeMismatch           = errors.New("type mismatch")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrImplementationAttached = errors.New("implementation already attached")
	ErrSessionClosed          = errors.New("session closed")
	ErrBuilderFinished        = errors.New("builder already finished")
)
