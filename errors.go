package fetchpool

import "errors"

const Namespace = "fetchpool"

var (
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrCancelled     = errors.New(Namespace + ": batch cancelled")
	ErrFetchPanicked = errors.New(Namespace + ": fetch panicked")
)
