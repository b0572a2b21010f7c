package colored

import "errors"

var (
	// ErrInvalidArgument is returned by New when a size parameter is out of range.
	ErrInvalidArgument = errors.New("colored: invalid argument")

	// ErrCorrupted is the panic value (wrapped) raised when eviction finds
	// no live entry in any bucket while the cache reports itself full.
	ErrCorrupted = errors.New("colored: structure corrupted")
)
