package dataset

import "errors"

var (
	// ErrBadLayout indicates a channel payload layout string that cannot
	// be parsed into a per-sample field list.
	ErrBadLayout = errors.New("invalid payload layout")

	// ErrShortSample indicates a buffer smaller than one full sample
	// handed to a parser.
	ErrShortSample = errors.New("buffer shorter than one sample")

	// ErrArityMismatch indicates a channel whose declared sub-channel
	// count disagrees with its parser's values-per-sample count.
	ErrArityMismatch = errors.New("sub-channel count does not match parser arity")

	// ErrDuplicateID indicates a sensor or channel id registered twice
	// on the same dataset.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownSensor indicates a channel referencing a sensor id that
	// was never registered.
	ErrUnknownSensor = errors.New("unknown sensor id")

	// ErrUnknownSession indicates a session id with no matching session.
	ErrUnknownSession = errors.New("unknown session id")

	// ErrNoSamples indicates a summary request against a block that
	// holds no complete samples.
	ErrNoSamples = errors.New("block holds no complete samples")

	// ErrAxisRange indicates a sub-channel (axis) index outside the
	// channel's arity.
	ErrAxisRange = errors.New("axis index out of range")

	// ErrClosed indicates an operation against a dataset whose byte
	// source has been released.
	ErrClosed = errors.New("dataset closed")
)
