package sampling

import "errors"

// Sampling errors.
var (
	// ErrInvalidConfiguration is returned before processing when a window size,
	// tick count or threshold is not positive, or a unit/policy is unknown.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMalformedInput is returned when a trade is missing or carries an unusable
	// timestamp, price or volume, or when trades are not in timestamp order.
	ErrMalformedInput = errors.New("malformed input")
)
