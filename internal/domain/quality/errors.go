package quality

import "errors"

// Sentinel kinds for quality errors.
var (
	ErrUnknownTier = errors.New("unknown quality tier")
)
