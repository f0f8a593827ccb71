package captions

import "errors"

var (
	// ErrInvalidLimit indicates the requested feed limit is out of range
	ErrInvalidLimit = errors.New("feed limit must be between 1 and 100")
)
