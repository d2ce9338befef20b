package plan

import "errors"

// ErrInvalidDuration indicates the media duration is zero or negative.
// This is the only fatal planning error: no windows can be computed.
var ErrInvalidDuration = errors.New("invalid media duration")

// ErrUnknownStrategy indicates an unrecognized chunking strategy name.
var ErrUnknownStrategy = errors.New("unknown chunking strategy")
