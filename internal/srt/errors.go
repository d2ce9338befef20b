package srt

import "errors"

// ErrMalformedBlock indicates a subtitle block missing a valid timestamp
// line. The offending block is skipped; the rest of the content parses.
var ErrMalformedBlock = errors.New("malformed subtitle block")
