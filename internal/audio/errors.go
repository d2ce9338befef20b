package audio

import "errors"

// ErrFileNotFound indicates the specified input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnsupportedFormat indicates the input has no recognized media extension.
var ErrUnsupportedFormat = errors.New("unsupported media format")

// ErrExtractionFailed indicates FFmpeg failed while preparing or slicing audio.
var ErrExtractionFailed = errors.New("audio extraction failed")
