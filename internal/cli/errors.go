package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates a specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrOutputWithBatch indicates -o was combined with multiple inputs.
	ErrOutputWithBatch = errors.New("-o/--output requires a single input file")

	// ErrInvalidDuration indicates a duration argument could not be parsed.
	ErrInvalidDuration = errors.New("invalid duration format")
)
