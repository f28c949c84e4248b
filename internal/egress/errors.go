package egress

import "errors"

var (
	// ErrReadFlag is returned when the flag file exists but cannot be read.
	ErrReadFlag = errors.New("failed to read egress flag")

	// ErrWriteFlag is returned when the flag file cannot be written.
	ErrWriteFlag = errors.New("failed to write egress flag")
)
