package config

import "errors"

// Configuration errors. Validate returns the first one it finds, wrapped
// with the offending value.
var (
	// ErrConfigNotFound is returned when no configuration file exists.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfig is returned when the file cannot be decoded.
	ErrInvalidConfig = errors.New("invalid configuration file")

	// ErrInvalidListenAddress is returned for a listen address that is not host:port.
	ErrInvalidListenAddress = errors.New("invalid listen address: must be host:port")

	// ErrInvalidTorProxy is returned for a Tor proxy address that is not host:port.
	ErrInvalidTorProxy = errors.New("invalid tor proxy address: must be host:port")

	// ErrEmptyFlagFile is returned when egress.flag_file is blank.
	ErrEmptyFlagFile = errors.New("egress flag file must not be empty")

	// ErrInvalidStartupTimeout is returned when the embedded tor startup timeout is not positive.
	ErrInvalidStartupTimeout = errors.New("invalid tor startup timeout: must be positive")
)
