package dispatcher

import "errors"

// Protocol errors. All of them end the connection without a response.
var (
	// ErrHeaderTooLarge is returned when the request header exceeds
	// MaxHeaderSize bytes without reaching the blank line.
	ErrHeaderTooLarge = errors.New("request header too large")

	// ErrClientClosed is returned when the client hangs up before the
	// header is complete.
	ErrClientClosed = errors.New("client closed before sending request")

	// ErrEmptyRequest is returned when the request line is blank.
	ErrEmptyRequest = errors.New("empty request")

	// ErrMissingTarget is returned for a CONNECT request without a target.
	ErrMissingTarget = errors.New("CONNECT request without target")
)
