package model

import "errors"

// ErrUnknownBackendKind is returned when a backend kind name or value is
// neither Oxen nor Tor.
var ErrUnknownBackendKind = errors.New("unknown backend kind")
