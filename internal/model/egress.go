package model

// EgressMode is the upstream path the dispatcher uses for a connection.
type EgressMode int

const (
	// EgressTor sends the connection through the Tor SOCKS5 relay.
	EgressTor EgressMode = iota

	// EgressDirect opens a plain TCP connection to the target.
	EgressDirect
)

// EgressModeFromFlag maps the "tor-enabled" flag to an egress mode.
func EgressModeFromFlag(torEnabled bool) EgressMode {
	if torEnabled {
		return EgressTor
	}
	return EgressDirect
}

// String returns "tor" or "direct".
func (m EgressMode) String() string {
	switch m {
	case EgressTor:
		return "tor"
	case EgressDirect:
		return "direct"
	default:
		return "unknown"
	}
}
