package tor

import "errors"

// Relay connectivity errors.
var (
	// ErrProxyNotSOCKS5 is returned when the relay address answers but does
	// not speak SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("relay is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the relay
	// can be made. Usually tor is not running.
	ErrProxyCannotConnect = errors.New("cannot connect to Tor relay")

	// ErrProxyTimeout is returned when the relay does not answer in time.
	ErrProxyTimeout = errors.New("timeout connecting to Tor relay")

	// ErrInvalidProxyAddress is returned when the relay address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid relay address format: expected host:port")

	// ErrEmbeddedNotRunning is returned when a client is requested from an
	// embedded daemon that has not been started.
	ErrEmbeddedNotRunning = errors.New("embedded Tor daemon is not running")
)

// ProxyStatus is the outcome of probing the relay.
type ProxyStatus int

const (
	// ProxyStatusOK indicates a working SOCKS5 relay.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates something answered that is not a
	// usable SOCKS5 relay.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates the relay port is closed.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the probe timed out.
	ProxyStatusTimeout
)

// String returns a human-readable description of the status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not SOCKS5)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the error matching the status, or nil for ProxyStatusOK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown relay status")
	}
}
