package tor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultProxyAddress is the conventional SOCKS port of a local tor daemon.
const DefaultProxyAddress = "127.0.0.1:9050"

// checkProxyTimeout bounds the relay probe. The probe only checks the
// handshake; it never waits for a circuit to the probe target.
const checkProxyTimeout = 2 * time.Second

// probeTarget is the destination named in the probe's CONNECT request.
// Any reply, success or failure, proves the relay processed the request.
const probeTarget = "check.torproject.org"

// SOCKS5 protocol constants used by the probe.
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03
)

// Client dials through the Tor SOCKS5 relay.
type Client struct {
	proxyAddress string
	dialer       proxy.ContextDialer
}

// NewClient creates a Client for the relay at proxyAddress.
// Nothing is dialed here; use CheckConnection to verify the relay.
func NewClient(proxyAddress string) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// Tor's SOCKS port does not require authentication.
	d, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       cd,
	}, nil
}

// isValidProxyAddress reports whether address is host:port with a non-empty
// host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// ProxyAddress returns the relay address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// DialContext opens a connection to address through the relay.
// The target host name is passed to the relay unresolved, so DNS lookups
// happen on the Tor side.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := c.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("tor relay %s: %w", c.proxyAddress, err)
	}
	return conn, nil
}

// CheckConnection probes the relay with a SOCKS5 handshake followed by a
// CONNECT request and reports what it found.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Greeting: version, one method, no authentication.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return readFailureStatus(err)
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	// CONNECT: version, cmd, reserved, domain address type, length, name, port.
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeDomID, byte(len(probeTarget))}
	req = append(req, probeTarget...)
	req = append(req, 0x01, 0xBB) // 443
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		return readFailureStatus(err)
	}
	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	return ProxyStatusOK
}

// readFailureStatus maps a failed probe read to a status.
func readFailureStatus(err error) ProxyStatus {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
