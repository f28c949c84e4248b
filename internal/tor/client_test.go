package tor

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid address", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient(DefaultProxyAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.ProxyAddress() != DefaultProxyAddress {
			t.Errorf("ProxyAddress() = %q, expected %q", c.ProxyAddress(), DefaultProxyAddress)
		}
	})

	for _, addr := range []string{"", "127.0.0.1", ":9050", "127.0.0.1:", "127.0.0.1:0", "127.0.0.1:70000", "host:port"} {
		t.Run("invalid "+addr, func(t *testing.T) {
			t.Parallel()
			if _, err := NewClient(addr); !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("NewClient(%q): expected ErrInvalidProxyAddress, got %v", addr, err)
			}
		})
	}
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status  ProxyStatus
		text    string
		wantErr error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not SOCKS5)", ErrProxyNotSOCKS5},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tc := range testCases {
		if tc.status.String() != tc.text {
			t.Errorf("ProxyStatus(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.text)
		}
		if err := tc.status.Error(); !errors.Is(err, tc.wantErr) {
			t.Errorf("ProxyStatus(%d).Error() = %v, expected %v", tc.status, err, tc.wantErr)
		}
	}

	if ProxyStatus(99).String() != "unknown" || ProxyStatus(99).Error() == nil {
		t.Error("expected unknown status handling")
	}
}

// fakeRelay is a minimal SOCKS5 server. It accepts no-auth CONNECT requests
// for domain names and pipes the client to the address resolved by route.
type fakeRelay struct {
	ln      net.Listener
	targets chan string
}

func newFakeRelay(t *testing.T, route func(target string) string) *fakeRelay {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	r := &fakeRelay{ln: ln, targets: make(chan string, 16)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go r.serve(conn, route)
		}
	}()
	return r
}

func (r *fakeRelay) serve(conn net.Conn, route func(string) string) {
	defer conn.Close()

	greeting := make([]byte, 3)
	if _, err := io.ReadFull(conn, greeting); err != nil {
		return
	}
	_, _ = conn.Write([]byte{socks5Version, socks5AuthNone})

	head := make([]byte, 5)
	if _, err := io.ReadFull(conn, head); err != nil || head[3] != socks5AddrTypeDomID {
		return
	}
	rest := make([]byte, int(head[4])+2)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return
	}
	host := string(rest[:head[4]])
	port := binary.BigEndian.Uint16(rest[head[4]:])
	target := net.JoinHostPort(host, strconv.Itoa(int(port)))
	r.targets <- target

	upstream, err := net.Dial("tcp", route(target)) //nolint:noctx // test code
	if err != nil {
		// Reply: host unreachable.
		_, _ = conn.Write([]byte{socks5Version, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		return
	}
	defer upstream.Close()
	_, _ = conn.Write([]byte{socks5Version, 0x00, 0x00, 0x01, 127, 0, 0, 1, 0, 0})

	go func() { _, _ = io.Copy(upstream, conn) }()
	_, _ = io.Copy(conn, upstream)
}

func TestClientDialContext(t *testing.T) {
	t.Parallel()

	echo, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer echo.Close()
	go func() {
		conn, err := echo.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(conn, conn)
	}()

	relay := newFakeRelay(t, func(string) string { return echo.Addr().String() })

	c, err := NewClient(relay.ln.Addr().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conn, err := c.DialContext(context.Background(), "tcp", "example.com:443")
	if err != nil {
		t.Fatalf("DialContext failed: %v", err)
	}
	defer conn.Close()

	if got := <-relay.targets; got != "example.com:443" {
		t.Errorf("relay saw target %q, expected example.com:443", got)
	}

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "ping" {
		t.Errorf("expected echo %q, got %q", "ping", string(buf))
	}
}

func TestClientDialContextRelayDown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, err := NewClient(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.DialContext(context.Background(), "tcp", "example.com:443"); err == nil {
		t.Error("expected error when relay is down")
	}
}

func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("OK for SOCKS5 relay", func(t *testing.T) {
		t.Parallel()

		relay := newFakeRelay(t, func(string) string { return "127.0.0.1:1" })
		c, err := NewClient(relay.ln.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		if status := c.CheckConnection(context.Background()); status != ProxyStatusOK {
			t.Errorf("expected ProxyStatusOK, got %v", status)
		}
	})

	t.Run("CannotConnect for closed port", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatal(err)
		}
		addr := ln.Addr().String()
		ln.Close()

		c, err := NewClient(addr)
		if err != nil {
			t.Fatal(err)
		}
		if status := c.CheckConnection(context.Background()); status != ProxyStatusCannotConnect {
			t.Errorf("expected ProxyStatusCannotConnect, got %v", status)
		}
	})

	t.Run("WrongType when relay demands authentication", func(t *testing.T) {
		t.Parallel()

		for _, method := range []byte{0x02, 0xFF} {
			ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
			if err != nil {
				t.Fatal(err)
			}
			defer ln.Close()
			go func() {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				defer conn.Close()
				greeting := make([]byte, 3)
				_, _ = io.ReadFull(conn, greeting)
				_, _ = conn.Write([]byte{socks5Version, method})
			}()

			c, err := NewClient(ln.Addr().String())
			if err != nil {
				t.Fatal(err)
			}
			if status := c.CheckConnection(context.Background()); status != ProxyStatusWrongType {
				t.Errorf("method 0x%02X: expected ProxyStatusWrongType, got %v", method, status)
			}
		}
	})

	t.Run("WrongType for HTTP server", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatal(err)
		}
		defer ln.Close()
		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		}()

		c, err := NewClient(ln.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		if status := c.CheckConnection(context.Background()); status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %v", status)
		}
	})
}
