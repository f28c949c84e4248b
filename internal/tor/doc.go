// Package tor provides access to the Tor SOCKS5 relay used by the
// dispatcher's Tor egress.
//
// Gold Dust does not speak the Tor protocol itself. Connections are handed to
// a SOCKS5 relay, by default the local tor daemon at 127.0.0.1:9050, using
// golang.org/x/net/proxy. The package also offers:
//   - CheckConnection, a SOCKS5 handshake probe used by "golddust status"
//   - EmbeddedTor, which starts a private tor daemon through tornago when no
//     system daemon is available
//
// Create a Client and pass it to the dispatcher rather than reaching for a
// package-level dialer, so tests can substitute a fake relay.
package tor
