// Package dispatcher implements Gold Dust's HTTP CONNECT dispatcher.
//
// Every accepted connection runs through the same states:
//
//	AwaitingRequestLine -> MethodCheck -> EstablishingUpstream -> Relaying -> Closed
//
// with Rejected as an alternate end state. The header is read one byte at a
// time until the blank line that ends it, so no tunnel bytes are consumed by
// the parser. Only CONNECT is honoured; any other method gets a 405 and the
// connection is closed.
//
// The upstream path is picked from the egress flag, read fresh for every
// connection: Tor SOCKS5 relay when the flag is on, direct TCP when it is off.
// The routing policy of package router is not consulted for this choice. It
// can be attached as an Advisor, in which case its decision is only logged and
// recorded.
//
// No step has a timeout. A silent client or a hung upstream dial keeps its
// goroutine alive until the peer goes away; other connections are unaffected.
package dispatcher
