// Package main provides the entry point for the golddust CLI.
//
// golddust routes outbound TCP through Oxen nodes or Tor exits. It bundles
// the operator queries, the HTTP CONNECT dispatcher and the web dashboard:
//
//	golddust status
//	golddust route example.com:443
//	golddust serve
//
// See --help for all available commands.
package main

func main() {
	Execute()
}
