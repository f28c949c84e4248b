// Package router implements Gold Dust's backend selection.
//
// The package has three parts:
//   - Registry: the fixed list of backends built from the two enable flags
//   - Sampler: produces synthetic health snapshots for a backend
//   - Router: applies the Oxen-first, Tor-fallback policy to fresh samples
//
// The Sampler is an interface so that the synthetic implementation can later
// be replaced by real round-trip measurements without changing Router.
//
// The routing decision is advisory. The dispatcher chooses between Tor and
// direct egress from the egress flag alone and never consults the Router.
package router
