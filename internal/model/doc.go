// Package model defines the data structures shared by the router, the
// dispatcher, the dashboard and the report writers.
//
// This package contains the following main types:
//   - BackendKind: The backend family (Oxen or Tor)
//   - BackendIdentity: A named backend built once from configuration
//   - BackendHealth: A freshly sampled health snapshot for one backend
//   - BackendChoice: The outcome of a routing decision
//   - EgressMode: The dispatcher's upstream path (Tor relay or direct TCP)
//
// Models live in their own package so that router, dispatcher, database and
// report can share them without import cycles.
package model
