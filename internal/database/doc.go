// Package database keeps golddust's history in SQLite.
//
// Two tables are maintained:
//   - route_decisions: every advisory answer given by `golddust route`
//   - dispatch_events: every connection finished by the dispatcher
//
// The store uses modernc.org/sqlite, so the binary stays CGO-free, and runs
// with a single connection in WAL mode. HistoryDB implements
// dispatcher.Recorder and can be attached to a running dispatcher directly.
package database
