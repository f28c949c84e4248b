// Package egress holds the "tor-enabled" switch that decides whether the
// dispatcher sends new connections through the Tor relay or directly.
//
// The switch is polled, never pushed: the dispatcher reads it once per
// accepted connection. Two stores implement the same contract:
//
//   - FileStore keeps the value in a small text file so that the dashboard
//     and the dispatcher can run as separate processes. Reads and writes are
//     not synchronized. A reader sees whatever content was durable at the
//     moment it read the file; concurrent writes are last-writer-wins. This
//     eventual consistency is an accepted property of the file contract.
//   - MemoryStore keeps the value in an atomic cell for when both sides live
//     in one process. It can mirror every write to a FileStore so that the
//     value survives a restart.
package egress
