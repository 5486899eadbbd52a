// Package storage implements tracking.Repository.
//
//   - Redis: one hash per IP, key "<prefix>:<ip>", fields "<method>:s" and
//     "<method>:f". Shared by all proxy instances.
//   - SQLite: one row per (ip, method) in a local database file.
//   - Memory: process local, for tests and single-node setups.
//
// Open selects the implementation from configuration.
package storage
