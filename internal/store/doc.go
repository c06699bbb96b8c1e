// Package store provides SQLite-backed durable storage for the evaluation
// log.
//
// The log is append-only:
//   - Models: fingerprints of the models queries ran against
//   - Evaluations: one row per evaluated query, keyed by evaluation id
//
// # Ordering
//
// All ordering uses the seq column (the engine's logical clock), never
// timestamps. Queries that return several rows order by seq and then by
// id COLLATE BINARY, so history reads the same on every run.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: evaluations must reference a recorded model
//
// JSON columns are written with HTML escaping disabled so that witness
// zones such as "x<=5" are stored as written.
package store
