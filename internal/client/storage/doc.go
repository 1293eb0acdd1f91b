// Package storage provides the durable key-value substrate that the document
// store sits on: string keys, string values, a byte quota, and nothing else.
//
// Two implementations exist:
//
//   - MemoryKV: map-backed, for tests and ephemeral sessions.
//   - SQLiteKV: a single kv table in a local SQLite file (modernc.org/sqlite),
//     created by the embedded goose migrations.
//
// Both count len(key)+len(value) against the quota and fail a Set that would
// exceed it with ErrQuotaExceeded, leaving the previous value intact.
package storage
