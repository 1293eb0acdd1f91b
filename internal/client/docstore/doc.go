// Package docstore is a small collection-oriented document store on top of a
// storage.KV namespace.
//
// # Layout
//
// Each collection lives under a single key, "<prefix>_<Collection>", holding a
// JSON array of documents. Documents are JSON objects identified by a string
// "_id" field that is generated on Create when absent.
//
// # Semantics
//
//   - Create validates shape and appends; Update merges top-level fields;
//     Delete removes by id. Every mutation rewrites the whole collection key.
//   - Find matches by exact equality on every query field and never fails:
//     read problems are logged and yield an empty result.
//   - Write runs a block of mutations for readability only. There is no
//     atomicity and no rollback; an error from the block is returned as is.
//
// # Errors
//
// Malformed documents fail with *ValidationError (errors.Is ErrValidation).
// Substrate failures and corrupted collection JSON fail mutating calls with
// *StorageError (errors.Is ErrStorage), which also unwraps to the cause, e.g.
// storage.ErrQuotaExceeded.
//
// # Concurrency
//
// A Store is safe for concurrent use; each call holds an internal mutex for
// its whole read-modify-write cycle.
package docstore
