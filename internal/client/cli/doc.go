// Package cli provides the interactive MindKeeper command-line client.
//
// It wires configuration, the local document store, the optional Data API
// client, the sync orchestrator and an interactive REPL. Entries are sealed
// into envelopes before they touch storage; sync runs in the background
// according to the user's preference.
//
// Key features:
//   - Record mood entries, chat messages and health metrics
//   - Add and list doctor advice
//   - Change sync preference, trigger a manual sync, show sync status
//   - Browse decoded history per category and inspect storage health
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
