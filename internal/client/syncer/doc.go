// Package syncer mirrors local MindKeeper data to the remote document API.
//
// The Orchestrator owns the sync policy (local, daily, weekly), one periodic
// job per user, the online flag and the single in-flight guard. A sync pushes
// UserData first and then the mood, chat and health record batches, in that
// order; a failing step does not stop the following ones. While a sync is
// running, further triggers are dropped rather than queued.
//
// Remote failures never escape as errors: every entry point reports success as
// a bool. With no remote configured, pushes are skipped and report true.
//
// The Watcher probes the remote on an interval and only updates the online
// flag; it never starts a sync on reconnect.
package syncer
