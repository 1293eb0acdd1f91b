// Package services holds the MindKeeper journal operations consumed by the
// front end: saving encrypted records, doctor advice, sync preference and
// status, and decoded history.
//
// JournalService keeps the higher-level invariants the store itself does not
// know about: a single UserData profile created on demand, one hub per
// category created lazily and bound back onto the profile, append-only hub
// entries and updatedAt bookkeeping.
package services
