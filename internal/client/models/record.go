package models

import "time"

// EncryptedData is one opaque, immutable record.
type EncryptedData struct {
	ID               string    `json:"_id,omitempty"`
	EncryptedPayload string    `json:"encryptedPayload"`
	SchemaVersion    int       `json:"_v"`
	Timestamp        time.Time `json:"timestamp"`
	Category         Category  `json:"category"`
}

// PendingSince reports whether r was created strictly after t. A nil t means
// never synced, so everything is pending.
func (r EncryptedData) PendingSince(t *time.Time) bool {
	return t == nil || r.Timestamp.After(*t)
}

// CountPending returns how many records are pending relative to t.
func CountPending(records []EncryptedData, t *time.Time) int {
	n := 0
	for _, r := range records {
		if r.PendingSince(t) {
			n++
		}
	}
	return n
}

// HubEntry references an EncryptedData record from a hub.
type HubEntry struct {
	EntryID   string    `json:"entryId"`
	Timestamp time.Time `json:"timestamp"`
}

// DataLogHub is an append-only, chronologically ordered index of records for
// one category.
type DataLogHub struct {
	ID           string     `json:"_id,omitempty"`
	Entries      []HubEntry `json:"entries"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// Append adds a reference to the end of the hub.
func (h *DataLogHub) Append(entryID string, at time.Time) {
	h.Entries = append(h.Entries, HubEntry{EntryID: entryID, Timestamp: at})
}

// SyncStatus is the orchestrator's externally visible state.
type SyncStatus struct {
	IsOnline               bool       `json:"isOnline"`
	LastSyncAt             *time.Time `json:"lastSyncAt,omitempty"`
	PendingOperationsCount int        `json:"pendingOperationsCount"`
	SyncInProgress         bool       `json:"syncInProgress"`
}
