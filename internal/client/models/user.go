package models

import "time"

// DefaultRephraseKey is stamped on freshly created profiles.
const DefaultRephraseKey = "default-key"

// DoctorAdvice is one append-only note from a clinician.
type DoctorAdvice struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctorId"`
	Advice    string    `json:"advice"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

// UserData is the single per-device profile and root of the ownership graph.
type UserData struct {
	ID                string         `json:"_id,omitempty"`
	RephraseKey       string         `json:"rephraseKey,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	SyncPreference    SyncPreference `json:"syncPreference"`
	MoodLogHubID      string         `json:"moodLogHubId,omitempty"`
	ChatHubID         string         `json:"chatHubId,omitempty"`
	HealthRecordHubID string         `json:"healthRecordHubId,omitempty"`
	DoctorAdvices     []DoctorAdvice `json:"doctorAdvices"`
	LastSyncedAt      *time.Time     `json:"lastSyncedAt,omitempty"`
}

// NewUserData returns an unsaved profile with the given preference.
func NewUserData(pref SyncPreference, now time.Time) *UserData {
	if !pref.Valid() {
		pref = SyncLocal
	}
	return &UserData{
		RephraseKey:    DefaultRephraseKey,
		CreatedAt:      now,
		UpdatedAt:      now,
		SyncPreference: pref,
		DoctorAdvices:  []DoctorAdvice{},
	}
}

// HubID returns the hub bound to c, or "".
func (u *UserData) HubID(c Category) string {
	switch c {
	case CategoryMood:
		return u.MoodLogHubID
	case CategoryChat:
		return u.ChatHubID
	case CategoryHealth:
		return u.HealthRecordHubID
	}
	return ""
}

// SetHubID binds id as the hub for c.
func (u *UserData) SetHubID(c Category, id string) {
	switch c {
	case CategoryMood:
		u.MoodLogHubID = id
	case CategoryChat:
		u.ChatHubID = id
	case CategoryHealth:
		u.HealthRecordHubID = id
	}
}

// HubField is the UserData field name holding the hub id for c.
func HubField(c Category) string {
	switch c {
	case CategoryMood:
		return "moodLogHubId"
	case CategoryChat:
		return "chatHubId"
	case CategoryHealth:
		return "healthRecordHubId"
	}
	return ""
}
