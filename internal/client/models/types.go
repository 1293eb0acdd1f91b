package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Local collection names. Each one is persisted under "<prefix>_<name>".
const (
	CollectionUserData      = "UserData"
	CollectionEncryptedData = "EncryptedData"
	CollectionDataLogHub    = "DataLogHub"
)

// SchemaVersion is written into every new EncryptedData record.
const SchemaVersion = 1

var (
	ErrUnknownCategory       = errors.New("category must be one of mood, chat, health")
	ErrUnknownSyncPreference = errors.New("sync preference must be one of local, daily, weekly")
)

// Category partitions encrypted records and hubs.
type Category string

const (
	CategoryMood   Category = "mood"
	CategoryChat   Category = "chat"
	CategoryHealth Category = "health"
)

// Categories lists every category in sync order.
var Categories = []Category{CategoryMood, CategoryChat, CategoryHealth}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryMood, CategoryChat, CategoryHealth:
		return true
	}
	return false
}

// SyncPreference controls whether and how often local data is pushed.
type SyncPreference string

const (
	SyncLocal  SyncPreference = "local"
	SyncDaily  SyncPreference = "daily"
	SyncWeekly SyncPreference = "weekly"
)

func ParseSyncPreference(s string) (SyncPreference, error) {
	p := SyncPreference(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSyncPreference, s)
	}
	return p, nil
}

func (p SyncPreference) Valid() bool {
	switch p {
	case SyncLocal, SyncDaily, SyncWeekly:
		return true
	}
	return false
}

// Period is the periodic sync interval; zero means no timer.
func (p SyncPreference) Period() time.Duration {
	switch p {
	case SyncDaily:
		return 24 * time.Hour
	case SyncWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}
