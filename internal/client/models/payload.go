package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrIncorrectMetric = errors.New("metric must be name=value")
	ErrMoodOutOfRange  = errors.New("mood must be between 1 and 5")
)

// TypedPayload is a journal entry that knows its category.
type TypedPayload interface {
	GetCategory() Category
}

// MoodEntry is a 1..5 self-rating with an optional note.
type MoodEntry struct {
	Type      string    `json:"type"`
	Mood      int       `json:"mood"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMoodEntry(mood int, note string, now time.Time) (MoodEntry, error) {
	if mood < 1 || mood > 5 {
		return MoodEntry{}, ErrMoodOutOfRange
	}
	return MoodEntry{Type: "mood_entry", Mood: mood, Note: note, Timestamp: now}, nil
}

func (MoodEntry) GetCategory() Category { return CategoryMood }

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (ChatMessage) GetCategory() Category { return CategoryChat }

// Metric is a single named health measurement.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// HealthRecord groups measurements taken at one time.
type HealthRecord struct {
	Type      string    `json:"type"`
	Metrics   []Metric  `json:"metrics"`
	Timestamp time.Time `json:"timestamp"`
}

func (HealthRecord) GetCategory() Category { return CategoryHealth }

// MetricsFromStrings parses "name=value" pairs.
func MetricsFromStrings(s []string) ([]Metric, error) {
	out := make([]Metric, len(s))
	for n, item := range s {
		name, raw, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.Contains(raw, "=") {
			return nil, ErrIncorrectMetric
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrIncorrectMetric, item)
		}
		out[n] = Metric{Name: name, Value: v}
	}
	return out, nil
}

// DecodePayload turns a decoded envelope body into *MoodEntry, *ChatMessage
// or *HealthRecord according to c.
// Unknown shapes fall back to a generic map.
func DecodePayload(c Category, data json.RawMessage) (any, error) {
	var v TypedPayload
	switch c {
	case CategoryMood:
		v = &MoodEntry{}
	case CategoryChat:
		v = &ChatMessage{}
	case CategoryHealth:
		v = &HealthRecord{}
	default:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}
