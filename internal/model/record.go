// Package model defines the core data types.
package model

import "time"

// Record is one entry in the memory store.
type Record struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Category  Category       `json:"category,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	Score     *float64       `json:"score,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// MetaTimestamp is the metadata key stamped on every record at write time.
const MetaTimestamp = "timestamp"

// Timestamp returns the record's write time in unix seconds.
func (r Record) Timestamp() int64 {
	switch v := r.Metadata[MetaTimestamp].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// MetaString returns metadata[key] as a string, or "".
func (r Record) MetaString(key string) string {
	s, _ := r.Metadata[key].(string)
	return s
}

// MetaFloat returns metadata[key] as a float64, or 0.
func (r Record) MetaFloat(key string) float64 {
	switch v := r.Metadata[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
