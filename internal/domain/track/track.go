// Package track provides the Track domain entity.
package track

import "github.com/google/uuid"

// Track represents a playable audio item.
// Immutable once created except by full replacement.
type Track struct {
	ID       string  `yaml:"id"`                  // Opaque unique identifier
	Title    string  `yaml:"title"`               // Track title
	Artist   string  `yaml:"artist"`              // Artist name
	URL      string  `yaml:"url"`                 // Remote URL or local file path
	Duration float64 `yaml:"duration,omitempty"`  // Duration in seconds (0 if unknown)
	CoverURL string  `yaml:"cover_url,omitempty"` // Cover image URL or path (optional)
}

// NewID returns a fresh opaque track ID.
// Callers may supply their own IDs as long as they are unique.
func NewID() string {
	return uuid.New().String()
}

// RepeatMode represents the repeat behavior on track completion.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota // Stop at the end of the playlist
	RepeatOne                    // Replay the current track
	RepeatAll                    // Wrap to the playlist start
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// Cycle returns the mode that follows in the cycle none -> one -> all -> none.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatNone
	}
}
