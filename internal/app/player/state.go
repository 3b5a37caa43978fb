// Package player provides the player state machine with integrated queue management.
package player

import "github.com/mtak/playdeck/internal/domain/track"

// State is the single mutable aggregate owned by the Machine.
//
// Progress mirrors the playback engine's reported position scaled to [0,100];
// it is never the source of truth for playback position. CurrentTrack, if
// non-nil, need not exist in Playlist: tracks can be played from the queue or
// set ad hoc.
type State struct {
	CurrentTrack *track.Track     // Currently bound track (nil when none selected)
	Playing      bool             // Transport status
	Volume       float64          // Volume in [0,1]; clamping is the caller's responsibility
	Progress     float64          // Playback progress percentage in [0,100] (mirror only)
	Playlist     []track.Track    // Ordered, user-curated collection
	Queue        []track.Track    // FIFO override list, front is played next
	Shuffled     bool             // Shuffle flag (persisted and toggled, but inert: see ResolveNext)
	Repeat       track.RepeatMode // Repeat behavior on track completion
	DarkMode     bool             // Dark-mode preference
}

// initialState returns the state the player starts with.
func initialState() State {
	return State{
		Volume:   1,
		Playlist: make([]track.Track, 0),
		Queue:    make([]track.Track, 0),
		Repeat:   track.RepeatNone,
	}
}
