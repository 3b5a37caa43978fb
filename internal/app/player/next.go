package player

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/mtak/playdeck/internal/domain/track"
)

// AdvanceOnEnded applies the next-track resolution in response to the
// playback engine's end-of-track notification. Resolution order:
//
//  1. queue head (consumed on use)
//  2. repeat-one replays the current track
//  3. current track located in the playlist by id; not found means stop
//  4. the following playlist entry
//  5. on the last entry, repeat-all wraps to the playlist start
//
// When resolution yields a track it becomes CurrentTrack and playback
// continues. When it yields none, playback stops but CurrentTrack is kept.
// The queue consume and the track change happen atomically. Only the head
// entry is consumed; duplicates of the same track further back stay queued
// and play on later advances.
//
// The shuffle flag is deliberately not consulted here; it is an inert
// preference with no ordering semantics.
func (m *Machine) AdvanceOnEnded() (track.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, fromQueue := m.resolveNextLocked()
	if next == nil {
		m.state.Playing = false
		m.commitLocked(false)
		zlog.Debug().Msg("player: end of playback, stopping")
		return track.Track{}, false
	}

	if fromQueue {
		m.state.Queue = m.state.Queue[1:]
	}
	t := *next
	m.state.CurrentTrack = &t
	m.commitLocked(false)

	zlog.Debug().Msgf("player: advancing to next track: id=%s title=%s from_queue=%v", t.ID, t.Title, fromQueue)
	return t, true
}

// resolveNextLocked computes the track to play after the current one ends.
// Returns (nil, false) when playback should stop.
// Must be called with the lock held.
func (m *Machine) resolveNextLocked() (*track.Track, bool) {
	if len(m.state.Queue) > 0 {
		return &m.state.Queue[0], true
	}

	if m.state.Repeat == track.RepeatOne {
		return m.state.CurrentTrack, false
	}

	idx := m.currentPlaylistIndexLocked()
	if idx == -1 {
		return nil, false
	}

	if idx == len(m.state.Playlist)-1 {
		if m.state.Repeat == track.RepeatAll {
			return &m.state.Playlist[0], false
		}
		return nil, false
	}

	return &m.state.Playlist[idx+1], false
}

// SkipNext moves to the following playlist entry. Unlike AdvanceOnEnded it
// consults neither the queue nor the repeat mode, and is a no-op on the last
// entry or when the current track is not in the playlist.
func (m *Machine) SkipNext() {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.currentPlaylistIndexLocked()
	if idx == -1 || idx >= len(m.state.Playlist)-1 {
		return
	}
	t := m.state.Playlist[idx+1]
	m.state.CurrentTrack = &t
	m.commitLocked(false)
}

// SkipPrevious moves to the preceding playlist entry. No-op on the first
// entry or when the current track is not in the playlist.
func (m *Machine) SkipPrevious() {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.currentPlaylistIndexLocked()
	if idx <= 0 {
		return
	}
	t := m.state.Playlist[idx-1]
	m.state.CurrentTrack = &t
	m.commitLocked(false)
}

// currentPlaylistIndexLocked locates CurrentTrack in the playlist by id.
// Returns -1 when there is no current track or it is not in the playlist.
func (m *Machine) currentPlaylistIndexLocked() int {
	if m.state.CurrentTrack == nil {
		return -1
	}
	for i, t := range m.state.Playlist {
		if t.ID == m.state.CurrentTrack.ID {
			return i
		}
	}
	return -1
}
