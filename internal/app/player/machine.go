package player

import (
	"sync"

	"github.com/mtak/playdeck/internal/domain/track"
)

// Machine is the sole owner of the player State. It accepts a closed set of
// named transitions; every transition is total (it cannot fail), is applied
// atomically under the lock, and wakes all subscribers.
//
// Side effects are not part of the machine: binding the playback engine to
// CurrentTrack, applying Volume, and starting or pausing playback are the
// responsibility of observers, which must treat the machine as the single
// source of truth and re-synchronize the engine after every relevant change.
type Machine struct {
	mu sync.RWMutex

	state State

	// revision increments on every transition; persistRevision only on
	// transitions that touch the persisted snapshot (playlist, dark mode).
	revision        uint64
	persistRevision uint64

	subscribers []chan struct{}
}

// NewMachine creates a new state machine with default initial state.
func NewMachine() *Machine {
	return &Machine{
		state: initialState(),
	}
}

// Subscribe registers a new observer and returns its notification channel.
// The channel has a buffer of one; notifications coalesce, so observers must
// re-read Snapshot rather than count signals.
func (m *Machine) Subscribe() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan struct{}, 1)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Snapshot returns a copy of the current state. Slices are copied so callers
// can iterate without holding any lock.
func (m *Machine) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() State {
	s := m.state
	s.Playlist = make([]track.Track, len(m.state.Playlist))
	copy(s.Playlist, m.state.Playlist)
	s.Queue = make([]track.Track, len(m.state.Queue))
	copy(s.Queue, m.state.Queue)
	if m.state.CurrentTrack != nil {
		t := *m.state.CurrentTrack
		s.CurrentTrack = &t
	}
	return s
}

// Revision returns the current transition counter.
func (m *Machine) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// PersistRevision returns the counter of snapshot-relevant transitions.
// Observers persisting the preference snapshot compare it between wakeups.
func (m *Machine) PersistRevision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistRevision
}

// SetTrack sets the current track.
func (m *Machine) SetTrack(t track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.CurrentTrack = &t
	m.commitLocked(false)
}

// SetPlaylist replaces the playlist wholesale.
func (m *Machine) SetPlaylist(tracks []track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Playlist = append([]track.Track(nil), tracks...)
	m.commitLocked(true)
}

// TogglePlay flips the transport status.
func (m *Machine) TogglePlay() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Playing = !m.state.Playing
	m.commitLocked(false)
}

// SetVolume sets the volume. The machine does not clamp; callers must keep
// the value in [0,1].
func (m *Machine) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Volume = v
	m.commitLocked(false)
}

// SetProgress sets the mirrored progress percentage.
func (m *Machine) SetProgress(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Progress = p
	m.commitLocked(false)
}

// AddTrack appends a track to the playlist.
func (m *Machine) AddTrack(t track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Playlist = append(m.state.Playlist, t)
	m.commitLocked(true)
}

// RemoveTrack removes all playlist entries with the given id. It does not
// clear CurrentTrack even when the removed track is the one playing.
func (m *Machine) RemoveTrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Playlist = removeByID(m.state.Playlist, id)
	m.commitLocked(true)
}

// ReorderPlaylist replaces the playlist with a caller-supplied ordering.
func (m *Machine) ReorderPlaylist(tracks []track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Playlist = append([]track.Track(nil), tracks...)
	m.commitLocked(true)
}

// AddToQueue appends a track to the play queue.
func (m *Machine) AddToQueue(t track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Queue = append(m.state.Queue, t)
	m.commitLocked(false)
}

// RemoveFromQueue removes all queue entries with the given id.
func (m *Machine) RemoveFromQueue(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Queue = removeByID(m.state.Queue, id)
	m.commitLocked(false)
}

// ToggleShuffle flips the shuffle flag.
func (m *Machine) ToggleShuffle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Shuffled = !m.state.Shuffled
	m.commitLocked(false)
}

// SetRepeatMode sets the repeat mode.
func (m *Machine) SetRepeatMode(mode track.RepeatMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Repeat = mode
	m.commitLocked(false)
}

// ToggleDarkMode flips the dark-mode preference.
func (m *Machine) ToggleDarkMode() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.DarkMode = !m.state.DarkMode
	m.commitLocked(true)
}

// commitLocked bumps revision counters and wakes subscribers.
// Must be called with the write lock held.
func (m *Machine) commitLocked(persist bool) {
	m.revision++
	if persist {
		m.persistRevision++
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber already has a pending wakeup.
		}
	}
}

// removeByID returns tracks without every entry matching id.
func removeByID(tracks []track.Track, id string) []track.Track {
	out := tracks[:0]
	for _, t := range tracks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
