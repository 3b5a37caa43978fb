package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtak/playdeck/internal/domain/track"
)

func tr(id, title string) track.Track {
	return track.Track{ID: id, Title: title, Artist: "Test Artist", URL: "file:///" + id + ".mp3"}
}

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine()
	s := m.Snapshot()

	assert.Nil(t, s.CurrentTrack)
	assert.False(t, s.Playing)
	assert.Equal(t, 1.0, s.Volume)
	assert.Equal(t, 0.0, s.Progress)
	assert.Empty(t, s.Playlist)
	assert.Empty(t, s.Queue)
	assert.False(t, s.Shuffled)
	assert.Equal(t, track.RepeatNone, s.Repeat)
	assert.False(t, s.DarkMode)
}

func TestMachine_AddRemoveTrack(t *testing.T) {
	tests := []struct {
		name     string
		ops      func(m *Machine)
		expected []string // expected playlist IDs in order
	}{
		{
			name: "adds preserve insertion order",
			ops: func(m *Machine) {
				m.AddTrack(tr("a", "A"))
				m.AddTrack(tr("b", "B"))
				m.AddTrack(tr("c", "C"))
			},
			expected: []string{"a", "b", "c"},
		},
		{
			name: "remove deletes all entries with the id",
			ops: func(m *Machine) {
				m.AddTrack(tr("a", "A"))
				m.AddTrack(tr("b", "B"))
				m.AddTrack(tr("a", "A again"))
				m.RemoveTrack("a")
			},
			expected: []string{"b"},
		},
		{
			name: "remove of unknown id is a no-op",
			ops: func(m *Machine) {
				m.AddTrack(tr("a", "A"))
				m.RemoveTrack("missing")
			},
			expected: []string{"a"},
		},
		{
			name: "interleaved adds and removes",
			ops: func(m *Machine) {
				m.AddTrack(tr("a", "A"))
				m.RemoveTrack("a")
				m.AddTrack(tr("b", "B"))
				m.AddTrack(tr("c", "C"))
				m.RemoveTrack("b")
				m.AddTrack(tr("d", "D"))
			},
			expected: []string{"c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			tt.ops(m)

			ids := make([]string, 0)
			for _, tk := range m.Snapshot().Playlist {
				ids = append(ids, tk.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestMachine_SetVolume_DoesNotClamp(t *testing.T) {
	// Clamping is a caller responsibility; the machine stores the value as-is.
	tests := []float64{0, 0.5, 1, 1.5, -0.3}

	for _, v := range tests {
		m := NewMachine()
		m.SetVolume(v)
		assert.Equal(t, v, m.Snapshot().Volume)
	}
}

func TestMachine_RemoveTrack_KeepsCurrentTrack(t *testing.T) {
	// Removing the currently playing track from the playlist leaves
	// CurrentTrack pointing at the now-absent id. Documented quirk.
	m := NewMachine()
	a := tr("a", "A")
	m.AddTrack(a)
	m.SetTrack(a)
	m.RemoveTrack("a")

	s := m.Snapshot()
	assert.Empty(t, s.Playlist)
	assert.NotNil(t, s.CurrentTrack)
	assert.Equal(t, "a", s.CurrentTrack.ID)
}

func TestMachine_QueueOperations(t *testing.T) {
	m := NewMachine()
	m.AddToQueue(tr("a", "A"))
	m.AddToQueue(tr("b", "B"))
	m.AddToQueue(tr("a", "A again"))

	assert.Len(t, m.Snapshot().Queue, 3)

	m.RemoveFromQueue("a")
	q := m.Snapshot().Queue
	assert.Len(t, q, 1)
	assert.Equal(t, "b", q[0].ID)
}

func TestMachine_Toggles(t *testing.T) {
	m := NewMachine()

	m.TogglePlay()
	assert.True(t, m.Snapshot().Playing)
	m.TogglePlay()
	assert.False(t, m.Snapshot().Playing)

	m.ToggleShuffle()
	assert.True(t, m.Snapshot().Shuffled)

	m.ToggleDarkMode()
	assert.True(t, m.Snapshot().DarkMode)

	m.SetRepeatMode(track.RepeatAll)
	assert.Equal(t, track.RepeatAll, m.Snapshot().Repeat)
}

func TestMachine_SetPlaylist_Replaces(t *testing.T) {
	m := NewMachine()
	m.AddTrack(tr("a", "A"))

	m.SetPlaylist([]track.Track{tr("x", "X"), tr("y", "Y")})
	s := m.Snapshot()
	assert.Len(t, s.Playlist, 2)
	assert.Equal(t, "x", s.Playlist[0].ID)

	m.ReorderPlaylist([]track.Track{s.Playlist[1], s.Playlist[0]})
	assert.Equal(t, "y", m.Snapshot().Playlist[0].ID)
}

func TestMachine_Snapshot_IsACopy(t *testing.T) {
	m := NewMachine()
	m.AddTrack(tr("a", "A"))

	s := m.Snapshot()
	s.Playlist[0].Title = "mutated"
	s.Playlist = append(s.Playlist, tr("b", "B"))

	fresh := m.Snapshot()
	assert.Len(t, fresh.Playlist, 1)
	assert.Equal(t, "A", fresh.Playlist[0].Title)
}

func TestMachine_Subscribe_CoalescesNotifications(t *testing.T) {
	m := NewMachine()
	ch := m.Subscribe()

	// Many transitions, at most one pending wakeup.
	for i := 0; i < 10; i++ {
		m.TogglePlay()
	}

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications must coalesce into a single wakeup")
	default:
	}
}

func TestMachine_Revisions(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, uint64(0), m.Revision())

	m.TogglePlay()
	m.SetVolume(0.5)
	assert.Equal(t, uint64(2), m.Revision())
	// Neither transition touches the persisted snapshot.
	assert.Equal(t, uint64(0), m.PersistRevision())

	m.AddTrack(tr("a", "A"))
	m.ToggleDarkMode()
	assert.Equal(t, uint64(2), m.PersistRevision())
}
