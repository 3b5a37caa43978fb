package binder

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtak/playdeck/internal/app/player"
	"github.com/mtak/playdeck/internal/domain/track"
	"github.com/mtak/playdeck/internal/infra/audio"
)

// fakeEngine records calls and returns scripted errors.
type fakeEngine struct {
	loaded   []string // track IDs passed to Load
	playCnt  int
	pauseCnt int
	volume   float64

	loadErr error
	playErr error

	progressCh chan audio.Progress
	doneCh     chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		volume:     1,
		progressCh: make(chan audio.Progress, 1),
		doneCh:     make(chan struct{}, 1),
	}
}

func (f *fakeEngine) Load(t track.Track) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, t.ID)
	return nil
}

func (f *fakeEngine) Play() error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playCnt++
	return nil
}

func (f *fakeEngine) Pause()                       { f.pauseCnt++ }
func (f *fakeEngine) SeekBy(time.Duration)         {}
func (f *fakeEngine) SetVolume(v float64)          { f.volume = v }
func (f *fakeEngine) Position() time.Duration      { return 0 }
func (f *fakeEngine) Duration() time.Duration      { return 0 }
func (f *fakeEngine) Progress() <-chan audio.Progress {
	return f.progressCh
}
func (f *fakeEngine) Done() <-chan struct{} { return f.doneCh }
func (f *fakeEngine) Close() error          { return nil }

// nopSaver ignores snapshot saves.
type nopSaver struct{ calls int }

func (n *nopSaver) SaveSnapshot(context.Context) error {
	n.calls++
	return nil
}

func tr(id string) track.Track {
	return track.Track{ID: id, Title: id, Artist: "A", URL: "file:///" + id + ".mp3"}
}

func newBinder() (*Binder, *player.Machine, *fakeEngine, *nopSaver) {
	m := player.NewMachine()
	e := newFakeEngine()
	s := &nopSaver{}
	return New(m, e, s), m, e, s
}

func TestApplyState_BindsAndPlays(t *testing.T) {
	b, m, e, _ := newBinder()

	m.SetTrack(tr("a"))
	m.TogglePlay()
	b.applyState(m.Snapshot())

	require.Equal(t, []string{"a"}, e.loaded)
	assert.Equal(t, 1, e.playCnt)
	assert.Equal(t, 1.0, e.volume)
}

func TestApplyState_RebindsOnlyOnTrackChange(t *testing.T) {
	b, m, e, _ := newBinder()

	m.SetTrack(tr("a"))
	b.applyState(m.Snapshot())
	b.applyState(m.Snapshot())
	m.SetVolume(0.4)
	b.applyState(m.Snapshot())

	// Volume changes must not rebind the source.
	assert.Equal(t, []string{"a"}, e.loaded)
	assert.Equal(t, 0.4, e.volume)

	m.SetTrack(tr("b"))
	b.applyState(m.Snapshot())
	assert.Equal(t, []string{"a", "b"}, e.loaded)
}

func TestApplyState_PauseAndResume(t *testing.T) {
	b, m, e, _ := newBinder()

	m.SetTrack(tr("a"))
	m.TogglePlay()
	b.applyState(m.Snapshot())
	require.Equal(t, 1, e.playCnt)

	m.TogglePlay()
	b.applyState(m.Snapshot())
	assert.Equal(t, 1, e.pauseCnt)

	m.TogglePlay()
	b.applyState(m.Snapshot())
	assert.Equal(t, 2, e.playCnt)
}

func TestApplyState_RejectedPlayCompensates(t *testing.T) {
	// When the engine rejects a play request the transport flag reverts to
	// paused, mirroring a policy-blocked autoplay.
	b, m, e, _ := newBinder()
	e.playErr = errors.New("playback rejected")

	m.SetTrack(tr("a"))
	m.TogglePlay()
	require.True(t, m.Snapshot().Playing)

	b.applyState(m.Snapshot())
	assert.False(t, m.Snapshot().Playing)

	// Re-applying the reverted state stays settled: no play retries.
	b.applyState(m.Snapshot())
	assert.Equal(t, 0, e.playCnt)
}

func TestApplyState_FailedLoadRevertsTransport(t *testing.T) {
	b, m, e, _ := newBinder()
	e.loadErr = errors.New("unsupported format")

	m.SetTrack(tr("a"))
	m.TogglePlay()
	b.applyState(m.Snapshot())

	assert.False(t, m.Snapshot().Playing)
	assert.Empty(t, e.loaded)
}

func TestHandleEnded_AdvancesAndRebinds(t *testing.T) {
	b, m, e, _ := newBinder()

	a, bb := tr("a"), tr("b")
	m.SetPlaylist([]track.Track{a, bb})
	m.SetTrack(a)
	m.TogglePlay()
	b.applyState(m.Snapshot())
	require.Equal(t, []string{"a"}, e.loaded)

	b.handleEnded()
	b.applyState(m.Snapshot())

	assert.Equal(t, "b", m.Snapshot().CurrentTrack.ID)
	assert.Equal(t, []string{"a", "b"}, e.loaded)
	assert.Equal(t, 2, e.playCnt)
}

func TestHandleProgress(t *testing.T) {
	b, m, _, _ := newBinder()

	b.handleProgress(audio.Progress{
		Position: 30 * time.Second,
		Duration: 2 * time.Minute,
	})
	assert.InDelta(t, 25.0, m.Snapshot().Progress, 0.001)

	// Unknown duration leaves progress untouched.
	m.SetProgress(42)
	b.handleProgress(audio.Progress{Position: time.Second})
	assert.Equal(t, 42.0, m.Snapshot().Progress)
}

func TestSync_PersistsSnapshotOnPlaylistChange(t *testing.T) {
	b, m, _, s := newBinder()
	ctx := context.Background()

	b.sync(ctx)
	assert.Equal(t, 0, s.calls)

	m.AddTrack(tr("a"))
	b.sync(ctx)
	assert.Equal(t, 1, s.calls)

	// Transport transitions do not rewrite the snapshot.
	m.TogglePlay()
	b.sync(ctx)
	assert.Equal(t, 1, s.calls)

	m.ToggleDarkMode()
	b.sync(ctx)
	assert.Equal(t, 2, s.calls)
}

func TestRun_EndToEnd(t *testing.T) {
	b, m, e, _ := newBinder()

	go b.Run(context.Background())
	defer b.Close()

	a, bb := tr("a"), tr("b")
	m.SetPlaylist([]track.Track{a, bb})
	m.SetTrack(a)
	m.TogglePlay()

	require.Eventually(t, func() bool {
		return m.Snapshot().Playing
	}, time.Second, 10*time.Millisecond)

	// End-of-track notification advances to the next playlist entry.
	e.doneCh <- struct{}{}
	require.Eventually(t, func() bool {
		cur := m.Snapshot().CurrentTrack
		return cur != nil && cur.ID == "b"
	}, time.Second, 10*time.Millisecond)
}
