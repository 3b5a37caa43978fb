// Package binder synchronizes the playback engine with the player state
// machine. It is the only component issuing engine calls in response to state
// changes, and the only one feeding engine notifications back as transitions,
// so all transitions flow through one serialized stream.
package binder

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/mtak/playdeck/internal/app/player"
	"github.com/mtak/playdeck/internal/infra/audio"
)

// Intent is the narrow desired-playback value recomputed from every state
// snapshot and diffed against what the engine was last told.
type Intent struct {
	TrackID string
	URL     string
	Playing bool
	Volume  float64
}

// Saver persists the preference snapshot.
type Saver interface {
	SaveSnapshot(ctx context.Context) error
}

// Binder applies player state to the engine and engine events to the machine.
type Binder struct {
	machine *player.Machine
	engine  audio.Engine
	saver   Saver

	applied     Intent
	bound       bool // whether any track was ever bound to the engine
	lastPersist uint64

	quit chan struct{}
	done chan struct{}
}

// New creates a binder. Run must be called to start it.
func New(m *player.Machine, e audio.Engine, s Saver) *Binder {
	return &Binder{
		machine: m,
		engine:  e,
		saver:   s,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run synchronizes until Close is called. It subscribes to the machine, so
// it must run in its own goroutine for the lifetime of the player.
func (b *Binder) Run(ctx context.Context) {
	defer close(b.done)

	changes := b.machine.Subscribe()

	// Apply the initial state so a hydrated playlist starts consistent.
	b.sync(ctx)

	for {
		select {
		case <-b.quit:
			return
		case <-ctx.Done():
			return
		case <-changes:
			b.sync(ctx)
		case p := <-b.engine.Progress():
			b.handleProgress(p)
		case <-b.engine.Done():
			b.handleEnded()
		}
	}
}

// Close stops the binder and waits for Run to return.
func (b *Binder) Close() {
	close(b.quit)
	<-b.done
}

// sync applies the current state to the engine and persists the preference
// snapshot when playlist or dark mode changed.
func (b *Binder) sync(ctx context.Context) {
	b.applyState(b.machine.Snapshot())

	if rev := b.machine.PersistRevision(); rev != b.lastPersist {
		if err := b.saver.SaveSnapshot(ctx); err != nil {
			zlog.Warn().Msgf("binder: failed to persist preference snapshot: %v", err)
		}
		b.lastPersist = rev
	}
}

// applyState diffs the snapshot against the last applied intent and issues
// the minimal engine calls. A rejected play request triggers a compensating
// TogglePlay back to the paused state.
func (b *Binder) applyState(s player.State) {
	intent := intentFrom(s)

	trackChanged := b.bound && intent.TrackID != b.applied.TrackID
	if s.CurrentTrack != nil && (!b.bound || trackChanged) {
		if err := b.engine.Load(*s.CurrentTrack); err != nil {
			zlog.Error().Msgf("binder: failed to bind source: id=%s url=%s: %v",
				intent.TrackID, intent.URL, err)
			b.applied = intent
			b.applied.Playing = false
			b.bound = true
			if s.Playing {
				b.machine.TogglePlay()
			}
			return
		}
		b.bound = true
		// A fresh source always needs volume and transport applied.
		b.applied = Intent{TrackID: intent.TrackID, URL: intent.URL, Volume: -1}
	}

	if intent.Volume != b.applied.Volume {
		b.engine.SetVolume(intent.Volume)
	}

	if intent.Playing != b.applied.Playing {
		if intent.Playing {
			if err := b.engine.Play(); err != nil {
				// Playback was rejected; revert the transport flag so
				// the state machine stays truthful.
				zlog.Warn().Msgf("binder: play request rejected: %v", err)
				b.applied = intent
				b.applied.Playing = false
				b.machine.TogglePlay()
				return
			}
		} else {
			b.engine.Pause()
		}
	}

	b.applied = intent
}

// handleProgress mirrors the engine position into the state machine as a
// percentage of the track duration.
func (b *Binder) handleProgress(p audio.Progress) {
	if p.Duration <= 0 {
		return
	}
	b.machine.SetProgress(float64(p.Position) / float64(p.Duration) * 100)
}

// handleEnded feeds the end-of-track notification into next-track
// resolution. The resulting transition wakes sync, which rebinds the engine.
func (b *Binder) handleEnded() {
	if next, ok := b.machine.AdvanceOnEnded(); ok {
		zlog.Debug().Msgf("binder: track ended, next: id=%s title=%s", next.ID, next.Title)
	}
}

// intentFrom projects a state snapshot onto the desired playback intent.
func intentFrom(s player.State) Intent {
	i := Intent{
		Playing: s.Playing,
		Volume:  s.Volume,
	}
	if s.CurrentTrack != nil {
		i.TrackID = s.CurrentTrack.ID
		i.URL = s.CurrentTrack.URL
	}
	return i
}
