// Package audio provides the playback engine port and its beep-based backend.
package audio

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mtak/playdeck/internal/domain/track"
)

// Errors
var (
	ErrNoSource    = errors.New("no source loaded")
	ErrUnsupported = errors.New("unsupported audio format")
)

// Progress reports the playback position of the loaded source.
type Progress struct {
	Position time.Duration
	Duration time.Duration
}

// Engine is the playback collaborator. One underlying stream is bound to a
// single track at a time; Load rebinds to a new source and implicitly
// abandons anything in flight on the previous one (last-bind-wins, no
// cancellation token).
//
// Play may be rejected by the backend; callers recover by reverting their
// transport state. Progress and Done carry time-progress and end-of-track
// notifications.
type Engine interface {
	// Load binds the engine to the track's source, paused at the start.
	Load(t track.Track) error
	// Play starts or resumes the loaded source.
	Play() error
	// Pause pauses the loaded source.
	Pause()
	// SeekBy moves the position by delta (negative seeks backwards),
	// clamped to the stream bounds.
	SeekBy(delta time.Duration)
	// SetVolume applies a volume in [0,1].
	SetVolume(v float64)
	// Position returns the current position of the loaded source.
	Position() time.Duration
	// Duration returns the total length of the loaded source.
	Duration() time.Duration
	// Progress returns the time-progress notification channel.
	Progress() <-chan Progress
	// Done returns the end-of-track notification channel.
	Done() <-chan struct{}
	// Close releases the backend and its channels.
	Close() error
}
