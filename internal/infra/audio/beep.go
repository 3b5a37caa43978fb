package audio

import (
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/mtak/playdeck/internal/domain/track"
)

const speakerBufferLen = time.Second / 5

// beepEngine implements Engine on the beep speaker.
type beepEngine struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	format   beep.Format

	initialized bool
	initRate    beep.SampleRate
	vol         float64

	// generation guards stale end-of-track callbacks after a rebind. It is
	// atomic rather than guarded by mu: the callback fires on the speaker
	// goroutine while the speaker package mutex is held, and every mu
	// holder also takes the speaker lock, so touching mu there would
	// invert the lock order and deadlock.
	generation atomic.Uint64

	tempFile string // Downloaded remote source, removed on the next rebind

	progressCh chan Progress
	doneCh     chan struct{}
	quit       chan struct{}
	closeOnce  sync.Once
}

// NewEngine creates a beep-backed playback engine.
func NewEngine() Engine {
	e := &beepEngine{
		vol:        1,
		progressCh: make(chan Progress, 1),
		doneCh:     make(chan struct{}, 1),
		quit:       make(chan struct{}),
	}
	go e.monitorProgress()
	return e
}

func (e *beepEngine) Load(t track.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()
	gen := e.generation.Add(1)

	path, temp, err := e.localize(t.URL)
	if err != nil {
		return err
	}
	e.tempFile = temp

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open audio source %s", path)
	}

	streamer, format, err := decode(f, path)
	if err != nil {
		_ = f.Close()
		return err
	}
	e.streamer = streamer
	e.format = format

	if !e.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(speakerBufferLen)); err != nil {
			e.unloadLocked()
			return errors.Wrap(err, "failed to initialize speaker")
		}
		e.initialized = true
		e.initRate = format.SampleRate
	}

	// The speaker runs at the rate of the first loaded source; later
	// sources at other rates are resampled.
	var src beep.Streamer = streamer
	if format.SampleRate != e.initRate {
		src = beep.Resample(4, format.SampleRate, e.initRate, streamer)
	}

	e.ctrl = &beep.Ctrl{Streamer: src, Paused: true}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.applyVolumeLocked(e.vol)

	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		e.onStreamEnd(gen)
	})))

	zlog.Debug().Msgf("audio: source loaded: id=%s url=%s rate=%d", t.ID, t.URL, format.SampleRate)
	return nil
}

func (e *beepEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return ErrNoSource
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (e *beepEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

func (e *beepEngine) SeekBy(delta time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	target := e.streamer.Position() + e.format.SampleRate.N(delta)
	if target < 0 {
		target = 0
	}
	if max := e.streamer.Len() - 1; target > max {
		target = max
	}
	if err := e.streamer.Seek(target); err != nil {
		zlog.Warn().Msgf("audio: seek failed: %v", err)
	}
}

func (e *beepEngine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.vol = v
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.applyVolumeLocked(v)
	speaker.Unlock()
}

// applyVolumeLocked maps linear volume in [0,1] onto the exponential scale
// beep uses (Base^Volume), muting entirely at zero.
func (e *beepEngine) applyVolumeLocked(v float64) {
	if e.volume == nil {
		return
	}
	if v <= 0 {
		e.volume.Silent = true
		return
	}
	e.volume.Silent = false
	e.volume.Volume = math.Log2(v)
}

func (e *beepEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *beepEngine) positionLocked() time.Duration {
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.format.SampleRate.D(e.streamer.Position())
}

func (e *beepEngine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationLocked()
}

func (e *beepEngine) durationLocked() time.Duration {
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return e.format.SampleRate.D(e.streamer.Len())
}

func (e *beepEngine) Progress() <-chan Progress {
	return e.progressCh
}

func (e *beepEngine) Done() <-chan struct{} {
	return e.doneCh
}

func (e *beepEngine) Close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
		e.mu.Lock()
		e.unloadLocked()
		e.mu.Unlock()
	})
	return nil
}

// onStreamEnd forwards the end-of-track notification unless the source was
// rebound while the callback was pending. It runs on the speaker goroutine
// under the speaker lock, so it must never block or touch e.mu.
func (e *beepEngine) onStreamEnd(gen uint64) {
	if gen != e.generation.Load() {
		return
	}

	select {
	case e.doneCh <- struct{}{}:
	default:
	}
}

// monitorProgress periodically reports the playback position.
func (e *beepEngine) monitorProgress() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-e.quit:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.streamer == nil {
				e.mu.Unlock()
				continue
			}
			p := Progress{
				Position: e.positionLocked(),
				Duration: e.durationLocked(),
			}
			e.mu.Unlock()

			select {
			case e.progressCh <- p:
			default:
				// Consumer is behind, drop the update.
			}
		}
	}
}

// unloadLocked tears down the current source. Must be called with the lock held.
func (e *beepEngine) unloadLocked() {
	if e.initialized {
		speaker.Clear()
	}
	e.ctrl = nil
	e.volume = nil
	if e.streamer != nil {
		_ = e.streamer.Close()
		e.streamer = nil
	}
	if e.tempFile != "" {
		_ = os.Remove(e.tempFile)
		e.tempFile = ""
	}
}

// localize resolves a source URL to a local file path, downloading remote
// sources to a temporary file. Returns the path and, for downloads, the
// temporary file to clean up later.
func (e *beepEngine) localize(url string) (path, temp string, err error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return strings.TrimPrefix(url, "file://"), "", nil
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", errors.Newf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "playdeck-*"+filepath.Ext(url))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create temp file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", "", errors.Wrapf(err, "failed to download %s", url)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", "", errors.Wrap(err, "failed to finish download")
	}
	return f.Name(), f.Name(), nil
}

// decode picks a decoder by file extension.
func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		// .m4a imports are accepted into the library but beep has no
		// AAC decoder, so playback reports the format as unsupported.
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupported, "%s", filepath.Ext(path))
	}
}
