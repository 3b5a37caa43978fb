// Package tui provides the terminal presentation layer. It renders the
// player state and forwards user intents as state-machine transitions; the
// state machine stays the single source of truth.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mtak/playdeck/internal/app/library"
	"github.com/mtak/playdeck/internal/app/player"
	"github.com/mtak/playdeck/internal/domain/track"
	"github.com/mtak/playdeck/internal/infra/audio"
	"github.com/mtak/playdeck/internal/infra/config"
)

// stateChangedMsg wakes the UI after a state-machine transition.
type stateChangedMsg struct{}

// trackAddedMsg closes the add form after a successful submission.
type trackAddedMsg struct{}

// trackRemovedMsg reports a completed delete. The state machine wakeup
// arrives separately through the subscription channel.
type trackRemovedMsg struct{}

// opErrMsg carries an operation error into the footer.
type opErrMsg struct{ err error }

// Model is the root bubbletea model.
type Model struct {
	machine *player.Machine
	engine  audio.Engine
	library *library.Service
	cfg     config.PlayerConfig

	state   player.State
	changes <-chan struct{}

	cursor      int
	form        *addForm
	progressBar progress.Model
	width       int
	err         error
}

// NewModel creates the root model.
func NewModel(m *player.Machine, e audio.Engine, lib *library.Service, cfg config.PlayerConfig) *Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		machine:     m,
		engine:      e,
		library:     lib,
		cfg:         cfg,
		state:       m.Snapshot(),
		changes:     m.Subscribe(),
		progressBar: bar,
	}
}

// Init starts listening for state changes.
func (m *Model) Init() tea.Cmd {
	return m.listenForChanges()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case stateChangedMsg:
		m.state = m.machine.Snapshot()
		m.clampCursor()
		return m, tea.Batch(
			m.progressBar.SetPercent(m.state.Progress/100),
			m.listenForChanges(),
		)

	case trackAddedMsg:
		m.form = nil
		m.err = nil
		return m, nil

	case trackRemovedMsg:
		m.err = nil
		return m, nil

	case opErrMsg:
		m.err = msg.err
		return m, nil

	case progress.FrameMsg:
		bar, cmd := m.progressBar.Update(msg)
		m.progressBar = bar.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// updateForm routes keys to the add form while it is open.
func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		m.err = nil
		return m, nil
	case "enter":
		input := m.form.Input()
		return m, func() tea.Msg {
			if _, err := m.library.AddManual(context.Background(), input); err != nil {
				return opErrMsg{err: err}
			}
			return trackAddedMsg{}
		}
	}
	return m, m.form.Update(msg)
}

// handleKey applies the global key bindings. Transport shortcuts mirror the
// keyboard interface: space toggles play, the horizontal arrows seek, the
// vertical arrows adjust volume in caller-clamped steps.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		m.machine.TogglePlay()

	case "left":
		m.engine.SeekBy(-time.Duration(m.cfg.SeekStepSec) * time.Second)

	case "right":
		m.engine.SeekBy(time.Duration(m.cfg.SeekStepSec) * time.Second)

	case "up":
		m.machine.SetVolume(clampVolume(m.state.Volume + m.cfg.VolumeStep))

	case "down":
		m.machine.SetVolume(clampVolume(m.state.Volume - m.cfg.VolumeStep))

	case "j":
		if m.cursor < len(m.state.Playlist)-1 {
			m.cursor++
		}

	case "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "enter":
		if t, ok := m.selected(); ok {
			m.machine.SetTrack(t)
			m.machine.TogglePlay()
		}

	case "n":
		m.machine.SkipNext()

	case "p":
		m.machine.SkipPrevious()

	case "a":
		if t, ok := m.selected(); ok {
			m.machine.AddToQueue(t)
		}

	case "u":
		if len(m.state.Queue) > 0 {
			m.machine.RemoveFromQueue(m.state.Queue[0].ID)
		}

	case "d":
		if t, ok := m.selected(); ok {
			id := t.ID
			return m, func() tea.Msg {
				if err := m.library.Remove(context.Background(), id); err != nil {
					return opErrMsg{err: err}
				}
				return trackRemovedMsg{}
			}
		}

	case "s":
		m.machine.ToggleShuffle()

	case "r":
		m.machine.SetRepeatMode(m.state.Repeat.Cycle())

	case "t":
		m.machine.ToggleDarkMode()

	case "m":
		m.form = newAddForm()
		m.err = nil
		return m, nil
	}

	return m, nil
}

// selected returns the playlist entry under the cursor.
func (m *Model) selected() (track.Track, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Playlist) {
		return track.Track{}, false
	}
	return m.state.Playlist[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Playlist) {
		m.cursor = len(m.state.Playlist) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// listenForChanges waits for the next state-machine wakeup.
func (m *Model) listenForChanges() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return stateChangedMsg{}
	}
}

// clampVolume keeps the volume in [0,1]. The state machine does not clamp;
// the presentation layer owns that responsibility.
func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
